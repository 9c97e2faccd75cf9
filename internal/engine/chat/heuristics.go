package chat

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

//go:embed heuristics.yaml
var defaultHeuristicsYAML []byte

// Heuristics holds the word lists used by parameter building and screening.
type Heuristics struct {
	InternshipKeywords        []string          `yaml:"internship_keywords"`
	SubstantialSkillThreshold int               `yaml:"substantial_skill_threshold"`
	SubstantialSkills         []string          `yaml:"substantial_skills"`
	ExperienceKeywords        []string          `yaml:"experience_keywords"`
	UnrealisticLocations      []string          `yaml:"unrealistic_locations"`
	LocationAliases           map[string]string `yaml:"location_aliases"`
	WorkModeAliases           map[string]string `yaml:"work_mode_aliases"`
	JobTypeAliases            map[string]string `yaml:"job_type_aliases"`
	HinglishMarkers           []string          `yaml:"hinglish_markers"`
}

// ParseHeuristics decodes YAML on top of the built-in defaults, so a partial
// file only overrides the lists it names.
func ParseHeuristics(data []byte) (*Heuristics, error) {
	h := &Heuristics{}
	if err := yaml.Unmarshal(defaultHeuristicsYAML, h); err != nil {
		return nil, fmt.Errorf("heuristics: defaults: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, h); err != nil {
			return nil, fmt.Errorf("heuristics: parse: %w", err)
		}
	}
	if h.SubstantialSkillThreshold <= 0 {
		return nil, errors.New("heuristics: substantial_skill_threshold must be positive")
	}
	return h, nil
}

// DefaultHeuristics returns the built-in lists.
func DefaultHeuristics() *Heuristics {
	h, err := ParseHeuristics(nil)
	if err != nil {
		panic(err)
	}
	return h
}

// IsInternship reports whether text mentions an internship keyword.
func (h *Heuristics) IsInternship(text string) bool {
	return containsAnyTerm(text, h.InternshipKeywords)
}

// SeemsExperienced reports whether text either names enough substantial skills
// or uses an experience keyword.
func (h *Heuristics) SeemsExperienced(text string) bool {
	if countTerms(text, h.SubstantialSkills) >= h.SubstantialSkillThreshold {
		return true
	}
	return containsAnyTerm(text, h.ExperienceKeywords)
}

// UnrealisticLocation returns the first denylisted term found in loc.
func (h *Heuristics) UnrealisticLocation(loc string) (string, bool) {
	for _, term := range h.UnrealisticLocations {
		if containsTerm(loc, term) {
			return term, true
		}
	}
	return "", false
}

// NormalizeLocations maps each comma-separated location through the alias table.
func (h *Heuristics) NormalizeLocations(s string) string {
	parts := splitList(s)
	seen := make(map[string]bool, len(parts))
	out := parts[:0]
	for _, p := range parts {
		if canon, ok := h.LocationAliases[strings.ToLower(p)]; ok {
			p = canon
		}
		if key := strings.ToLower(p); !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// NormalizeWorkMode returns the canonical work mode, or the lowercased input.
func (h *Heuristics) NormalizeWorkMode(s string) string {
	return lookupAlias(h.WorkModeAliases, s)
}

// NormalizeJobType returns the canonical job type, or the lowercased input.
func (h *Heuristics) NormalizeJobType(s string) string {
	return lookupAlias(h.JobTypeAliases, s)
}

// DetectLanguage guesses english, hindi or hinglish from the script and markers.
func (h *Heuristics) DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return LangHindi
		}
	}
	if countTerms(text, h.HinglishMarkers) >= 2 {
		return LangHinglish
	}
	return LangEnglish
}

func lookupAlias(m map[string]string, s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsAnyTerm(text string, terms []string) bool {
	for _, t := range terms {
		if containsTerm(text, t) {
			return true
		}
	}
	return false
}

func countTerms(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if containsTerm(text, t) {
			n++
		}
	}
	return n
}

// containsTerm matches term as a whole word (or phrase) in text, ignoring case.
// "intern" matches "Android Intern" and "interns" but not "international".
func containsTerm(text, term string) bool {
	text = strings.ToLower(text)
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if end < len(text) && text[end] == 's' {
			if end+1 == len(text) || !isWordByte(text[end+1]) {
				end++
			}
		}
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}

// HeuristicsSource serves the current heuristics and reloads them from a file.
type HeuristicsSource struct {
	path    string
	current atomic.Pointer[Heuristics]
}

// NewHeuristicsSource loads path when set, otherwise the built-in defaults.
func NewHeuristicsSource(path string) (*HeuristicsSource, error) {
	s := &HeuristicsSource{path: path}
	if path == "" {
		s.current.Store(DefaultHeuristics())
		return s, nil
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// StaticHeuristics wraps h in a source that never reloads.
func StaticHeuristics(h *Heuristics) *HeuristicsSource {
	s := &HeuristicsSource{}
	s.current.Store(h)
	return s
}

// Get returns the active heuristics. A nil source yields the defaults.
func (s *HeuristicsSource) Get() *Heuristics {
	if s == nil {
		return DefaultHeuristics()
	}
	return s.current.Load()
}

func (s *HeuristicsSource) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("heuristics: read %s: %w", s.path, err)
	}
	h, err := ParseHeuristics(data)
	if err != nil {
		return err
	}
	s.current.Store(h)
	return nil
}

// Watch reloads the file whenever it changes until ctx is done. A bad edit is
// logged and the previous heuristics stay active.
func (s *HeuristicsSource) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("heuristics: watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("heuristics: watch %s: %w", s.path, err)
	}
	target := filepath.Clean(s.path)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				if err := s.reload(); err != nil {
					slog.Warn("heuristics reload failed", slog.Any("error", err))
					continue
				}
				slog.Info("heuristics reloaded", slog.String("path", s.path))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Debug("heuristics watcher error", slog.Any("error", err))
			}
		}
	}()
	return nil
}
