package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
)

// SkillInferrer proposes skills for a job title. An empty result is valid.
type SkillInferrer interface {
	InferSkills(ctx context.Context, jobTitle string) []string
}

const (
	minInferredSkills = 3
	maxInferredSkills = 8
	maxSkillRunes     = 40
)

// LLMSkillInferrer asks the model for a comma-separated skill list.
type LLMSkillInferrer struct {
	llm Completer
}

func NewLLMSkillInferrer(llm Completer) *LLMSkillInferrer {
	return &LLMSkillInferrer{llm: llm}
}

type shortCompleter interface {
	CompleteShort(ctx context.Context, prompt, system string) (string, error)
}

func (s *LLMSkillInferrer) InferSkills(ctx context.Context, jobTitle string) []string {
	jobTitle = strings.TrimSpace(jobTitle)
	if jobTitle == "" || s.llm == nil {
		return nil
	}
	prompt := fmt.Sprintf(skillInferencePrompt, jobTitle)

	var (
		raw string
		err error
	)
	if sc, ok := s.llm.(shortCompleter); ok {
		raw, err = sc.CompleteShort(ctx, prompt, skillInferenceSystem)
	} else {
		raw, err = s.llm.Complete(ctx, prompt, skillInferenceSystem)
	}
	if err != nil {
		slog.Debug("skill inference failed", slog.String("title", jobTitle), slog.Any("error", err))
		return nil
	}
	skills := parseSkillList(raw)
	if skills == nil {
		slog.Debug("skill inference implausible", slog.String("title", jobTitle), slog.String("raw", engine.TruncateRunes(raw, 120, "...")))
	}
	return skills
}

// parseSkillList accepts one comma-separated line. Prose, single items and
// oversized entries are rejected as a whole.
func parseSkillList(raw string) []string {
	line := strings.TrimSpace(engine.StripFences(raw))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if !strings.Contains(line, ",") {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(line, ",") {
		p = strings.Trim(strings.TrimSpace(p), `"'*`)
		if p == "" {
			continue
		}
		if len([]rune(p)) > maxSkillRunes {
			return nil
		}
		if key := strings.ToLower(p); !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}
	if len(out) < minInferredSkills {
		return nil
	}
	if len(out) > maxInferredSkills {
		out = out[:maxInferredSkills]
	}
	return out
}

// StaticSkillInferrer looks titles up in a fixed table, case-insensitively.
type StaticSkillInferrer map[string][]string

func (s StaticSkillInferrer) InferSkills(_ context.Context, jobTitle string) []string {
	key := strings.ToLower(strings.TrimSpace(jobTitle))
	for title, skills := range s {
		if strings.ToLower(title) == key {
			return skills
		}
	}
	return nil
}

// NoSkillInferrer never infers anything.
type NoSkillInferrer struct{}

func (NoSkillInferrer) InferSkills(context.Context, string) []string { return nil }
