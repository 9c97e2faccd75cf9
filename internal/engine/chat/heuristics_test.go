package chat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsTerm(t *testing.T) {
	tests := []struct {
		text, term string
		want       bool
	}{
		{"Android Intern", "intern", true},
		{"we hire interns", "intern", true},
		{"International Sales", "intern", false},
		{"internship", "intern", false},
		{"Summer internship 2026", "internship", true},
		{"C++ developer", "c++", true},
		{"Node.js backend", "node.js", true},
		{"javascript", "java", false},
		{"Java, Spring", "java", true},
		{"machine  learning", "machine learning", false},
		{"Machine Learning Engineer", "machine learning", true},
		{"", "intern", false},
		{"anything", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsTerm(tt.text, tt.term), "%q in %q", tt.term, tt.text)
	}
}

func TestHeuristics_Defaults(t *testing.T) {
	h := DefaultHeuristics()

	assert.True(t, h.IsInternship("Graduate Trainee Program"))
	assert.False(t, h.IsInternship("Backend Developer"))
	assert.True(t, h.SeemsExperienced("Staff Engineer"))
	assert.True(t, h.SeemsExperienced("python docker kubernetes"))
	assert.False(t, h.SeemsExperienced("python docker"))

	term, bad := h.UnrealisticLocation("Jobs on Mars please")
	assert.True(t, bad)
	assert.Equal(t, "mars", term)

	assert.Equal(t, "Bengaluru, Mumbai", h.NormalizeLocations("Bangalore, bombay"))
	assert.Equal(t, "on-site", h.NormalizeWorkMode("Work from Office"))
	assert.Equal(t, "flexible", h.NormalizeWorkMode("Flexible"))
}

// Denylisted terms match as whole words in any case, so real places that
// merely contain one still pass.
func TestHeuristics_UnrealisticLocationWholeWord(t *testing.T) {
	h := DefaultHeuristics()
	for _, loc := range []string{"MARS", "mars", "Mars-1 colony", "Pune or Mars"} {
		term, bad := h.UnrealisticLocation(loc)
		assert.True(t, bad, loc)
		assert.Equal(t, "mars", term, loc)
	}
	for _, loc := range []string{"Marseille", "Marshall Islands", "Ramsgate"} {
		_, bad := h.UnrealisticLocation(loc)
		assert.False(t, bad, loc)
	}
}

func TestHeuristics_DetectLanguage(t *testing.T) {
	h := DefaultHeuristics()
	assert.Equal(t, LangEnglish, h.DetectLanguage("find me a job in Pune"))
	assert.Equal(t, LangHinglish, h.DetectLanguage("mujhe Pune mein naukri chahiye"))
	assert.Equal(t, LangHindi, h.DetectLanguage("मुझे नौकरी चाहिए"))
}

func TestParseHeuristics_Overlay(t *testing.T) {
	h, err := ParseHeuristics([]byte("unrealistic_locations: [gotham]\nsubstantial_skill_threshold: 1\n"))
	require.NoError(t, err)

	_, bad := h.UnrealisticLocation("Mars")
	assert.False(t, bad, "list replaced by the overlay")
	_, bad = h.UnrealisticLocation("Gotham City")
	assert.True(t, bad)
	assert.True(t, h.SeemsExperienced("rust"))
	assert.NotEmpty(t, h.InternshipKeywords, "unnamed lists keep defaults")
}

func TestParseHeuristics_Invalid(t *testing.T) {
	_, err := ParseHeuristics([]byte("substantial_skill_threshold: [oops"))
	assert.Error(t, err)

	_, err = ParseHeuristics([]byte("substantial_skill_threshold: 0"))
	assert.Error(t, err)
}

func TestHeuristicsSource_NilUsesDefaults(t *testing.T) {
	var s *HeuristicsSource
	assert.NotEmpty(t, s.Get().UnrealisticLocations)
}

func TestHeuristicsSource_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heuristics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unrealistic_locations: [mars]\n"), 0o644))

	src, err := NewHeuristicsSource(path)
	require.NoError(t, err)
	_, bad := src.Get().UnrealisticLocation("Atlantis")
	require.False(t, bad)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("unrealistic_locations: [atlantis]\n"), 0o644))
	assert.Eventually(t, func() bool {
		_, bad := src.Get().UnrealisticLocation("Atlantis")
		return bad
	}, 2*time.Second, 20*time.Millisecond)

	// A broken edit keeps the last good set.
	require.NoError(t, os.WriteFile(path, []byte("unrealistic_locations: [oops"), 0o644))
	time.Sleep(100 * time.Millisecond)
	_, bad = src.Get().UnrealisticLocation("Atlantis")
	assert.True(t, bad)
}

func TestNewHeuristicsSource_MissingFile(t *testing.T) {
	_, err := NewHeuristicsSource(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
