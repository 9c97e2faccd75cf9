package chat

import (
	"context"
	"math"
	"strings"

	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

// salaryUnit converts the classifier's thousands into absolute currency.
const salaryUnit = 1000

// Broadening controls how the fallback search widens numeric ranges.
type Broadening struct {
	ExperienceWidenDown int
	ExperienceWidenUp   int
	ExperienceCap       int
	SalaryWidenDown     float64
	SalaryWidenUp       float64
}

// DefaultBroadening widens experience by one year down and two up (capped at
// fifteen) and salary by 20% down and 30% up.
var DefaultBroadening = Broadening{
	ExperienceWidenDown: 1,
	ExperienceWidenUp:   2,
	ExperienceCap:       15,
	SalaryWidenDown:     0.20,
	SalaryWidenUp:       0.30,
}

// ParamBuilder maps extracted classification data onto upstream search params.
type ParamBuilder struct {
	skills     SkillInferrer
	heuristics *HeuristicsSource
	broadening Broadening
}

// NewParamBuilder returns a builder. A nil inferrer disables skill inference.
func NewParamBuilder(skills SkillInferrer, h *HeuristicsSource) *ParamBuilder {
	if skills == nil {
		skills = NoSkillInferrer{}
	}
	return &ParamBuilder{skills: skills, heuristics: h, broadening: DefaultBroadening}
}

// WithBroadening overrides the widening constants.
func (b *ParamBuilder) WithBroadening(w Broadening) *ParamBuilder {
	b.broadening = w
	return b
}

// Build produces the primary search params. profile and resume may be nil;
// they only feed the experience heuristic.
func (b *ParamBuilder) Build(ctx context.Context, ex ExtractedData, profile, resume map[string]any) jobs.SearchParams {
	h := b.heuristics.Get()

	p := jobs.SearchParams{
		Query:     strings.TrimSpace(string(ex.Query)),
		Search:    strings.TrimSpace(string(ex.Search)),
		JobTitle:  strings.TrimSpace(string(ex.JobTitle)),
		Company:   strings.TrimSpace(string(ex.Company)),
		Locations: h.NormalizeLocations(ex.LocationText()),
		Industry:  strings.TrimSpace(string(ex.Industry)),
		Domain:    strings.TrimSpace(string(ex.Domain)),
		Limit:     jobs.DefaultLimit,
		Page:      jobs.DefaultPage,
	}
	if s := strings.TrimSpace(string(ex.JobType)); s != "" {
		p.JobType = h.NormalizeJobType(s)
	}
	if s := strings.TrimSpace(string(ex.WorkMode)); s != "" {
		p.WorkMode = h.NormalizeWorkMode(s)
	}
	p.ExperienceMin = nonNegative(ex.ExperienceMin)
	p.ExperienceMax = nonNegative(ex.ExperienceMax)
	p.SalaryMin = thousands(ex.SalaryMin)
	p.SalaryMax = thousands(ex.SalaryMax)
	if ex.Limit.Valid && ex.Limit.Value > 0 {
		p.Limit = ex.Limit.Value
	}
	if ex.Page.Valid && ex.Page.Value > 0 {
		p.Page = ex.Page.Value
	}

	p.Skills = b.skillsFor(ctx, ex)

	signal := extractedText(ex) + " " + flattenText(profile) + " " + flattenText(resume)
	resolveInternship(&p, ex, h, signal)
	return p
}

// BuildBroadened derives the fallback params from scratch: location and skills
// survive, the job title never does, and exact experience and salary bounds
// are replaced by widened ranges when the primary search carried any.
func (b *ParamBuilder) BuildBroadened(ctx context.Context, ex ExtractedData, original jobs.SearchParams) jobs.SearchParams {
	h := b.heuristics.Get()
	w := b.broadening

	p := jobs.SearchParams{
		Locations: original.Locations,
		Skills:    original.Skills,
		Limit:     jobs.DefaultLimit,
		Page:      jobs.DefaultPage,
	}
	if p.Locations == "" {
		p.Locations = h.NormalizeLocations(ex.LocationText())
	}
	if p.Skills == "" {
		p.Skills = b.skillsFor(ctx, ex)
	}

	if original.ExperienceMin != nil {
		p.ExperienceMin = jobs.IntPtr(max(0, *original.ExperienceMin-w.ExperienceWidenDown))
	}
	if original.ExperienceMax != nil {
		p.ExperienceMax = jobs.IntPtr(min(w.ExperienceCap, *original.ExperienceMax+w.ExperienceWidenUp))
	}
	if original.SalaryMin != nil {
		p.SalaryMin = jobs.IntPtr(int(math.Round(float64(*original.SalaryMin) * (1 - w.SalaryWidenDown))))
	}
	if original.SalaryMax != nil {
		p.SalaryMax = jobs.IntPtr(int(math.Round(float64(*original.SalaryMax) * (1 + w.SalaryWidenUp))))
	}

	resolveInternship(&p, ex, h, extractedText(ex)+" "+p.Skills)
	// A full-time decision drawn from the profile or resume outlives broadening.
	if p.Internship == nil && original.Internship != nil && !*original.Internship {
		p.Internship = jobs.BoolPtr(false)
		p.JobType = "full-time"
	}
	return p
}

func (b *ParamBuilder) skillsFor(ctx context.Context, ex ExtractedData) string {
	if s := strings.TrimSpace(string(ex.Skills)); s != "" {
		return strings.Join(splitList(s), ", ")
	}
	title := strings.TrimSpace(string(ex.JobTitle))
	if title == "" {
		return ""
	}
	return strings.Join(b.skills.InferSkills(ctx, title), ", ")
}

// resolveInternship applies the internship rules in priority order and then
// makes the result self-consistent: an internship search never carries
// experience bounds, and job_type always agrees with the internship flag.
func resolveInternship(p *jobs.SearchParams, ex ExtractedData, h *Heuristics, signal string) {
	jobType := strings.ToLower(strings.TrimSpace(string(ex.JobType)))
	switch {
	case ex.Internship.True() || jobType == "internship" || jobType == "intern" || h.IsInternship(string(ex.JobTitle)):
		p.Internship = jobs.BoolPtr(true)
	case ex.Internship.False():
		p.Internship = jobs.BoolPtr(false)
		p.JobType = "full-time"
	case h.SeemsExperienced(signal):
		p.Internship = jobs.BoolPtr(false)
		if p.JobType == "" {
			p.JobType = "full-time"
		}
	default:
		p.Internship = nil
	}

	if p.Internship != nil && *p.Internship {
		p.JobType = "internship"
		p.ExperienceMin = nil
		p.ExperienceMax = nil
	} else if p.JobType == "internship" {
		p.JobType = "full-time"
	}
}

func nonNegative(o OptInt) *int {
	if !o.Valid {
		return nil
	}
	return jobs.IntPtr(max(0, o.Value))
}

func thousands(o OptInt) *int {
	if !o.Valid || o.Value < 0 {
		return nil
	}
	return jobs.IntPtr(o.Value * salaryUnit)
}

func extractedText(ex ExtractedData) string {
	return strings.Join([]string{
		string(ex.JobTitle), string(ex.Skills), string(ex.Query), string(ex.Search),
		string(ex.Industry), string(ex.Domain), string(ex.JobType),
	}, " ")
}

// flattenText collects the scalar values of a profile/resume payload for
// keyword checks. Keys are skipped so field names like "experience" do not count.
func flattenText(v any) string {
	var sb strings.Builder
	var walk func(any)
	walk = func(v any) {
		switch x := v.(type) {
		case string:
			sb.WriteString(x)
			sb.WriteByte(' ')
		case map[string]any:
			for _, e := range x {
				walk(e)
			}
		case []any:
			for _, e := range x {
				walk(e)
			}
		}
	}
	walk(v)
	return sb.String()
}
