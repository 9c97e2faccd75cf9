package jobs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/anatolykoptev/go_jobmato/internal/engine"
)

// Display caps.
const (
	maxSkillsShown      = 5
	maxDescriptionRunes = 500
)

// JobRecord is the normalized display shape of one upstream job.
type JobRecord struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Locations      []string `json:"locations"`
	Location       string   `json:"location"`
	Experience     string   `json:"experience"`
	Salary         string   `json:"salary"`
	Skills         []string `json:"skills"`
	WorkMode       string   `json:"workMode"`
	JobType        string   `json:"jobType"`
	Description    string   `json:"description"`
	PostedDate     string   `json:"postedDate,omitempty"`
	URL            string   `json:"url,omitempty"`
	SourceURL      string   `json:"source_url,omitempty"`
	ApplyURL       string   `json:"apply_url,omitempty"`
	SourcePlatform string   `json:"source_platform,omitempty"`
}

// nameKeys are probed in order when a field arrives as a nested object.
var nameKeys = []string{"name", "title", "text", "display_name", "value", "label"}

// DisplayValue coerces an upstream field into a display string:
//
//	string          → trimmed
//	number          → decimal, integral values without a fraction
//	bool            → "Yes" / "No"
//	{name|title|…}  → first non-empty probed key; {min,max} → "min - max"
//	list            → elements coerced, empties dropped, joined with ", "
//	nil             → ""
func DisplayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case map[string]any:
		for _, k := range nameKeys {
			if s := DisplayValue(x[k]); s != "" {
				return s
			}
		}
		return rangeValue(x)
	case []any:
		return strings.Join(DisplayList(x), ", ")
	case []string:
		return strings.Join(DisplayList(x), ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// DisplayList coerces a list-or-scalar field into non-empty display strings.
// A scalar becomes a one-element list.
func DisplayList(v any) []string {
	var out []string
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		for _, e := range x {
			if s := DisplayValue(e); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, e := range x {
			if s := strings.TrimSpace(e); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := DisplayValue(x); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func rangeValue(m map[string]any) string {
	lo, hi := DisplayValue(m["min"]), DisplayValue(m["max"])
	var s string
	switch {
	case lo != "" && hi != "":
		s = lo + " - " + hi
	case lo != "":
		s = lo + "+"
	case hi != "":
		s = "up to " + hi
	default:
		return ""
	}
	if cur := DisplayValue(m["currency"]); cur != "" {
		s = cur + " " + s
	}
	return s
}

// firstOf returns the first non-empty display value among keys.
func firstOf(raw RawJob, keys ...string) string {
	for _, k := range keys {
		if s := DisplayValue(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// JobIdentity returns the job's unique id: _id, falling back to job_id, then id.
func JobIdentity(raw RawJob) string {
	return firstOf(raw, "_id", "job_id", "id")
}

// NormalizeJob converts a raw upstream job into a JobRecord.
func NormalizeJob(raw RawJob) JobRecord {
	locations := DisplayList(raw["locations"])
	if len(locations) == 0 {
		locations = DisplayList(raw["location"])
	}

	var skills []string
	for _, s := range DisplayList(raw["skills"]) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				skills = append(skills, part)
			}
		}
	}
	if len(skills) > maxSkillsShown {
		skills = skills[:maxSkillsShown]
	}

	return JobRecord{
		ID:             JobIdentity(raw),
		Title:          orDefault(firstOf(raw, "job_title", "title"), "Untitled role"),
		Company:        orDefault(firstOf(raw, "company", "company_name"), "Company not specified"),
		Locations:      locations,
		Location:       orDefault(strings.Join(locations, ", "), "Location not specified"),
		Experience:     orDefault(firstOf(raw, "experience"), "Experience not specified"),
		Salary:         orDefault(firstOf(raw, "salary"), "Salary not disclosed"),
		Skills:         skills,
		WorkMode:       orDefault(firstOf(raw, "work_mode", "remote_type"), "Not specified"),
		JobType:        orDefault(firstOf(raw, "job_type", "employment_type"), "Full-time"),
		Description:    description(raw["description"]),
		PostedDate:     firstOf(raw, "posted_date", "created_at", "date_posted"),
		URL:            firstOf(raw, "job_url", "url"),
		SourceURL:      firstOf(raw, "source_url", "job_url"),
		ApplyURL:       firstOf(raw, "apply_url", "application_url"),
		SourcePlatform: firstOf(raw, "source_platform", "platform"),
	}
}

// NormalizeJobs normalizes a whole result page, preserving order.
func NormalizeJobs(raw []RawJob) []JobRecord {
	out := make([]JobRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, NormalizeJob(r))
	}
	return out
}

// description renders HTML descriptions as markdown and bounds the length.
func description(v any) string {
	s := DisplayValue(v)
	if s == "" {
		return ""
	}
	if engine.LooksLikeHTML(s) {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = strings.TrimSpace(md)
		} else {
			s = engine.CleanHTML(s)
		}
	}
	return engine.TruncateRunes(s, maxDescriptionRunes, "...")
}
