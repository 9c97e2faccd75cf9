package jobs

import (
	"net/url"
	"strconv"
)

// Default page size and page for upstream searches.
const (
	DefaultLimit = 10
	DefaultPage  = 1
)

// SearchParams is the normalized, API-ready parameter set for GET /api/rag/jobs.
// Optional numeric filters are pointers so that "absent" and "zero" stay distinct.
// Salaries are absolute currency units.
type SearchParams struct {
	Query         string `json:"query,omitempty"`
	Search        string `json:"search,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	Company       string `json:"company,omitempty"`
	Locations     string `json:"locations,omitempty"`
	Skills        string `json:"skills,omitempty"` // comma-joined
	Industry      string `json:"industry,omitempty"`
	Domain        string `json:"domain,omitempty"`
	JobType       string `json:"job_type,omitempty"`
	WorkMode      string `json:"work_mode,omitempty"`
	ExperienceMin *int   `json:"experience_min,omitempty"`
	ExperienceMax *int   `json:"experience_max,omitempty"`
	SalaryMin     *int   `json:"salary_min,omitempty"`
	SalaryMax     *int   `json:"salary_max,omitempty"`
	Internship    *bool  `json:"internship,omitempty"`
	Limit         int    `json:"limit"`
	Page          int    `json:"page"`
}

// Clone returns a deep copy; pointer fields are not shared with p.
func (p SearchParams) Clone() SearchParams {
	out := p
	out.ExperienceMin = cloneInt(p.ExperienceMin)
	out.ExperienceMax = cloneInt(p.ExperienceMax)
	out.SalaryMin = cloneInt(p.SalaryMin)
	out.SalaryMax = cloneInt(p.SalaryMax)
	if p.Internship != nil {
		v := *p.Internship
		out.Internship = &v
	}
	return out
}

// Values encodes p as the upstream query string.
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	setInt := func(k string, n *int) {
		if n != nil {
			v.Set(k, strconv.Itoa(*n))
		}
	}
	set("query", p.Query)
	set("search", p.Search)
	set("job_title", p.JobTitle)
	set("company", p.Company)
	set("locations", p.Locations)
	set("skills", p.Skills)
	set("industry", p.Industry)
	set("domain", p.Domain)
	set("job_type", p.JobType)
	set("work_mode", p.WorkMode)
	setInt("experience_min", p.ExperienceMin)
	setInt("experience_max", p.ExperienceMax)
	setInt("salary_min", p.SalaryMin)
	setInt("salary_max", p.SalaryMax)
	if p.Internship != nil {
		v.Set("internship", strconv.FormatBool(*p.Internship))
	}
	limit, page := p.Limit, p.Page
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page <= 0 {
		page = DefaultPage
	}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("page", strconv.Itoa(page))
	return v
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
