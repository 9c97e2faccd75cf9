// Package chat turns a free-text user message into a routed, structured reply:
// intent classification, search-parameter building, two-pass job search with
// broadening, pagination, and the per-intent assistant handlers.
package chat

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

// Category is the classified intent of a message.
type Category string

const (
	CategoryJobSearch         Category = "JOB_SEARCH"
	CategoryResumeAnalysis    Category = "RESUME_ANALYSIS"
	CategoryCareerAdvice      Category = "CAREER_ADVICE"
	CategoryProjectSuggestion Category = "PROJECT_SUGGESTION"
	CategoryResumeUpload      Category = "RESUME_UPLOAD"
	CategoryProfileInfo       Category = "PROFILE_INFO"
	CategoryGeneralChat       Category = "GENERAL_CHAT"
)

// ParseCategory normalizes s and reports whether it names a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CategoryJobSearch, CategoryResumeAnalysis, CategoryCareerAdvice, CategoryProjectSuggestion,
		CategoryResumeUpload, CategoryProfileInfo, CategoryGeneralChat:
		return c, true
	}
	return CategoryGeneralChat, false
}

// Languages the classifier may report.
const (
	LangEnglish  = "english"
	LangHindi    = "hindi"
	LangHinglish = "hinglish"
)

// Completer is a text-completion service. Output carries no structural guarantees.
type Completer interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
}

// ContextProvider supplies best-effort user context.
type ContextProvider interface {
	GetProfile(ctx context.Context, auth jobs.Auth) (map[string]any, error)
	GetResume(ctx context.Context, auth jobs.Auth) (map[string]any, error)
}

// JobAPI is the upstream job backend.
type JobAPI interface {
	ContextProvider
	SearchJobs(ctx context.Context, auth jobs.Auth, p jobs.SearchParams) (*jobs.SearchResult, error)
}

// Request is one inbound chat message.
type Request struct {
	Query               string
	Token               string
	SessionID           string
	BaseURL             string
	ConversationContext string
}

// UserContext is the profile and resume fetched for a request. Either may be nil.
type UserContext struct {
	Profile map[string]any
	Resume  map[string]any
}

// RoutingRecord is the parsed classification merged with request-scoped fields.
type RoutingRecord struct {
	Category            Category      `json:"category"`
	Confidence          float64       `json:"confidence"`
	ExtractedData       ExtractedData `json:"extractedData"`
	SearchQuery         string        `json:"searchQuery"`
	OriginalQuery       string        `json:"originalQuery"`
	Token               string        `json:"-"`
	SessionID           string        `json:"sessionId"`
	BaseURL             string        `json:"baseUrl"`
	ConversationContext string        `json:"conversation_context,omitempty"`
	Error               string        `json:"error,omitempty"`

	// User is the context fetched during classification, reused by handlers.
	User *UserContext `json:"-"`
}

func (r RoutingRecord) auth() jobs.Auth {
	return jobs.Auth{Token: r.Token, BaseURL: r.BaseURL}
}

// ExtractedData holds the fields the classifier pulled out of the message.
// Every field tolerates the shapes a model tends to emit (numbers as strings,
// lists where a string was asked for, and so on). Raw keeps the full object.
type ExtractedData struct {
	Query     FlexString `json:"query,omitempty"`
	Search    FlexString `json:"search,omitempty"`
	JobTitle  FlexString `json:"job_title,omitempty"`
	Company   FlexString `json:"company,omitempty"`
	Location  FlexString `json:"location,omitempty"`
	Locations FlexString `json:"locations,omitempty"`
	Skills    FlexString `json:"skills,omitempty"`
	Industry  FlexString `json:"industry,omitempty"`
	Domain    FlexString `json:"domain,omitempty"`
	JobType   FlexString `json:"job_type,omitempty"`
	WorkMode  FlexString `json:"work_mode,omitempty"`

	ExperienceMin OptInt  `json:"experience_min,omitzero"`
	ExperienceMax OptInt  `json:"experience_max,omitzero"`
	SalaryMin     OptInt  `json:"salary_min,omitzero"`
	SalaryMax     OptInt  `json:"salary_max,omitzero"`
	Internship    OptBool `json:"internship,omitzero"`
	Limit         OptInt  `json:"limit,omitzero"`
	Page          OptInt  `json:"page,omitzero"`

	Language FlexString `json:"language,omitempty"`

	ContentFiltered OptBool `json:"content_filtered,omitzero"`
	OutOfScope      OptBool `json:"out_of_scope,omitzero"`
	CasualChat      OptBool `json:"casual_chat,omitzero"`
	SlangRedirect   OptBool `json:"slang_redirect,omitzero"`
	HobbyRedirect   OptBool `json:"hobby_redirect,omitzero"`

	CareerStage      FlexString `json:"career_stage,omitempty"`
	SpecificQuestion FlexString `json:"specific_question,omitempty"`
	SkillLevel       FlexString `json:"skill_level,omitempty"`
	Technology       FlexString `json:"technology,omitempty"`

	Raw map[string]any `json:"-"`
}

// LocationText returns locations, falling back to location.
func (e ExtractedData) LocationText() string {
	if s := string(e.Locations); s != "" {
		return s
	}
	return string(e.Location)
}

// FlexString decodes any JSON value into a display string using the job-field
// coercion rule: lists are comma-joined, objects use their name/title, null is "".
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexString(jobs.DisplayValue(v))
	return nil
}

// OptInt is an optional integer that also accepts numeric strings.
// Unparseable values decode as absent rather than failing the whole object.
type OptInt struct {
	Value int
	Valid bool
}

// Int returns an OptInt holding n.
func Int(n int) OptInt { return OptInt{Value: n, Valid: true} }

func (o OptInt) IsZero() bool { return !o.Valid }

// Ptr returns a pointer to the value, or nil when absent.
func (o OptInt) Ptr() *int {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func (o *OptInt) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = OptInt{}
	switch x := v.(type) {
	case float64:
		*o = OptInt{Value: int(x), Valid: true}
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			*o = OptInt{Value: n, Valid: true}
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			*o = OptInt{Value: int(f), Valid: true}
		}
	}
	return nil
}

func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Value)), nil
}

// OptBool is an optional boolean that also accepts "true"/"yes"/"1" style strings.
type OptBool struct {
	Value bool
	Valid bool
}

// Bool returns an OptBool holding b.
func Bool(b bool) OptBool { return OptBool{Value: b, Valid: true} }

func (o OptBool) IsZero() bool { return !o.Valid }

// True reports whether the value is present and true.
func (o OptBool) True() bool { return o.Valid && o.Value }

// False reports whether the value is present and false.
func (o OptBool) False() bool { return o.Valid && !o.Value }

func (o *OptBool) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = OptBool{}
	switch x := v.(type) {
	case bool:
		*o = OptBool{Value: x, Valid: true}
	case float64:
		*o = OptBool{Value: x != 0, Valid: true}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1":
			*o = OptBool{Value: true, Valid: true}
		case "false", "no", "n", "0":
			*o = OptBool{Value: false, Valid: true}
		}
	}
	return nil
}

func (o OptBool) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatBool(o.Value)), nil
}
