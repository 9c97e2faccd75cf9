package chat

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

// Error codes placed in the "error" metadata key.
const (
	ErrCodeUnrealisticLocation = "unrealistic_location"
	ErrCodeTimeout             = "timeout"
	ErrCodeConnection          = "connection_error"
	ErrCodeAPI                 = "api_error"
	ErrCodeNoContext           = "no_search_context"
	ErrCodeInternal            = "internal_error"
	ErrCodeLLM                 = "llm_error"
)

func unrealisticLocationText(loc string) string {
	return fmt.Sprintf("I can only search for jobs in real places, and %q doesn't look like one. "+
		"Try a city such as Bengaluru, Mumbai or Pune, or ask for remote roles.", strings.TrimSpace(loc))
}

func noResultsText(p jobs.SearchParams) string {
	var sb strings.Builder
	sb.WriteString("I couldn't find any jobs matching your search right now.")
	sb.WriteString("\n\nYou could try:")
	if p.JobTitle != "" {
		sb.WriteString("\n- a broader or related job title than \"" + p.JobTitle + "\"")
	}
	if p.Locations != "" {
		sb.WriteString("\n- a nearby city or remote roles instead of " + p.Locations)
	}
	if p.ExperienceMin != nil || p.ExperienceMax != nil || p.SalaryMin != nil || p.SalaryMax != nil {
		sb.WriteString("\n- relaxing the experience or salary range")
	}
	sb.WriteString("\n- fewer or more general skills")
	sb.WriteString("\n- checking back later, new jobs are posted every day")
	return sb.String()
}

func noResultsSuggestions(p jobs.SearchParams) []string {
	out := []string{"Use fewer or more general skills", "Check back later for new postings"}
	if p.JobTitle != "" {
		out = append([]string{"Try a broader or related job title"}, out...)
	}
	if p.Locations != "" {
		out = append(out, "Try a nearby city or remote roles")
	}
	return out
}

// searchErrorReply maps an upstream failure onto user text and an error code.
func searchErrorReply(err error) (text, code string, retryable bool) {
	switch jobs.KindOf(err) {
	case jobs.KindTimeout:
		return "The job search is taking longer than usual. Please try again in a moment.", ErrCodeTimeout, true
	case jobs.KindConnection:
		return "I couldn't reach the job service just now. Please check your connection and try again.", ErrCodeConnection, true
	default:
		return "Something went wrong while searching for jobs. Please try again, or rephrase your search.", ErrCodeAPI, false
	}
}

const searchFirstText = "I don't have an active job search for this conversation. " +
	"Please perform a new search first, for example \"software engineer jobs in Bengaluru\"."

const internalErrorText = "Sorry, something went wrong while handling your message. Please try again."

var uploadPromptText = map[string]string{
	LangEnglish:  "Sure! Please upload your resume (PDF or DOCX) using the upload button and I'll take it from there.",
	LangHinglish: "Bilkul! Upload button se apna resume (PDF ya DOCX) upload karo, phir main aage help karunga.",
	LangHindi:    "Zaroor! Upload button se apna resume (PDF ya DOCX) upload kijiye, phir main aapki madad karunga.",
}

var noResumeText = map[string]string{
	LangEnglish:  "To analyse your resume I need you to upload it first. Once it's uploaded I'll give you detailed feedback and improvement tips.",
	LangHinglish: "Resume analysis ke liye pehle apna resume upload karo. Upload hote hi main detailed feedback aur improvement tips dunga.",
	LangHindi:    "Resume analysis ke liye pehle apna resume upload kijiye. Upload hone ke baad main detailed feedback dunga.",
}

var llmFailureText = map[Category]string{
	CategoryCareerAdvice:      "I ran into a problem while preparing career advice. Please try again.",
	CategoryResumeAnalysis:    "I ran into a problem while analysing your resume. Please try again.",
	CategoryProjectSuggestion: "I ran into a problem while preparing project ideas. Please try again.",
	CategoryProfileInfo:       "I ran into a problem while reading your profile. Please try again.",
	CategoryGeneralChat:       "Sorry, I ran into a problem. How can I help with your career today?",
}

// redirectTexts answer the screening flags without calling the model.
var redirectTexts = []struct {
	flag string
	get  func(ExtractedData) bool
	text string
}{
	{"content_filtered", func(e ExtractedData) bool { return e.ContentFiltered.True() },
		"I'm here to help with jobs, resumes and career growth, so let's keep things professional. What can I help you with in your career?"},
	{"slang_redirect", func(e ExtractedData) bool { return e.SlangRedirect.True() },
		"Let's keep it friendly! I can help you find jobs, review your resume or plan your next career step. What would you like to do?"},
	{"out_of_scope", func(e ExtractedData) bool { return e.OutOfScope.True() },
		"That's outside what I can help with. I focus on careers: job search, resume feedback, career advice and project ideas. Want to try one of those?"},
	{"hobby_redirect", func(e ExtractedData) bool { return e.HobbyRedirect.True() },
		"Hobbies can turn into great careers! Tell me what you enjoy and I can suggest related roles, projects or skills to build."},
	{"casual_chat", func(e ExtractedData) bool { return e.CasualChat.True() },
		"Hi! I'm the JobMato assistant. I can search jobs, review your resume, suggest projects or give career advice. What are you looking for today?"},
}

func localized(m map[string]string, lang string) string {
	if s, ok := m[lang]; ok {
		return s
	}
	return m[LangEnglish]
}
