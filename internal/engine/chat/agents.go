package chat

import (
	"context"
	"log/slog"
	"strings"
)

// Agents answers the non-search intents with a single model call each.
type Agents struct {
	llm        Completer
	api        ContextProvider
	heuristics *HeuristicsSource
	fmt        Formatter
}

func NewAgents(llm Completer, api ContextProvider, h *HeuristicsSource) *Agents {
	return &Agents{llm: llm, api: api, heuristics: h, fmt: NewFormatter()}
}

func (a *Agents) CareerAdvice(ctx context.Context, rec RoutingRecord) ChatMessage {
	ex := rec.ExtractedData
	user := a.userContext(ctx, rec)

	var sb strings.Builder
	a.writeHeader(&sb, rec)
	sb.WriteString("Career Stage: " + orText(string(ex.CareerStage), "not specified") + "\n")
	sb.WriteString("Industry: " + orText(string(ex.Industry), "not specified") + "\n")
	sb.WriteString("Specific Question: " + orText(string(ex.SpecificQuestion), "general advice") + "\n")
	writeContextBlock(&sb, "User Profile Data", user.Profile)
	writeContextBlock(&sb, "User Resume Data", user.Resume)

	out, err := a.llm.Complete(ctx, sb.String(), careerAdviceSystemPrompt)
	if err != nil {
		return a.llmFailure(rec, err)
	}
	return a.fmt.Message(TypeCareerAdvice, out, map[string]any{
		"category":         CategoryCareerAdvice,
		"careerStage":      orText(string(ex.CareerStage), "not specified"),
		"industry":         orText(string(ex.Industry), "not specified"),
		"specificQuestion": orText(string(ex.SpecificQuestion), "general advice"),
		"language":         a.language(rec),
	})
}

func (a *Agents) ResumeAnalysis(ctx context.Context, rec RoutingRecord) ChatMessage {
	lang := a.language(rec)
	user := a.userContext(ctx, rec)
	if user.Resume == nil {
		return a.fmt.Message(TypeUploadRequired, localized(noResumeText, lang), map[string]any{
			"category":     CategoryResumeAnalysis,
			"needs_upload": true,
			"language":     lang,
		})
	}

	followUp := strings.Contains(strings.ToLower(rec.ConversationContext), "resume")
	var sb strings.Builder
	a.writeHeader(&sb, rec)
	writeContextBlock(&sb, "User Profile Data", user.Profile)
	writeContextBlock(&sb, "User Resume Data", user.Resume)
	sb.WriteString(resumeAnalysisChecklist)
	if followUp {
		sb.WriteString("\n- reference earlier feedback and note what improved")
	}

	out, err := a.llm.Complete(ctx, sb.String(), resumeAnalysisSystemPrompt)
	if err != nil {
		return a.llmFailure(rec, err)
	}
	return a.fmt.Message(TypeResumeAnalysis, out, map[string]any{
		"category":              CategoryResumeAnalysis,
		"sessionId":             rec.SessionID,
		"language":              lang,
		"analysis_type":         AnalysisType(rec.OriginalQuery),
		"has_previous_analysis": followUp,
		"resume_sections_found": ResumeSections(user.Resume),
	})
}

func (a *Agents) ProjectSuggestion(ctx context.Context, rec RoutingRecord) ChatMessage {
	ex := rec.ExtractedData
	user := a.userContext(ctx, rec)

	var sb strings.Builder
	a.writeHeader(&sb, rec)
	sb.WriteString("Skill Level: " + orText(string(ex.SkillLevel), "intermediate") + "\n")
	sb.WriteString("Requested Domain/Focus: " + orText(string(ex.Domain), "general") + "\n")
	if t := string(ex.Technology); t != "" {
		sb.WriteString("Technology: " + t + "\n")
	}
	writeContextBlock(&sb, "User Profile Data", user.Profile)
	writeContextBlock(&sb, "User Resume Data", user.Resume)
	if containsAnyTerm(rec.OriginalQuery, []string{"mba", "business masters", "business project", "masters in business"}) {
		sb.WriteString(businessProjectNote)
	}

	out, err := a.llm.Complete(ctx, sb.String(), projectSuggestionSystemPrompt)
	if err != nil {
		return a.llmFailure(rec, err)
	}
	return a.fmt.Message(TypeProjectSuggestion, out, map[string]any{
		"category":      CategoryProjectSuggestion,
		"skillLevel":    orText(string(ex.SkillLevel), "intermediate"),
		"technology":    orText(string(ex.Technology), "general"),
		"domain":        orText(string(ex.Domain), "general"),
		"originalQuery": rec.OriginalQuery,
		"language":      a.language(rec),
	})
}

func (a *Agents) ProfileInfo(ctx context.Context, rec RoutingRecord) ChatMessage {
	user := a.userContext(ctx, rec)

	var sb strings.Builder
	a.writeHeader(&sb, rec)
	if user.Profile == nil {
		sb.WriteString("Profile Data: Not available\n")
	}
	writeContextBlock(&sb, "Profile Data", user.Profile)
	if user.Resume == nil {
		sb.WriteString("Resume Data: Not available\n")
	}
	writeContextBlock(&sb, "Resume Data", user.Resume)

	out, err := a.llm.Complete(ctx, sb.String(), profileInfoSystemPrompt)
	if err != nil {
		return a.llmFailure(rec, err)
	}
	return a.fmt.Message(TypeProfileInfo, out, map[string]any{
		"category":    CategoryProfileInfo,
		"sessionId":   rec.SessionID,
		"has_profile": user.Profile != nil,
		"has_resume":  user.Resume != nil,
	})
}

// ResumeUpload prompts the client to start an upload; the upload itself is
// handled outside the chat flow.
func (a *Agents) ResumeUpload(_ context.Context, rec RoutingRecord) ChatMessage {
	lang := a.language(rec)
	return a.fmt.Message(TypeUploadRequired, localized(uploadPromptText, lang), map[string]any{
		"category":     CategoryResumeUpload,
		"needs_upload": true,
		"language":     lang,
	})
}

var greetings = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "namaste"}

// GeneralChat answers screening flags with a canned redirect and everything
// else with the model. Plain greetings skip the profile fetch.
func (a *Agents) GeneralChat(ctx context.Context, rec RoutingRecord) ChatMessage {
	ex := rec.ExtractedData
	for _, r := range redirectTexts {
		if r.get(ex) {
			return a.fmt.PlainText(r.text, map[string]any{
				"category": CategoryGeneralChat,
				"redirect": r.flag,
			})
		}
	}

	var sb strings.Builder
	sb.WriteString("Current User Query: " + rec.OriginalQuery + "\n")
	sb.WriteString("Language: " + a.language(rec) + "\n")
	if rec.ConversationContext != "" {
		sb.WriteString("Conversation History:\n" + rec.ConversationContext + "\n")
	}
	if !isGreeting(rec.OriginalQuery) {
		user := a.userContext(ctx, rec)
		writeContextBlock(&sb, "User Profile Context", user.Profile)
		writeContextBlock(&sb, "User Resume Context", user.Resume)
	}

	out, err := a.llm.Complete(ctx, sb.String(), generalChatSystemPrompt)
	if err != nil {
		return a.llmFailure(rec, err)
	}
	return a.fmt.PlainText(out, map[string]any{
		"category":  CategoryGeneralChat,
		"sessionId": rec.SessionID,
	})
}

func isGreeting(q string) bool {
	q = strings.TrimSpace(q)
	return len([]rune(q)) <= 30 && containsAnyTerm(q, greetings)
}

// AnalysisType names the kind of resume review a query asks for.
func AnalysisType(query string) string {
	switch {
	case containsAnyTerm(query, []string{"ats", "applicant tracking", "keyword"}):
		return "ats_optimization"
	case containsAnyTerm(query, []string{"format", "formatting", "structure", "layout"}):
		return "formatting"
	case containsAnyTerm(query, []string{"skill", "technical", "abilities"}):
		return "skills_review"
	case containsAnyTerm(query, []string{"experience", "work history", "achievement"}):
		return "experience_review"
	case containsAnyTerm(query, []string{"improve", "better", "enhance"}):
		return "improvement_suggestions"
	}
	return "comprehensive_analysis"
}

var resumeSectionKeys = []struct {
	section string
	keys    []string
}{
	{"experience", []string{"experience", "work_experience"}},
	{"skills", []string{"skills", "technical_skills"}},
	{"education", []string{"education"}},
	{"projects", []string{"projects"}},
	{"certifications", []string{"certifications"}},
	{"summary", []string{"summary", "objective"}},
}

// ResumeSections lists the standard sections present and non-empty in resume.
func ResumeSections(resume map[string]any) []string {
	out := []string{}
	for _, s := range resumeSectionKeys {
		for _, k := range s.keys {
			if present(resume[k]) {
				out = append(out, s.section)
				break
			}
		}
	}
	return out
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

func (a *Agents) userContext(ctx context.Context, rec RoutingRecord) *UserContext {
	if rec.User != nil {
		return rec.User
	}
	return FetchUserContext(ctx, a.api, rec.auth())
}

func (a *Agents) language(rec RoutingRecord) string {
	switch lang := strings.ToLower(strings.TrimSpace(string(rec.ExtractedData.Language))); lang {
	case LangEnglish, LangHindi, LangHinglish:
		return lang
	}
	return a.heuristics.Get().DetectLanguage(rec.OriginalQuery)
}

func (a *Agents) writeHeader(sb *strings.Builder, rec RoutingRecord) {
	sb.WriteString("User Query: " + rec.OriginalQuery + "\n")
	sb.WriteString("Language: " + a.language(rec) + "\n")
	if rec.ConversationContext != "" {
		sb.WriteString("Conversation History:\n" + rec.ConversationContext + "\n")
	}
}

func (a *Agents) llmFailure(rec RoutingRecord, err error) ChatMessage {
	slog.Error("assistant reply failed",
		slog.Any("error", err),
		slog.String("category", string(rec.Category)),
		slog.String("session", rec.SessionID))
	text, ok := llmFailureText[rec.Category]
	if !ok {
		text = llmFailureText[CategoryGeneralChat]
	}
	return a.fmt.Failure(text, ErrCodeLLM, map[string]any{
		"category": rec.Category,
		"details":  err.Error(),
	})
}

func orText(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
