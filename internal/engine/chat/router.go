package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
	"github.com/anatolykoptev/go_jobmato/internal/engine/memory"
)

// maxConversationContext bounds the history block attached to a record.
const maxConversationContext = 1000

// Deps are the collaborators of a Router. Only LLM and API are required.
type Deps struct {
	LLM        Completer
	API        JobAPI
	Sessions   SessionStore
	History    memory.Store
	Heuristics *HeuristicsSource
	Skills     SkillInferrer
	BaseURL    string
	ContextTTL time.Duration
}

// Router classifies messages and dispatches them to the matching handler.
type Router struct {
	classifier *Classifier
	searcher   *Searcher
	agents     *Agents
	history    memory.Store
	baseURL    string
	fmt        Formatter
}

func NewRouter(d Deps) *Router {
	if d.Heuristics == nil {
		d.Heuristics = StaticHeuristics(DefaultHeuristics())
	}
	if d.Sessions == nil {
		d.Sessions = NewMemorySessionStore()
	}
	if d.Skills == nil {
		d.Skills = NewLLMSkillInferrer(d.LLM)
	}
	if d.BaseURL == "" {
		d.BaseURL = engine.DefaultAPIBaseURL
	}
	builder := NewParamBuilder(d.Skills, d.Heuristics)
	return &Router{
		classifier: NewClassifier(d.LLM, d.API),
		searcher:   NewSearcher(d.API, builder, d.Sessions, d.Heuristics, d.ContextTTL),
		agents:     NewAgents(d.LLM, d.API, d.Heuristics),
		history:    d.History,
		baseURL:    d.BaseURL,
		fmt:        NewFormatter(),
	}
}

func (r *Router) normalize(req Request) Request {
	if req.BaseURL == "" {
		req.BaseURL = r.baseURL
	}
	return withRequestDefaults(req)
}

// ClassifyAndRoute classifies req and returns the routing record. It never
// fails; an unusable classification yields a GENERAL_CHAT record.
func (r *Router) ClassifyAndRoute(ctx context.Context, req Request) RoutingRecord {
	req = r.normalize(req)
	if req.ConversationContext == "" {
		req.ConversationContext = r.loadHistory(ctx, req.SessionID)
	}
	req.ConversationContext = engine.TruncateRunes(req.ConversationContext, maxConversationContext, "...")

	raw, user := r.classifier.Classify(ctx, req)
	rec := ParseClassification(raw, req)
	rec.User = user

	slog.Info("message classified",
		slog.String("category", string(rec.Category)),
		slog.Float64("confidence", rec.Confidence),
		slog.String("session", rec.SessionID),
		slog.String("token", engine.MaskToken(rec.Token)))
	return rec
}

// Handle runs one full chat turn: classify, dispatch, record history.
func (r *Router) Handle(ctx context.Context, req Request) ChatMessage {
	engine.IncrChatRequests()
	rec := r.ClassifyAndRoute(ctx, req)
	msg := r.Dispatch(ctx, rec)
	r.remember(ctx, rec.SessionID, rec.OriginalQuery, msg)
	return msg
}

// Dispatch sends rec to the handler for its category. A handler panic becomes
// an error reply.
func (r *Router) Dispatch(ctx context.Context, rec RoutingRecord) (msg ChatMessage) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("handler panic",
				slog.String("category", string(rec.Category)),
				slog.Any("panic", p),
				slog.String("session", rec.SessionID))
			msg = r.fmt.Failure(internalErrorText, ErrCodeInternal, map[string]any{
				"category": rec.Category,
				"details":  fmt.Sprint(p),
			})
		}
	}()

	switch rec.Category {
	case CategoryJobSearch:
		return r.searcher.Search(ctx, rec)
	case CategoryResumeAnalysis:
		return r.agents.ResumeAnalysis(ctx, rec)
	case CategoryCareerAdvice:
		return r.agents.CareerAdvice(ctx, rec)
	case CategoryProjectSuggestion:
		return r.agents.ProjectSuggestion(ctx, rec)
	case CategoryProfileInfo:
		return r.agents.ProfileInfo(ctx, rec)
	case CategoryResumeUpload:
		return r.agents.ResumeUpload(ctx, rec)
	default:
		return r.agents.GeneralChat(ctx, rec)
	}
}

// Search runs the job search for an already classified record.
func (r *Router) Search(ctx context.Context, rec RoutingRecord) ChatMessage {
	return r.searcher.Search(ctx, rec)
}

// LoadMore pages the session's last search without reclassifying.
func (r *Router) LoadMore(ctx context.Context, req Request, page int) ChatMessage {
	req = r.normalize(req)
	rec := baseRecord(req)
	msg := r.searcher.LoadMore(ctx, rec, page)
	r.remember(ctx, req.SessionID, "load more (page "+pageLabel(page)+")", msg)
	return msg
}

// ClearHistory forgets the session's conversation history.
func (r *Router) ClearHistory(ctx context.Context, sessionID string) error {
	if r.history == nil {
		return nil
	}
	return r.history.Clear(ctx, sessionID)
}

func pageLabel(page int) string {
	if page <= 0 {
		return "next"
	}
	return fmt.Sprint(page)
}

func (r *Router) loadHistory(ctx context.Context, sessionID string) string {
	if r.history == nil {
		return ""
	}
	msgs, err := r.history.Recent(ctx, sessionID, memory.ContextMessages)
	if err != nil {
		slog.Warn("history unavailable", slog.Any("error", err), slog.String("session", sessionID))
		return ""
	}
	return memory.FormatContext(msgs, maxConversationContext)
}

func (r *Router) remember(ctx context.Context, sessionID, userText string, msg ChatMessage) {
	if r.history == nil || strings.TrimSpace(userText) == "" {
		return
	}
	if err := r.history.Append(ctx, sessionID, memory.Turn(userText, msg.Content, msg.Type)...); err != nil {
		slog.Warn("history not saved", slog.Any("error", err), slog.String("session", sessionID))
	}
}
