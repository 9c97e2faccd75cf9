package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

// maxContextRunes bounds each serialized profile/resume block in a prompt.
const maxContextRunes = 3000

// Classifier asks the model to categorize a message.
type Classifier struct {
	llm Completer
	api ContextProvider
}

// NewClassifier returns a Classifier. api may be nil, in which case no user
// context is sent to the model.
func NewClassifier(llm Completer, api ContextProvider) *Classifier {
	return &Classifier{llm: llm, api: api}
}

// Classify returns the model's raw classification text and the user context it
// fetched along the way. A model failure yields a default GENERAL_CHAT object.
func (c *Classifier) Classify(ctx context.Context, req Request) (string, *UserContext) {
	engine.IncrClassifications()
	user := FetchUserContext(ctx, c.api, jobs.Auth{Token: req.Token, BaseURL: req.BaseURL})

	var sb strings.Builder
	sb.WriteString("User Query: ")
	sb.WriteString(req.Query)
	sb.WriteString("\n")
	writeContextBlock(&sb, "User Profile Context", user.Profile)
	writeContextBlock(&sb, "User Resume Context", user.Resume)

	raw, err := c.llm.Complete(ctx, sb.String(), classifierSystemPrompt)
	if err != nil {
		slog.Error("classification failed",
			slog.Any("error", err),
			slog.String("session", req.SessionID))
		return defaultClassification(req.Query), user
	}
	return raw, user
}

// FetchUserContext loads profile and resume concurrently. Failures are logged
// and leave the corresponding field nil.
func FetchUserContext(ctx context.Context, api ContextProvider, auth jobs.Auth) *UserContext {
	user := &UserContext{}
	if api == nil {
		return user
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := api.GetProfile(gctx, auth)
		if err != nil {
			slog.Debug("profile unavailable", slog.Any("error", err), slog.String("token", engine.MaskToken(auth.Token)))
			return nil
		}
		user.Profile = usable(p)
		return nil
	})
	g.Go(func() error {
		r, err := api.GetResume(gctx, auth)
		if err != nil {
			slog.Debug("resume unavailable", slog.Any("error", err), slog.String("token", engine.MaskToken(auth.Token)))
			return nil
		}
		user.Resume = usable(r)
		return nil
	})
	_ = g.Wait()
	return user
}

// usable drops empty payloads and ones the backend flagged with an error key.
func usable(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	if e, ok := m["error"]; ok && e != nil && e != false {
		return nil
	}
	return m
}

func writeContextBlock(sb *strings.Builder, label string, data map[string]any) {
	if data == nil {
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(engine.TruncateRunes(string(b), maxContextRunes, "..."))
	sb.WriteString("\n")
}
