// Package memory keeps per-session conversation history so handlers can see
// the last few turns of a dialogue.
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
)

// Roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// History limits.
const (
	MaxMessagesPerSession = 20 // 10 exchanges
	ContextMessages       = 3
	ContextMessageRunes   = 200
	SessionIdleTimeout    = 24 * time.Hour
)

// Message is one stored dialogue turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation history keyed by session id.
type Store interface {
	// Append adds msgs to the session, trimming the oldest beyond MaxMessagesPerSession.
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	// Recent returns up to n most recent messages, oldest first.
	Recent(ctx context.Context, sessionID string, n int) ([]Message, error)
	// Clear deletes the session's history.
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// FormatContext renders msgs as "Role: content" lines, each message capped at
// ContextMessageRunes and the whole block at maxRunes.
func FormatContext(msgs []Message, maxRunes int) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := m.Role
		if role != "" {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		lines = append(lines, role+": "+engine.TruncateRunes(content, ContextMessageRunes, "..."))
	}
	out := strings.Join(lines, "\n")
	if maxRunes > 0 {
		out = engine.TruncateRunes(out, maxRunes, "...")
	}
	return out
}

// Turn builds the user+assistant pair for one exchange.
func Turn(userText, assistantText, assistantType string) []Message {
	now := time.Now().UTC()
	return []Message{
		{Role: RoleUser, Content: userText, CreatedAt: now},
		{Role: RoleAssistant, Content: assistantText, Type: assistantType, CreatedAt: now},
	}
}
