package jobserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
)

// ClassifyInput is a message to classify without answering it.
type ClassifyInput struct {
	Query               string `json:"query" jsonschema:"The user's message to classify"`
	SessionID           string `json:"session_id,omitempty" jsonschema:"Conversation id (default: default)"`
	Token               string `json:"token,omitempty" jsonschema:"JobMato bearer token; when set the user's profile and resume inform the classification"`
	ConversationContext string `json:"conversation_context,omitempty" jsonschema:"Recent conversation as plain text"`
}

// ClassifyOutput is the routing record of a classified message.
type ClassifyOutput struct {
	Category      string         `json:"category"`
	Confidence    float64        `json:"confidence"`
	SearchQuery   string         `json:"search_query"`
	OriginalQuery string         `json:"original_query"`
	SessionID     string         `json:"session_id"`
	ExtractedData map[string]any `json:"extracted_data"`
	Error         string         `json:"error,omitempty"`
}

func classifyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "classify_query",
		Description: "Classify a career-assistant message into one of JOB_SEARCH, RESUME_ANALYSIS, CAREER_ADVICE, PROJECT_SUGGESTION, PROFILE_INFO, RESUME_UPLOAD, GENERAL_CHAT and return the extracted fields (job title, locations, skills, experience, salary, internship, language, screening flags). Does not run the handler.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}
}

func registerClassify(server *mcp.Server, svc ChatService) {
	mcp.AddTool(server, classifyTool(), classifyHandler(svc))
}

func classifyHandler(svc ChatService) mcp.ToolHandlerFor[ClassifyInput, *ClassifyOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, *ClassifyOutput, error) {
		if strings.TrimSpace(input.Query) == "" {
			return nil, nil, errors.New("query is required")
		}
		rec := svc.ClassifyAndRoute(ctx, chat.Request{
			Query:               input.Query,
			Token:               input.Token,
			SessionID:           input.SessionID,
			ConversationContext: input.ConversationContext,
		})
		return nil, classifyOutput(rec), nil
	}
}

func classifyOutput(rec chat.RoutingRecord) *ClassifyOutput {
	extracted := rec.ExtractedData.Raw
	if extracted == nil {
		extracted = map[string]any{}
	}
	return &ClassifyOutput{
		Category:      string(rec.Category),
		Confidence:    rec.Confidence,
		SearchQuery:   rec.SearchQuery,
		OriginalQuery: rec.OriginalQuery,
		SessionID:     rec.SessionID,
		ExtractedData: extracted,
		Error:         rec.Error,
	}
}
