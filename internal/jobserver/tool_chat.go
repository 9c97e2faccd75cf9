package jobserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
)

// ChatMessageInput is one user turn.
type ChatMessageInput struct {
	Message             string `json:"message" jsonschema:"The user's message, in English, Hindi or Hinglish"`
	SessionID           string `json:"session_id,omitempty" jsonschema:"Conversation id; search context and history are kept per session (default: default)"`
	Token               string `json:"token,omitempty" jsonschema:"JobMato bearer token of the user, used for profile, resume and job search"`
	BaseURL             string `json:"base_url,omitempty" jsonschema:"JobMato API base URL override"`
	ConversationContext string `json:"conversation_context,omitempty" jsonschema:"Recent conversation as plain text; loaded from stored history when empty"`
}

// LoadMoreInput requests another page of the session's last search.
type LoadMoreInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Conversation id of the earlier search (default: default)"`
	Token     string `json:"token,omitempty" jsonschema:"JobMato bearer token of the user"`
	BaseURL   string `json:"base_url,omitempty" jsonschema:"JobMato API base URL override"`
	Page      int    `json:"page,omitempty" jsonschema:"Page to fetch; 0 means the page after the last one shown"`
}

// ClearHistoryInput names the session to forget.
type ClearHistoryInput struct {
	SessionID string `json:"session_id" jsonschema:"Conversation id whose history should be deleted"`
}

// ClearHistoryOutput confirms a cleared session.
type ClearHistoryOutput struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}

func chatMessageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "chat_message",
		Description: "Send a message to the JobMato career assistant. The message is classified (job search, resume analysis, career advice, project suggestion, profile info, resume upload, general chat) and answered by the matching handler. Job searches return job cards with pagination metadata; sparse results are broadened automatically.",
	}
}

func registerChatMessage(server *mcp.Server, svc ChatService) {
	mcp.AddTool(server, chatMessageTool(), chatMessageHandler(svc))
}

func chatMessageHandler(svc ChatService) mcp.ToolHandlerFor[ChatMessageInput, *chat.ChatMessage] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChatMessageInput) (*mcp.CallToolResult, *chat.ChatMessage, error) {
		if strings.TrimSpace(input.Message) == "" {
			return nil, nil, errors.New("message is required")
		}
		msg := svc.Handle(ctx, chat.Request{
			Query:               input.Message,
			Token:               input.Token,
			SessionID:           input.SessionID,
			BaseURL:             input.BaseURL,
			ConversationContext: input.ConversationContext,
		})
		return nil, &msg, nil
	}
}

func loadMoreTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "load_more_jobs",
		Description: "Fetch the next page of the last job search in a session, reusing its stored search parameters without reclassifying. Fails with no_search_context when the session has no recent search.",
	}
}

func registerLoadMore(server *mcp.Server, svc ChatService) {
	mcp.AddTool(server, loadMoreTool(), loadMoreHandler(svc))
}

func loadMoreHandler(svc ChatService) mcp.ToolHandlerFor[LoadMoreInput, *chat.ChatMessage] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LoadMoreInput) (*mcp.CallToolResult, *chat.ChatMessage, error) {
		if input.Page < 0 {
			return nil, nil, errors.New("page must not be negative")
		}
		msg := svc.LoadMore(ctx, chat.Request{
			Token:     input.Token,
			SessionID: input.SessionID,
			BaseURL:   input.BaseURL,
		}, input.Page)
		return nil, &msg, nil
	}
}

func clearHistoryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "clear_chat_history",
		Description: "Delete the stored conversation history of a session.",
	}
}

func registerClearHistory(server *mcp.Server, svc ChatService) {
	mcp.AddTool(server, clearHistoryTool(), clearHistoryHandler(svc))
}

func clearHistoryHandler(svc ChatService) mcp.ToolHandlerFor[ClearHistoryInput, *ClearHistoryOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ClearHistoryInput) (*mcp.CallToolResult, *ClearHistoryOutput, error) {
		if input.SessionID == "" {
			return nil, nil, errors.New("session_id is required")
		}
		if err := svc.ClearHistory(ctx, input.SessionID); err != nil {
			return nil, nil, err
		}
		return nil, &ClearHistoryOutput{SessionID: input.SessionID, Cleared: true}, nil
	}
}
