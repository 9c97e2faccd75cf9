package jobserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
)

// ChatService is the conversation layer the tools delegate to.
// *chat.Router implements it.
type ChatService interface {
	Handle(ctx context.Context, req chat.Request) chat.ChatMessage
	LoadMore(ctx context.Context, req chat.Request, page int) chat.ChatMessage
	ClassifyAndRoute(ctx context.Context, req chat.Request) chat.RoutingRecord
	ClearHistory(ctx context.Context, sessionID string) error
}

// RegisterTools registers the chat tools on the given MCP server:
// chat_message, load_more_jobs, classify_query, clear_chat_history.
func RegisterTools(server *mcp.Server, svc ChatService) {
	registerChatMessage(server, svc)
	registerLoadMore(server, svc)
	registerClassify(server, svc)
	registerClearHistory(server, svc)
}

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 4
