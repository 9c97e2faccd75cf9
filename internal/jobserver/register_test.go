package jobserver

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

type fakeService struct {
	handled  []chat.Request
	loaded   []int
	cleared  []string
	clearErr error
	rec      chat.RoutingRecord
}

func (f *fakeService) Handle(_ context.Context, req chat.Request) chat.ChatMessage {
	f.handled = append(f.handled, req)
	return chat.ChatMessage{Type: chat.TypePlainText, Content: "reply to " + req.Query}
}

func (f *fakeService) LoadMore(_ context.Context, req chat.Request, page int) chat.ChatMessage {
	f.loaded = append(f.loaded, page)
	return chat.ChatMessage{Type: chat.TypeJobCard, Metadata: map[string]any{"session": req.SessionID}}
}

func (f *fakeService) ClassifyAndRoute(_ context.Context, req chat.Request) chat.RoutingRecord {
	rec := f.rec
	rec.OriginalQuery = req.Query
	return rec
}

func (f *fakeService) ClearHistory(_ context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return f.clearErr
}

func TestRegisterTools(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "dev"}, nil)
	assert.NotPanics(t, func() { RegisterTools(server, &fakeService{}) })
}

// Only classification leaves session state untouched.
func TestToolAnnotations(t *testing.T) {
	readOnly := func(tool *mcp.Tool) bool {
		return tool.Annotations != nil && tool.Annotations.ReadOnlyHint
	}
	assert.True(t, readOnly(classifyTool()))
	assert.False(t, readOnly(chatMessageTool()))
	assert.False(t, readOnly(loadMoreTool()), "load more advances the stored page")
	assert.False(t, readOnly(clearHistoryTool()))
}

func TestChatMessageHandler(t *testing.T) {
	svc := &fakeService{}
	h := chatMessageHandler(svc)

	_, out, err := h(context.Background(), nil, ChatMessageInput{Message: "find go jobs", SessionID: "s1", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "reply to find go jobs", out.Content)
	require.Len(t, svc.handled, 1)
	assert.Equal(t, "s1", svc.handled[0].SessionID)
	assert.Equal(t, "tok", svc.handled[0].Token)

	_, _, err = h(context.Background(), nil, ChatMessageInput{Message: "   "})
	assert.Error(t, err)
	assert.Len(t, svc.handled, 1)
}

func TestLoadMoreHandler(t *testing.T) {
	svc := &fakeService{}
	h := loadMoreHandler(svc)

	_, out, err := h(context.Background(), nil, LoadMoreInput{SessionID: "s2"})
	require.NoError(t, err)
	assert.Equal(t, chat.TypeJobCard, out.Type)
	assert.Equal(t, "s2", out.Metadata["session"])
	assert.Equal(t, []int{0}, svc.loaded)

	_, _, err = h(context.Background(), nil, LoadMoreInput{Page: -1})
	assert.Error(t, err)
}

func TestClassifyHandler(t *testing.T) {
	svc := &fakeService{rec: chat.RoutingRecord{
		Category:   chat.CategoryJobSearch,
		Confidence: 0.9,
		SessionID:  "default",
	}}
	h := classifyHandler(svc)

	_, out, err := h(context.Background(), nil, ClassifyInput{Query: "python internships"})
	require.NoError(t, err)
	assert.Equal(t, "JOB_SEARCH", out.Category)
	assert.Equal(t, "python internships", out.OriginalQuery)
	assert.NotNil(t, out.ExtractedData)

	_, _, err = h(context.Background(), nil, ClassifyInput{})
	assert.Error(t, err)
}

func TestClearHistoryHandler(t *testing.T) {
	svc := &fakeService{}
	h := clearHistoryHandler(svc)

	_, out, err := h(context.Background(), nil, ClearHistoryInput{SessionID: "s3"})
	require.NoError(t, err)
	assert.True(t, out.Cleared)
	assert.Equal(t, []string{"s3"}, svc.cleared)

	_, _, err = h(context.Background(), nil, ClearHistoryInput{})
	assert.Error(t, err)

	svc.clearErr = errors.New("db down")
	_, _, err = h(context.Background(), nil, ClearHistoryInput{SessionID: "s3"})
	assert.Error(t, err)
}

type stubLLM string

func (s stubLLM) Complete(context.Context, string, string) (string, error) { return string(s), nil }

type stubAPI struct{}

func (stubAPI) SearchJobs(context.Context, jobs.Auth, jobs.SearchParams) (*jobs.SearchResult, error) {
	return &jobs.SearchResult{}, nil
}
func (stubAPI) GetProfile(context.Context, jobs.Auth) (map[string]any, error) { return nil, nil }
func (stubAPI) GetResume(context.Context, jobs.Auth) (map[string]any, error)  { return nil, nil }

func TestClassifyHandler_WithRouter(t *testing.T) {
	router := chat.NewRouter(chat.Deps{
		LLM:    stubLLM(`{"category":"CAREER_ADVICE","confidence":0.7,"extractedData":{"career_stage":"student"}}`),
		API:    stubAPI{},
		Skills: chat.NoSkillInferrer{},
	})

	_, out, err := classifyHandler(router)(context.Background(), nil, ClassifyInput{Query: "should I do an MBA?"})
	require.NoError(t, err)
	assert.Equal(t, "CAREER_ADVICE", out.Category)
	assert.InDelta(t, 0.7, out.Confidence, 1e-9)
	assert.Equal(t, "student", out.ExtractedData["career_stage"])
	assert.Equal(t, chat.DefaultSessionID, out.SessionID)
	assert.Empty(t, out.Error)
}
