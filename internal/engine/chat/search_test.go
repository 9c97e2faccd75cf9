package chat

import (
	"context"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

func newTestSearcher(api *fakeAPI, sessions SessionStore) *Searcher {
	return NewSearcher(api, newTestBuilder(), sessions, StaticHeuristics(DefaultHeuristics()), time.Hour)
}

func searchRecord(extracted string) RoutingRecord {
	return ParseClassification(`{"category":"JOB_SEARCH","extractedData":`+extracted+`}`,
		Request{Query: "find me jobs", SessionID: "s1", Token: "tok"})
}

func TestMergeJobs(t *testing.T) {
	rec := func(ids ...string) []jobs.JobRecord { return jobs.NormalizeJobs(rawJobs("job", ids...)) }

	tests := []struct {
		name      string
		primary   []string
		broadened []string
		want      []string
	}{
		{"no overlap", []string{"a", "b"}, []string{"c", "d"}, []string{"a", "b", "c", "d"}},
		{"overlap skipped", []string{"a", "b"}, []string{"b", "c", "a", "d"}, []string{"a", "b", "c", "d"}},
		{"primary order kept", []string{"z", "a", "m"}, []string{"b"}, []string{"z", "a", "m", "b"}},
		{"capped", seq("p", 4), seq("b", 20), append(seq("p", 4), seq("b", 6)...)},
		{"empty broadened", []string{"a"}, nil, []string{"a"}},
		{"empty primary", nil, []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates within broadened kept", []string{"a"}, []string{"x", "x"}, []string{"a", "x", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeJobs(rec(tt.primary...), rec(tt.broadened...), MaxMergedJobs)
			assert.Equal(t, tt.want, idsOf(got))
		})
	}
}

func TestMergeJobs_EmptyIdentityNeverDeduped(t *testing.T) {
	noID := jobs.JobRecord{Title: "anonymous"}
	got := MergeJobs([]jobs.JobRecord{noID}, []jobs.JobRecord{noID, noID}, MaxMergedJobs)
	assert.Len(t, got, 3)
}

func TestMergeJobs_FallbackIdentity(t *testing.T) {
	primary := jobs.NormalizeJobs([]jobs.RawJob{{"job_id": "j1", "title": "A"}})
	broadened := jobs.NormalizeJobs([]jobs.RawJob{{"id": "j1", "title": "A again"}, {"id": "j2"}})
	got := MergeJobs(primary, broadened, MaxMergedJobs)
	assert.Equal(t, []string{"j1", "j2"}, idsOf(got))
	assert.Equal(t, "A", got[0].Title)
}

// Scenario B: a sparse primary result is topped up from the broadened search.
func TestSearch_BroadensSparseResults(t *testing.T) {
	api := &fakeAPI{results: []*jobs.SearchResult{
		{Jobs: rawJobs("primary", "p1", "p2", "p3"), Total: 3},
		{Jobs: rawJobs("broad", "b1", "p2", "b2", "p3", "b3", "b4", "b5", "b6", "b7", "b8"), Total: 40},
	}}
	s := newTestSearcher(api, NewMemorySessionStore())

	msg := s.Search(context.Background(), searchRecord(`{"job_title":"Obscure Title X","locations":"Pune"}`))

	require.Equal(t, 2, api.searchCount())
	assert.Equal(t, "Obscure Title X", api.searches[0].JobTitle)
	assert.Empty(t, api.searches[1].JobTitle)
	assert.Equal(t, api.searches[0].Skills, api.searches[1].Skills)
	assert.NotEmpty(t, api.searches[1].Skills)

	assert.Equal(t, TypeJobCard, msg.Type)
	got := msg.Metadata["jobs"].([]jobs.JobRecord)
	require.Len(t, got, 10)
	assert.Equal(t, []string{"p1", "p2", "p3"}, idsOf(got[:3]))
	assert.Equal(t, []string{"b1", "b2", "b3", "b4", "b5", "b6", "b7"}, idsOf(got[3:]))
	assert.Equal(t, true, msg.Metadata["broadened"])
	assert.Equal(t, 3, msg.Metadata["primaryCount"])
	assert.Equal(t, 7, msg.Metadata["broadenedCount"])
}

func TestSearch_SufficientSkipsBroadening(t *testing.T) {
	api := &fakeAPI{results: []*jobs.SearchResult{{Jobs: rawJobs("p", seq("p", 10)...), Total: 57}}}
	sessions := NewMemorySessionStore()
	s := newTestSearcher(api, sessions)

	msg := s.Search(context.Background(), searchRecord(`{"job_title":"Go Developer","skills":"Go"}`))

	assert.Equal(t, 1, api.searchCount())
	assert.Len(t, msg.Metadata["jobs"], 10)
	assert.Equal(t, 57, msg.Metadata["totalJobs"])
	assert.Equal(t, true, msg.Metadata["hasMore"])
	assert.Equal(t, 1, msg.Metadata["currentPage"])
	assert.Equal(t, false, msg.Metadata["broadened"])

	sc, err := sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, 57, sc.TotalAvailable)
	assert.Equal(t, 1, sc.CurrentPage)
	assert.Equal(t, "Go Developer", sc.Params.JobTitle)
	assert.Equal(t, "find me jobs", sc.Query)
}

func TestSearch_QueryFallsBackToSearchQuery(t *testing.T) {
	api := &fakeAPI{results: []*jobs.SearchResult{{Jobs: rawJobs("p", seq("p", 10)...), Total: 10}}}
	rec := ParseClassification(`{"category":"JOB_SEARCH","extractedData":{},"searchQuery":"golang jobs remote"}`,
		Request{Query: "any golang work?"})

	newTestSearcher(api, nil).Search(context.Background(), rec)
	assert.Equal(t, "golang jobs remote", api.searches[0].Query)
}

// Scenario C: an unrealistic location is answered without any upstream call.
func TestSearch_UnrealisticLocation(t *testing.T) {
	for _, loc := range []string{"Mars", "the MOON", "Outer Space station", "Hogwarts, Scotland"} {
		t.Run(loc, func(t *testing.T) {
			api := &fakeAPI{profile: map[string]any{"name": "x"}}
			rec := searchRecord(`{"job_title":"Engineer"}`)
			rec.ExtractedData.Locations = FlexString(loc)

			msg := newTestSearcher(api, NewMemorySessionStore()).Search(context.Background(), rec)

			assert.Zero(t, api.searchCount())
			assert.Zero(t, api.profileCalls)
			assert.Equal(t, ErrCodeUnrealisticLocation, msg.Metadata["error"])
			assert.NotEmpty(t, msg.Content)
		})
	}
}

func TestSearch_RealLocationsPass(t *testing.T) {
	for _, loc := range []string{"Sunnyvale", "Marseille", "Mumbai", "Moonee Ponds"} {
		h := DefaultHeuristics()
		_, bad := h.UnrealisticLocation(loc)
		assert.False(t, bad, loc)
	}
}

func TestSearch_NoResults(t *testing.T) {
	api := &fakeAPI{}
	msg := newTestSearcher(api, NewMemorySessionStore()).
		Search(context.Background(), searchRecord(`{"job_title":"Underwater Basket Weaver","locations":"Pune"}`))

	assert.Equal(t, 2, api.searchCount())
	assert.Equal(t, TypeJobCard, msg.Type)
	assert.Empty(t, msg.Metadata["jobs"])
	assert.Equal(t, false, msg.Metadata["hasMore"])
	suggestions, ok := msg.Metadata["suggestions"].([]string)
	require.True(t, ok)
	assert.NotEmpty(t, suggestions)
	assert.Contains(t, msg.Content, "Underwater Basket Weaver")
}

func TestSearch_ErrorTaxonomy(t *testing.T) {
	timeoutErr := &jobs.APIError{Kind: jobs.KindTimeout, Endpoint: "/api/rag/jobs", Err: context.DeadlineExceeded}
	connErr := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	apiErr := &jobs.APIError{Kind: jobs.KindAPI, Endpoint: "/api/rag/jobs", StatusCode: 500, Err: assert.AnError}

	tests := []struct {
		name      string
		errs      []error
		results   []*jobs.SearchResult
		wantCode  string
		wantStage string
		wantCalls int
	}{
		{"primary timeout", []error{timeoutErr}, nil, ErrCodeTimeout, "primary", 1},
		{"primary connection", []error{connErr}, nil, ErrCodeConnection, "primary", 1},
		{"primary api", []error{apiErr}, nil, ErrCodeAPI, "primary", 1},
		{
			name:      "broadened failure surfaces",
			errs:      []error{nil, timeoutErr},
			results:   []*jobs.SearchResult{{Jobs: rawJobs("p", "p1"), Total: 1}},
			wantCode:  ErrCodeTimeout,
			wantStage: "broadened",
			wantCalls: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{errs: tt.errs, results: tt.results}
			sessions := NewMemorySessionStore()
			msg := newTestSearcher(api, sessions).Search(context.Background(), searchRecord(`{"job_title":"Go Developer"}`))

			assert.Equal(t, tt.wantCalls, api.searchCount())
			assert.Equal(t, TypePlainText, msg.Type)
			assert.Equal(t, tt.wantCode, msg.Metadata["error"])
			assert.Equal(t, tt.wantStage, msg.Metadata["stage"])

			sc, _ := sessions.Get(context.Background(), "s1")
			assert.Nil(t, sc, "failed searches must not store context")
		})
	}
}

func TestSearch_ContextStoreFailureIsBestEffort(t *testing.T) {
	api := &fakeAPI{results: []*jobs.SearchResult{{Jobs: rawJobs("p", seq("p", 10)...), Total: 30}}}
	msg := newTestSearcher(api, failingSessions{}).Search(context.Background(), searchRecord(`{"skills":"Go"}`))

	assert.Equal(t, TypeJobCard, msg.Type)
	assert.Len(t, msg.Metadata["jobs"], 10)
}

func TestSearch_PrimaryEmptyStoresBroadenedContext(t *testing.T) {
	api := &fakeAPI{results: []*jobs.SearchResult{
		{Total: 0},
		{Jobs: rawJobs("b", seq("b", 10)...), Total: 25},
	}}
	sessions := NewMemorySessionStore()
	msg := newTestSearcher(api, sessions).Search(context.Background(), searchRecord(`{"job_title":"Obscure Title X"}`))

	sc, err := sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Empty(t, sc.Params.JobTitle)
	assert.Equal(t, 25, sc.TotalAvailable)

	shown, ok := msg.Metadata["searchParams"].(jobs.SearchParams)
	require.True(t, ok)
	assert.Equal(t, sc.Params, shown, "searchParams describes the broadened list")
}

// Load-more with no stored context tells the user to search first.
func TestLoadMore_WithoutContext(t *testing.T) {
	for name, store := range map[string]SessionStore{
		"empty store":   NewMemorySessionStore(),
		"failing store": failingSessions{},
		"no store":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{}
			s := newTestSearcher(api, store)
			msg := s.LoadMore(context.Background(), RoutingRecord{SessionID: "nobody"}, 2)

			assert.Zero(t, api.searchCount())
			assert.Equal(t, ErrCodeNoContext, msg.Metadata["error"])
			assert.Contains(t, msg.Content, "perform a new search")
		})
	}
}

func TestLoadMore_Pagination(t *testing.T) {
	api := &fakeAPI{results: []*jobs.SearchResult{
		{Jobs: rawJobs("p", seq("p", 10)...), Total: 25},
		{Jobs: rawJobs("q", seq("q", 10)...), Total: 25},
		{Jobs: rawJobs("r", seq("r", 5)...), Total: 25},
	}}
	sessions := NewMemorySessionStore()
	s := newTestSearcher(api, sessions)
	ctx := context.Background()

	first := s.Search(ctx, searchRecord(`{"job_title":"Go Developer","locations":"Pune"}`))
	require.Equal(t, true, first.Metadata["hasMore"])

	second := s.LoadMore(ctx, RoutingRecord{SessionID: "s1", Token: "tok"}, 0)
	require.Equal(t, 2, api.searchCount())
	assert.Equal(t, 2, api.searches[1].Page)
	assert.Equal(t, "Go Developer", api.searches[1].JobTitle)
	assert.Equal(t, "Pune", api.searches[1].Locations)
	assert.Equal(t, 2, second.Metadata["currentPage"])
	assert.Equal(t, true, second.Metadata["hasMore"])

	third := s.LoadMore(ctx, RoutingRecord{SessionID: "s1", Token: "tok"}, -1)
	assert.Equal(t, 3, api.searches[2].Page)
	assert.Equal(t, 3, third.Metadata["currentPage"])
	assert.Equal(t, false, third.Metadata["hasMore"])
	assert.Len(t, third.Metadata["jobs"], 5)

	sc, _ := sessions.Get(ctx, "s1")
	assert.Equal(t, 3, sc.CurrentPage)
}

func TestLoadMore_ExplicitPage(t *testing.T) {
	sessions := NewMemorySessionStore()
	require.NoError(t, sessions.SetWithTTL(context.Background(), "s1", SearchContext{
		Params:         jobs.SearchParams{Skills: "Go", Limit: 10, Page: 1},
		TotalAvailable: 100,
		CurrentPage:    1,
	}, time.Hour))
	api := &fakeAPI{results: []*jobs.SearchResult{{Jobs: rawJobs("x", seq("x", 10)...)}}}

	msg := newTestSearcher(api, sessions).LoadMore(context.Background(), RoutingRecord{SessionID: "s1"}, 7)

	assert.Equal(t, 7, api.searches[0].Page)
	assert.Equal(t, 100, msg.Metadata["totalJobs"])
	assert.Equal(t, true, msg.Metadata["hasMore"])
}

func TestLoadMore_EmptyPage(t *testing.T) {
	sessions := NewMemorySessionStore()
	_ = sessions.SetWithTTL(context.Background(), "s1", SearchContext{
		Params: jobs.SearchParams{Limit: 10}, TotalAvailable: 100, CurrentPage: 4,
	}, time.Hour)
	api := &fakeAPI{}

	msg := newTestSearcher(api, sessions).LoadMore(context.Background(), RoutingRecord{SessionID: "s1"}, 0)

	assert.Equal(t, 5, api.searches[0].Page)
	assert.Equal(t, false, msg.Metadata["hasMore"])
	assert.Contains(t, msg.Content, "no more jobs")
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	s := NewMemorySessionStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.SetWithTTL(ctx, "s1", SearchContext{CurrentPage: 2}, time.Minute))
	sc, _ := s.Get(ctx, "s1")
	require.NotNil(t, sc)

	now = now.Add(2 * time.Minute)
	sc, _ = s.Get(ctx, "s1")
	assert.Nil(t, sc)
}
