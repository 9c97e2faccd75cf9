package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

const (
	// SparseThreshold is the primary result count below which a broadened
	// search runs.
	SparseThreshold = 10
	// MaxMergedJobs caps the combined primary and broadened list.
	MaxMergedJobs = 10
)

// Searcher runs job searches and keeps the per-session search context.
type Searcher struct {
	api        JobAPI
	builder    *ParamBuilder
	sessions   SessionStore
	heuristics *HeuristicsSource
	fmt        Formatter
	ttl        time.Duration
	now        func() time.Time
}

// NewSearcher wires a Searcher. A zero ttl uses DefaultContextTTL.
func NewSearcher(api JobAPI, builder *ParamBuilder, sessions SessionStore, h *HeuristicsSource, ttl time.Duration) *Searcher {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &Searcher{
		api:        api,
		builder:    builder,
		sessions:   sessions,
		heuristics: h,
		fmt:        NewFormatter(),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Search validates the location, runs the primary search, broadens it when
// results are sparse, and stores the context for load-more.
func (s *Searcher) Search(ctx context.Context, rec RoutingRecord) ChatMessage {
	ex := rec.ExtractedData
	h := s.heuristics.Get()

	if loc := ex.LocationText(); loc != "" {
		if term, bad := h.UnrealisticLocation(loc); bad {
			engine.IncrRejectedLocations()
			slog.Info("search rejected: unrealistic location",
				slog.String("location", loc),
				slog.String("term", term),
				slog.String("session", rec.SessionID))
			return s.fmt.Failure(unrealisticLocationText(loc), ErrCodeUnrealisticLocation, map[string]any{
				"location": loc,
				"jobs":     []jobs.JobRecord{},
			})
		}
	}

	user := rec.User
	if user == nil {
		user = FetchUserContext(ctx, s.api, rec.auth())
	}
	params := s.builder.Build(ctx, ex, user.Profile, user.Resume)
	if params.Query == "" {
		params.Query = firstNonEmpty(rec.SearchQuery, rec.OriginalQuery)
	}

	engine.IncrPrimarySearches()
	primary, err := s.api.SearchJobs(ctx, rec.auth(), params)
	if err != nil {
		return s.searchFailure(rec, err, "primary")
	}
	records := jobs.NormalizeJobs(primary.Jobs)
	stored := SearchContext{
		Params:         params,
		TotalAvailable: max(primary.Total, len(records)),
		CurrentPage:    params.Page,
		Query:          params.Query,
	}
	meta := JobMeta{PrimaryCount: len(records)}

	if len(records) < SparseThreshold {
		bp := s.builder.BuildBroadened(ctx, ex, params)
		engine.IncrBroadenedSearches()
		broad, err := s.api.SearchJobs(ctx, rec.auth(), bp)
		if err != nil {
			return s.searchFailure(rec, err, "broadened")
		}
		broadRecords := jobs.NormalizeJobs(broad.Jobs)
		merged := MergeJobs(records, broadRecords, MaxMergedJobs)
		if len(merged) == 0 {
			return s.fmt.Message(TypeJobCard, noResultsText(params), map[string]any{
				"jobs":         []jobs.JobRecord{},
				"totalJobs":    0,
				"hasMore":      false,
				"searchQuery":  params.Query,
				"searchParams": params,
				"suggestions":  noResultsSuggestions(params),
			})
		}
		meta.Broadened = len(merged) > len(records)
		meta.BroadenedCount = len(merged) - len(records)
		// With nothing from the primary search, load-more continues the broad one.
		if len(records) == 0 {
			stored.Params = bp
			stored.TotalAvailable = max(broad.Total, len(merged))
			stored.CurrentPage = bp.Page
		}
		records = merged
	}

	stored.UpdatedAt = s.now()
	s.storeContext(ctx, firstNonEmpty(rec.SessionID, DefaultSessionID), stored)

	meta.TotalAvailable = stored.TotalAvailable
	meta.CurrentPage = stored.CurrentPage
	meta.HasMore = hasMore(stored.TotalAvailable, stored.CurrentPage, stored.Params.Limit)
	meta.SearchQuery = stored.Query
	meta.Params = stored.Params
	meta.Context = &stored
	return s.fmt.JobResults(records, meta)
}

// LoadMore fetches another page of the session's last search. page <= 0 means
// the page after the one last shown.
func (s *Searcher) LoadMore(ctx context.Context, rec RoutingRecord, page int) ChatMessage {
	engine.IncrLoadMoreRequests()
	sessionID := firstNonEmpty(rec.SessionID, DefaultSessionID)

	var sc *SearchContext
	if s.sessions != nil {
		var err error
		if sc, err = s.sessions.Get(ctx, sessionID); err != nil {
			slog.Warn("load more: context unavailable", slog.Any("error", err), slog.String("session", sessionID))
			sc = nil
		}
	}
	if sc == nil {
		return s.fmt.Failure(searchFirstText, ErrCodeNoContext, map[string]any{"hasMore": false})
	}
	if page <= 0 {
		page = sc.CurrentPage + 1
	}

	params := sc.Params.Clone()
	params.Page = page
	res, err := s.api.SearchJobs(ctx, rec.auth(), params)
	if err != nil {
		return s.searchFailure(rec, err, "load_more")
	}
	records := jobs.NormalizeJobs(res.Jobs)

	if res.Total > 0 {
		sc.TotalAvailable = res.Total
	}
	sc.CurrentPage = page
	sc.UpdatedAt = s.now()
	s.storeContext(ctx, sessionID, *sc)

	return s.fmt.JobResults(records, JobMeta{
		TotalAvailable: sc.TotalAvailable,
		CurrentPage:    page,
		HasMore:        len(records) > 0 && hasMore(sc.TotalAvailable, page, params.Limit),
		SearchQuery:    sc.Query,
		Params:         params,
		Context:        sc,
		LoadMore:       true,
	})
}

// MergeJobs keeps every primary job in order, then appends the broadened jobs
// whose identity does not occur among the primary ones, capped at limit. Jobs
// without an identity are never treated as duplicates.
func MergeJobs(primary, broadened []jobs.JobRecord, limit int) []jobs.JobRecord {
	if limit <= 0 {
		limit = MaxMergedJobs
	}
	out := make([]jobs.JobRecord, 0, min(limit, len(primary)+len(broadened)))
	seen := make(map[string]bool, len(primary))
	for _, j := range primary {
		if len(out) == limit {
			return out
		}
		if j.ID != "" {
			seen[j.ID] = true
		}
		out = append(out, j)
	}
	for _, j := range broadened {
		if len(out) == limit {
			break
		}
		if j.ID != "" && seen[j.ID] {
			continue
		}
		out = append(out, j)
	}
	return out
}

func (s *Searcher) storeContext(ctx context.Context, sessionID string, sc SearchContext) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.SetWithTTL(ctx, sessionID, sc, s.ttl); err != nil {
		engine.IncrContextStoreFailures()
		slog.Warn("search context not stored", slog.Any("error", err), slog.String("session", sessionID))
	}
}

func (s *Searcher) searchFailure(rec RoutingRecord, err error, stage string) ChatMessage {
	text, code, retryable := searchErrorReply(err)
	slog.Error("job search failed",
		slog.Any("error", err),
		slog.String("stage", stage),
		slog.String("kind", jobs.KindOf(err).String()),
		slog.String("session", rec.SessionID))
	return s.fmt.Failure(text, code, map[string]any{
		"retryable": retryable,
		"stage":     stage,
		"details":   err.Error(),
		"jobs":      []jobs.JobRecord{},
	})
}

func hasMore(total, page, limit int) bool {
	if limit <= 0 {
		limit = jobs.DefaultLimit
	}
	return total > page*limit
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
