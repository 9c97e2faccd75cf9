package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

// DefaultContextTTL is how long a search stays resumable for load-more.
const DefaultContextTTL = time.Hour

// SearchContext is the per-session state that load-more resumes from.
type SearchContext struct {
	Params         jobs.SearchParams `json:"search_params"`
	TotalAvailable int               `json:"total_available"`
	CurrentPage    int               `json:"current_page"`
	Query          string            `json:"query"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// SessionStore keeps one SearchContext per session. Get returns nil, nil when
// nothing is stored. Writes are last-write-wins.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*SearchContext, error)
	SetWithTTL(ctx context.Context, sessionID string, sc SearchContext, ttl time.Duration) error
}

// CacheSessionStore persists contexts in the tiered cache.
type CacheSessionStore struct {
	cache *engine.TieredCache
}

func NewCacheSessionStore(cache *engine.TieredCache) *CacheSessionStore {
	return &CacheSessionStore{cache: cache}
}

func searchContextKey(sessionID string) string {
	return engine.CacheKey("search_context", sessionID)
}

func (s *CacheSessionStore) Get(ctx context.Context, sessionID string) (*SearchContext, error) {
	if s == nil || s.cache == nil {
		return nil, errors.New("search context: no cache")
	}
	data, ok := s.cache.Get(ctx, searchContextKey(sessionID))
	if !ok {
		return nil, nil
	}
	var sc SearchContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("search context: decode: %w", err)
	}
	return &sc, nil
}

func (s *CacheSessionStore) SetWithTTL(ctx context.Context, sessionID string, sc SearchContext, ttl time.Duration) error {
	if s == nil || s.cache == nil {
		return errors.New("search context: no cache")
	}
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("search context: encode: %w", err)
	}
	return s.cache.SetWithTTL(ctx, searchContextKey(sessionID), data, ttl)
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu    sync.Mutex
	items map[string]memoryContext
	now   func() time.Time
}

type memoryContext struct {
	sc      SearchContext
	expires time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{items: map[string]memoryContext{}, now: time.Now}
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*SearchContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[sessionID]
	if !ok {
		return nil, nil
	}
	if s.now().After(it.expires) {
		delete(s.items, sessionID)
		return nil, nil
	}
	sc := it.sc
	sc.Params = it.sc.Params.Clone()
	return &sc, nil
}

func (s *MemorySessionStore) SetWithTTL(_ context.Context, sessionID string, sc SearchContext, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc.Params = sc.Params.Clone()
	s.items[sessionID] = memoryContext{sc: sc, expires: s.now().Add(ttl)}
	return nil
}
