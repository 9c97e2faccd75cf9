package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
)

// fakeLLM answers every completion with fn, counting calls.
type fakeLLM struct {
	mu    sync.Mutex
	calls int
	last  struct{ prompt, system string }
	fn    func(prompt, system string) (string, error)
}

func replyLLM(text string) *fakeLLM {
	return &fakeLLM{fn: func(string, string) (string, error) { return text, nil }}
}

func failingLLM(err error) *fakeLLM {
	return &fakeLLM{fn: func(string, string) (string, error) { return "", err }}
}

func (f *fakeLLM) Complete(_ context.Context, prompt, system string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.last.prompt, f.last.system = prompt, system
	f.mu.Unlock()
	return f.fn(prompt, system)
}

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeAPI serves scripted search results in call order.
type fakeAPI struct {
	mu       sync.Mutex
	results  []*jobs.SearchResult
	errs     []error
	searches []jobs.SearchParams
	profile  map[string]any
	resume   map[string]any

	profileCalls int
}

func (f *fakeAPI) SearchJobs(_ context.Context, _ jobs.Auth, p jobs.SearchParams) (*jobs.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.searches)
	f.searches = append(f.searches, p.Clone())
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return &jobs.SearchResult{}, nil
}

func (f *fakeAPI) GetProfile(context.Context, jobs.Auth) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	if f.profile == nil {
		return nil, errors.New("no profile")
	}
	return f.profile, nil
}

func (f *fakeAPI) GetResume(context.Context, jobs.Auth) (map[string]any, error) {
	if f.resume == nil {
		return nil, errors.New("no resume")
	}
	return f.resume, nil
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

// rawJobs builds upstream jobs with the given ids.
func rawJobs(prefix string, ids ...string) []jobs.RawJob {
	out := make([]jobs.RawJob, 0, len(ids))
	for _, id := range ids {
		out = append(out, jobs.RawJob{"_id": id, "title": fmt.Sprintf("%s %s", prefix, id), "company": "Acme"})
	}
	return out
}

func idsOf(records []jobs.JobRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func seq(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

// failingSessions rejects every write.
type failingSessions struct{}

func (failingSessions) Get(context.Context, string) (*SearchContext, error) {
	return nil, errors.New("cache down")
}

func (failingSessions) SetWithTTL(context.Context, string, SearchContext, time.Duration) error {
	return errors.New("cache down")
}
