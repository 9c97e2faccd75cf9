package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
	"github.com/cenkalti/backoff/v5"
)

// Upstream endpoints.
const (
	jobsPath    = "/api/rag/jobs"
	profilePath = "/api/rag/profile"
	resumePath  = "/api/rag/resume"
)

const maxBodyBytes = 8 << 20

// Auth identifies the caller and the backend it belongs to.
type Auth struct {
	Token   string
	BaseURL string // empty = client default
}

// RawJob is a job object exactly as the upstream returned it.
type RawJob = map[string]any

// SearchResult is the decoded body of a job search.
type SearchResult struct {
	Jobs         []RawJob
	Total        int
	ResponseTime time.Duration
}

// Client talks to the JobMato backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
}

// NewClient creates a backend client. timeout bounds each attempt; maxRetries
// counts additional attempts for timeouts and connection failures only.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = engine.DefaultAPIBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// SearchJobs runs GET /api/rag/jobs with p.
func (c *Client) SearchJobs(ctx context.Context, auth Auth, p SearchParams) (*SearchResult, error) {
	start := time.Now()
	body, err := c.get(ctx, auth, jobsPath, p.Values().Encode())
	if err != nil {
		return nil, err
	}
	res, err := decodeSearch(body)
	if err != nil {
		return nil, classify(jobsPath, &APIError{Kind: KindDecode, Endpoint: jobsPath, Err: err})
	}
	res.ResponseTime = time.Since(start)
	slog.Debug("jobs: search done",
		slog.Int("jobs", len(res.Jobs)),
		slog.Int("total", res.Total),
		slog.Duration("elapsed", res.ResponseTime))
	return res, nil
}

// GetProfile fetches the caller's profile.
func (c *Client) GetProfile(ctx context.Context, auth Auth) (map[string]any, error) {
	return c.getObject(ctx, auth, profilePath)
}

// GetResume fetches the caller's parsed resume.
func (c *Client) GetResume(ctx context.Context, auth Auth) (map[string]any, error) {
	return c.getObject(ctx, auth, resumePath)
}

func (c *Client) getObject(ctx context.Context, auth Auth, path string) (map[string]any, error) {
	body, err := c.get(ctx, auth, path, "")
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, classify(path, &APIError{Kind: KindDecode, Endpoint: path, Err: err})
	}
	if inner, ok := obj["data"].(map[string]any); ok && len(obj) <= 3 {
		obj = inner
	}
	return obj, nil
}

// get performs an authenticated GET with retry on timeouts and connection failures.
// Non-2xx responses are permanent.
func (c *Client) get(ctx context.Context, auth Auth, path, rawQuery string) ([]byte, error) {
	base := c.baseURL
	if auth.BaseURL != "" {
		base = strings.TrimRight(auth.BaseURL, "/")
	}
	target := base + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	operation := func() ([]byte, error) {
		engine.IncrUpstreamRequests()
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if auth.Token != "" {
			req.Header.Set("Authorization", "Bearer "+auth.Token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if engine.IsRetryable(err) && ctx.Err() == nil {
				slog.Debug("jobs: transient failure", slog.String("path", path), slog.Any("error", err))
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			if engine.IsTimeout(err) && ctx.Err() == nil {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, backoff.Permanent(&APIError{
				Kind:       KindAPI,
				Endpoint:   path,
				StatusCode: resp.StatusCode,
				Err:        errors.New(engine.TruncateRunes(strings.TrimSpace(string(body)), 200, "...")),
			})
		}
		return body, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithMaxElapsedTime(time.Duration(c.maxRetries+1)*c.timeout+10*time.Second),
	)
	if err != nil {
		err = classify(path, err)
		slog.Warn("jobs: request failed",
			slog.String("path", path),
			slog.String("token", engine.MaskToken(auth.Token)),
			slog.Any("error", err))
		return nil, err
	}
	return body, nil
}

// decodeSearch accepts {jobs,total}, {data:{jobs,total}} and {data:[...]} bodies.
func decodeSearch(body []byte) (*SearchResult, error) {
	var envelope struct {
		Jobs  []RawJob        `json:"jobs"`
		Total *int            `json:"total"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	jobs, total := envelope.Jobs, envelope.Total
	if jobs == nil && len(envelope.Data) > 0 {
		var inner struct {
			Jobs  []RawJob `json:"jobs"`
			Total *int     `json:"total"`
		}
		if err := json.Unmarshal(envelope.Data, &inner); err == nil {
			jobs = inner.Jobs
			if inner.Total != nil {
				total = inner.Total
			}
		} else {
			var list []RawJob
			if err := json.Unmarshal(envelope.Data, &list); err != nil {
				return nil, fmt.Errorf("decode search data: %w", err)
			}
			jobs = list
		}
	}

	res := &SearchResult{Jobs: jobs, Total: len(jobs)}
	if total != nil && *total >= len(jobs) {
		res.Total = *total
	}
	return res, nil
}
