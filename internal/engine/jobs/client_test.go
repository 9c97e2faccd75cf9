package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchJobs_EncodesParamsAndAuth(t *testing.T) {
	var gotQuery, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[{"_id":"a1","job_title":"Go Developer"}],"total":42}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 2, nil)
	res, err := c.SearchJobs(context.Background(), Auth{Token: "tok-123"}, SearchParams{
		JobTitle:   "Go Developer",
		Skills:     "Go, Kubernetes",
		SalaryMin:  IntPtr(500000),
		Internship: BoolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/rag/jobs", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Contains(t, gotQuery, "job_title=Go+Developer")
	assert.Contains(t, gotQuery, "salary_min=500000")
	assert.Contains(t, gotQuery, "internship=false")
	assert.Contains(t, gotQuery, "limit=10")
	assert.Contains(t, gotQuery, "page=1")
	assert.NotContains(t, gotQuery, "experience_min")

	require.Len(t, res.Jobs, 1)
	assert.Equal(t, 42, res.Total)
}

func TestSearchJobs_DataWrapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"jobs":[{"_id":"1"},{"_id":"2"}],"total":2}}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second, 0, nil).SearchJobs(context.Background(), Auth{}, SearchParams{})
	require.NoError(t, err)
	assert.Len(t, res.Jobs, 2)
	assert.Equal(t, 2, res.Total)
}

func TestSearchJobs_BaseURLOverride(t *testing.T) {
	var hit atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
		_, _ = w.Write([]byte(`{"jobs":[]}`))
	}))
	defer srv.Close()

	c := NewClient("http://127.0.0.1:1", time.Second, 0, nil)
	_, err := c.SearchJobs(context.Background(), Auth{BaseURL: srv.URL + "/"}, SearchParams{})
	require.NoError(t, err)
	assert.True(t, hit.Load())
}

func TestSearchJobs_StatusErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 2, nil).SearchJobs(context.Background(), Auth{}, SearchParams{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindAPI, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSearchJobs_MalformedBodyIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, 2, nil).SearchJobs(context.Background(), Auth{}, SearchParams{})
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestSearchJobs_TimeoutRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 50*time.Millisecond, 2, nil).SearchJobs(context.Background(), Auth{}, SearchParams{})
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSearchJobs_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second, 1, nil).SearchJobs(context.Background(), Auth{}, SearchParams{})
	require.Error(t, err)
	assert.True(t, IsConnection(err), "got %v", err)
}

func TestGetProfile_UnwrapsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rag/profile", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"name":"Asha","skills":["Go"]}}`))
	}))
	defer srv.Close()

	profile, err := NewClient(srv.URL, time.Second, 0, nil).GetProfile(context.Background(), Auth{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", profile["name"])
}

func TestSearchParamsClone(t *testing.T) {
	p := SearchParams{ExperienceMin: IntPtr(2), Internship: BoolPtr(true)}
	c := p.Clone()
	*c.ExperienceMin = 9
	*c.Internship = false
	assert.Equal(t, 2, *p.ExperienceMin)
	assert.True(t, *p.Internship)
}
