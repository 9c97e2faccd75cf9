//go:build integration

package jobs

import (
	"context"
	"os"
	"testing"
	"time"
)

// Live tests against the JobMato backend. Run with
//
//	JOBMATO_TOKEN=... go test -tags integration ./internal/engine/jobs/
func liveClient(t *testing.T) (*Client, Auth) {
	t.Helper()
	token := os.Getenv("JOBMATO_TOKEN")
	if token == "" {
		t.Skip("JOBMATO_TOKEN not set")
	}
	return NewClient(os.Getenv("JOBMATO_API_BASE_URL"), 30*time.Second, 2, nil), Auth{Token: token}
}

func TestIntegration_SearchJobs(t *testing.T) {
	c, auth := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := c.SearchJobs(ctx, auth, SearchParams{
		JobTitle:  "Software Engineer",
		Locations: "Bengaluru",
		Limit:     10,
		Page:      1,
	})
	if err != nil {
		t.Fatalf("SearchJobs error: %v", err)
	}
	t.Logf("total=%d returned=%d in %s", res.Total, len(res.Jobs), res.ResponseTime)

	for i, r := range NormalizeJobs(res.Jobs) {
		if i >= 3 {
			break
		}
		if r.Title == "" {
			t.Errorf("job %d has no title: %+v", i, r)
		}
		t.Logf("  %s | %s | %s", r.Title, r.Company, r.Location)
	}
}

func TestIntegration_Internships(t *testing.T) {
	c, auth := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := c.SearchJobs(ctx, auth, SearchParams{
		Skills:     "python",
		JobType:    "internship",
		Internship: BoolPtr(true),
		Limit:      10,
		Page:       1,
	})
	if err != nil {
		t.Fatalf("SearchJobs error: %v", err)
	}
	t.Logf("internships: total=%d returned=%d", res.Total, len(res.Jobs))
}

func TestIntegration_ProfileAndResume(t *testing.T) {
	c, auth := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	profile, err := c.GetProfile(ctx, auth)
	if err != nil {
		t.Logf("profile unavailable: %v", err)
	} else {
		t.Logf("profile keys: %d", len(profile))
	}

	resume, err := c.GetResume(ctx, auth)
	if err != nil {
		t.Logf("resume unavailable: %v", err)
	} else {
		t.Logf("resume keys: %d", len(resume))
	}
}

func TestIntegration_BadToken(t *testing.T) {
	c, _ := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := c.SearchJobs(ctx, Auth{Token: "invalid-token"}, SearchParams{JobTitle: "Engineer", Limit: 1, Page: 1})
	if err == nil {
		t.Skip("backend accepted an invalid token")
	}
	if KindOf(err) != KindAPI {
		t.Errorf("kind = %v, want %v (err: %v)", KindOf(err), KindAPI, err)
	}
}
