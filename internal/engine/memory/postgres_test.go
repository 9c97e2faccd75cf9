//go:build integration

package memory

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestIntegration_PostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s, err := ConnectPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("ConnectPostgres: %v", err)
	}
	defer s.Close()

	session := "itest-" + time.Now().Format("150405.000")
	defer s.Clear(ctx, session) //nolint:errcheck

	if err := s.Append(ctx, session, Turn("hello", "hi there", "plain_text")...); err != nil {
		t.Fatalf("Append: %v", err)
	}
	msgs, err := s.Recent(ctx, session, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Content != "hi there" {
		t.Errorf("unexpected history: %+v", msgs)
	}
}
