package memory

import (
	"context"
	"log/slog"
)

// Open picks the history backend: postgres when databaseURL is set, otherwise
// SQLite at sqlitePath when set, otherwise process memory. A backend that fails
// to open degrades to the next one.
func Open(ctx context.Context, databaseURL, sqlitePath string) Store {
	if databaseURL != "" {
		s, err := ConnectPostgres(ctx, databaseURL)
		if err == nil {
			return s
		}
		slog.Warn("history: postgres init failed", slog.Any("error", err))
	}
	if sqlitePath != "" {
		s, err := OpenSQLite(sqlitePath)
		if err == nil {
			slog.Info("history: sqlite opened", slog.String("path", sqlitePath))
			return s
		}
		slog.Warn("history: sqlite init failed", slog.Any("error", err))
	}
	slog.Info("history: using in-memory store")
	return NewInMemoryStore()
}
