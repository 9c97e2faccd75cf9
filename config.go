package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
	"github.com/anatolykoptev/go_jobmato/internal/engine/jobs"
	"github.com/anatolykoptev/go_jobmato/internal/engine/memory"
)

func loadConfig() engine.Config {
	return engine.Config{
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 4096),
		LLMTimeout:           env.Duration("LLM_TIMEOUT", 45*time.Second),
		APIBaseURL:           env.Str("JOBMATO_API_BASE_URL", engine.DefaultAPIBaseURL),
		APITimeout:           env.Duration("JOBMATO_API_TIMEOUT", 30*time.Second),
		MaxRetries:           env.Int("UPSTREAM_MAX_RETRIES", 2),
		RedisURL:             env.Str("REDIS_URL", ""),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		SearchContextTTL:     env.Duration("SEARCH_CONTEXT_TTL", chat.DefaultContextTTL),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		HistorySQLitePath:    env.Str("HISTORY_SQLITE_PATH", ""),
		HeuristicsFile:       env.Str("HEURISTICS_FILE", ""),
		HTTPClient: &http.Client{
			Timeout: 35 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

// app holds the wired assistant and everything that needs closing.
type app struct {
	router  *chat.Router
	cache   *engine.TieredCache
	history memory.Store
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		slog.Warn("history close failed", slog.Any("error", err))
	}
	if err := a.cache.Close(); err != nil {
		slog.Warn("cache close failed", slog.Any("error", err))
	}
}

// buildApp validates c and wires the chat router. The heuristics file, when
// set, is watched until ctx ends.
func buildApp(ctx context.Context, c engine.Config) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	heuristics := chat.StaticHeuristics(chat.DefaultHeuristics())
	if c.HeuristicsFile != "" {
		src, err := chat.NewHeuristicsSource(c.HeuristicsFile)
		if err != nil {
			return nil, err
		}
		if err := src.Watch(ctx); err != nil {
			slog.Warn("heuristics watch failed, changes need a restart", slog.Any("error", err))
		}
		heuristics = src
		slog.Info("heuristics loaded", slog.String("path", c.HeuristicsFile))
	}

	cache := engine.NewTieredCache(c.RedisURL, c.SearchContextTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	history := memory.Open(ctx, c.DatabaseURL, c.HistorySQLitePath)
	llm := engine.NewLLM(c)

	router := chat.NewRouter(chat.Deps{
		LLM:        llm,
		API:        jobs.NewClient(c.APIBaseURL, c.APITimeout, c.MaxRetries, c.HTTPClient),
		Sessions:   chat.NewCacheSessionStore(cache),
		History:    history,
		Heuristics: heuristics,
		Skills:     chat.NewLLMSkillInferrer(llm),
		BaseURL:    c.APIBaseURL,
		ContextTTL: c.SearchContextTTL,
	})
	return &app{router: router, cache: cache, history: history}, nil
}
