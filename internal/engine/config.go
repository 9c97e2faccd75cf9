package engine

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultAPIBaseURL is used when a request does not carry its own base URL.
const DefaultAPIBaseURL = "https://backend-v1.jobmato.com"

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string        `validate:"required,url"`
	LLMModel           string        `validate:"required"`
	LLMTemperature     float64       `validate:"gte=0,lte=2"`
	LLMMaxTokens       int           `validate:"gt=0"`
	LLMTimeout         time.Duration `validate:"gt=0"`

	APIBaseURL string        `validate:"required,url"`
	APITimeout time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"gte=0,lte=5"`

	RedisURL             string
	CacheMaxEntries      int `validate:"gte=0"`
	CacheCleanupInterval time.Duration
	SearchContextTTL     time.Duration `validate:"gt=0"`

	DatabaseURL       string // postgres conversation history; empty = disabled
	HistorySQLitePath string // local conversation history; used when DatabaseURL is empty
	HeuristicsFile    string // optional YAML override for keyword lists

	HTTPClient *http.Client `validate:"-"`
}

var validate = validator.New()

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
