package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// ErrEmptyCompletion is returned when the model answers with nothing.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// LLM is the text-completion client used by the classifier and the agents.
// Each attempt is bounded by its own timeout; timeouts and connection failures
// are retried per RetryConfig.
type LLM struct {
	client  *llm.Client
	timeout time.Duration
	retry   RetryConfig
}

// NewLLM builds an OpenAI-compatible completion client from c.
func NewLLM(c Config) *LLM {
	timeout := c.LLMTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	rc := DefaultRetryConfig
	rc.MaxRetries = c.MaxRetries

	client := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: timeout + 5*time.Second}),
	)
	return &LLM{client: client, timeout: timeout, retry: rc}
}

// Complete sends prompt with the given system message and returns the raw text.
func (l *LLM) Complete(ctx context.Context, prompt, system string) (string, error) {
	return l.complete(ctx, func(ctx context.Context) (string, error) {
		return l.client.Complete(ctx, system, prompt)
	})
}

// CompleteShort is Complete with a low token budget and temperature, for
// single-line answers such as skill lists.
func (l *LLM) CompleteShort(ctx context.Context, prompt, system string) (string, error) {
	return l.complete(ctx, func(ctx context.Context) (string, error) {
		return l.client.Complete(ctx, system, prompt,
			llm.WithChatTemperature(0.3),
			llm.WithChatMaxTokens(120),
		)
	})
}

func (l *LLM) complete(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	var out string
	err := TrackOperation(ctx, "llm_complete", func(ctx context.Context) error {
		var err error
		out, err = RetryDo(ctx, l.retry, func() (string, error) {
			metrics.LLMCalls.Add(1)
			attemptCtx, cancel := context.WithTimeout(ctx, l.timeout)
			defer cancel()
			resp, err := call(attemptCtx)
			if err != nil {
				metrics.LLMErrors.Add(1)
				if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
					return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
				}
				return "", err
			}
			return resp, nil
		})
		return err
	})
	if err != nil {
		slog.Warn("llm: completion failed", slog.Any("error", err))
		return "", fmt.Errorf("llm: complete: %w", err)
	}
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
