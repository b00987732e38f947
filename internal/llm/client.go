package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mxchai/bullbear/config"
)

// GenerateOptions carries the per-call generation parameters.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Client is a retrying wrapper around an eino chat model. It is constructed
// once at process start and passed by reference to every component that
// issues generation calls; components never reach for a shared global.
type Client struct {
	model      model.BaseChatModel
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

func NewClient(m model.BaseChatModel, cfg *config.Config) *Client {
	return &Client{
		model:      m,
		maxRetries: cfg.LLMMaxRetries,
		retryDelay: cfg.LLMRetryDelay,
		timeout:    cfg.LLMTimeout,
	}
}

// Generate runs one chat completion with a bounded per-attempt timeout.
// Timeouts and transport failures are retried a fixed number of times with
// a fixed delay between attempts; once the budget is exhausted the last
// error is returned and the caller substitutes its fallback value.
func (c *Client) Generate(ctx context.Context, messages []*schema.Message, opts GenerateOptions) (string, error) {
	callOpts := []model.Option{}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, model.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(opts.MaxTokens))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[llm] generation failed (attempt %d/%d): %v, retrying in %v",
				attempt, c.maxRetries+1, lastErr, c.retryDelay)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		msg, err := c.model.Generate(attemptCtx, messages, callOpts...)
		cancel()
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if msg == nil || msg.Content == "" {
			lastErr = fmt.Errorf("model returned empty content")
			continue
		}
		return msg.Content, nil
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", c.maxRetries+1, lastErr)
}
