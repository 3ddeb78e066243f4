// Package assistant talks to the hosted Gemini model that answers the admin's
// questions about booking data.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"naalli/internal/config"
	"naalli/internal/metrics"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

var (
	ErrMissingAPIKey = errors.New("assistant api key is required")
	ErrEmptyResponse = errors.New("assistant returned no text")
	ErrUnauthorized  = errors.New("assistant api key rejected")
)

// Client wraps the Gemini SDK with a request limiter.
type Client struct {
	genai       *genai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
}

func NewClient(ctx context.Context, cfg config.AssistantConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.BaseURL, "/")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RPM > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), 1)
	}

	return &Client{
		genai:       client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		limiter:     limiter,
	}, nil
}

// Generate sends prompt as a single user turn and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, prompt)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ObserveAssistant(result, time.Since(start))
	return text, err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	})
	if err != nil {
		return "", classify(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classify marks rejected credentials so the API can tell them apart from outages.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("assistant request failed: %w", err)
	}

	if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	}
	return fmt.Errorf("assistant request failed with status %d: %s", apiErr.Code, apiErr.Message)
}
