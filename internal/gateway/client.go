// Package gateway provides the retrying client boundary between the journey
// engine and the external text-generation backend.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/leo-guinan/pathofgreatness/internal/costs"
	"github.com/leo-guinan/pathofgreatness/internal/fault"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// Prompt is one generation request: a system/user message pair plus sampling
// temperature.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// Result is a successful generation response with usage and cost attached.
type Result struct {
	Text    string
	Usage   models.Usage
	CostUSD float64
	Model   string
}

// Config holds gateway client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration // per-call timeout, not per-transition
	MaxRetries int
}

// Client calls the chat-completions endpoint with bounded retry and backoff.
// It is stateless between calls.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	timeout    time.Duration
	httpClient *http.Client
	pricing    *costs.Pricing

	// sleep is injectable so tests can assert the backoff schedule
	// without waiting it out.
	sleep func(time.Duration)

	callCounter  metric.Int64Counter
	tokenCounter metric.Int64Counter
	costCounter  metric.Float64Counter
}

// NewClient creates a gateway client.
func NewClient(cfg Config, pricing *costs.Pricing) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	meter := otel.Meter("github.com/leo-guinan/pathofgreatness/internal/gateway")
	callCounter, _ := meter.Int64Counter("generation.calls")
	tokenCounter, _ := meter.Int64Counter("generation.tokens")
	costCounter, _ := meter.Float64Counter("generation.cost_usd")

	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		maxRetries:   cfg.MaxRetries,
		timeout:      cfg.Timeout,
		httpClient:   &http.Client{},
		pricing:      pricing,
		sleep:        time.Sleep,
		callCounter:  callCounter,
		tokenCounter: tokenCounter,
		costCounter:  costCounter,
	}
}

// chatMessage is one message of the wire request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the wire request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatResponse is the wire response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *models.Usage `json:"usage"`
}

// Generate calls the backend, retrying transport-class failures with
// exponential backoff (1s, 2s, 4s). Non-retryable failures surface
// immediately. Cost is computed and attached only on success; a failed call
// bills nothing.
func (c *Client) Generate(ctx context.Context, prompt Prompt, maxTokens int) (*Result, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: prompt.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		result, err := c.attempt(ctx, body)
		if err == nil {
			c.callCounter.Add(ctx, 1)
			c.tokenCounter.Add(ctx, int64(result.Usage.PromptTokens+result.Usage.CompletionTokens))
			c.costCounter.Add(ctx, result.CostUSD)
			return result, nil
		}

		if !fault.IsKind(err, fault.KindGatewayTransient) {
			return nil, err
		}
		lastErr = err

		if attempt < c.maxRetries-1 {
			wait := time.Duration(1<<attempt) * time.Second
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("maxRetries", c.maxRetries).
				Dur("backoff", wait).
				Msg("Generation call failed, retrying")
			c.sleep(wait)
		}
	}

	return nil, fault.Wrap(fault.KindGatewayExhausted, lastErr,
		"generation failed after %d attempts", c.maxRetries)
}

// attempt performs a single call with the per-call timeout.
func (c *Client) attempt(ctx context.Context, body []byte) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fault.Wrap(fault.KindGatewayFatal, err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "https://greatness-path.app")
	req.Header.Set("X-Title", "The Greatness Path")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTransient(err) {
			return nil, fault.Wrap(fault.KindGatewayTransient, err, "transport failure")
		}
		return nil, fault.Wrap(fault.KindGatewayFatal, err, "request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.KindGatewayTransient, err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.New(fault.KindGatewayFatal,
			"backend returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fault.Wrap(fault.KindGatewayFatal, err, "malformed response body")
	}
	if len(decoded.Choices) == 0 {
		return nil, fault.New(fault.KindGatewayFatal, "response has no choices")
	}

	// Usage defaults to zeros when the backend omits it.
	usage := models.Usage{}
	if decoded.Usage != nil {
		usage = *decoded.Usage
	}

	return &Result{
		Text:    decoded.Choices[0].Message.Content,
		Usage:   usage,
		CostUSD: c.pricing.Cost(usage, c.model),
		Model:   c.model,
	}, nil
}

// isTransient classifies transport-class failures worth retrying: timeouts,
// connection resets, connect failures, and truncated responses. A canceled
// parent context is not transient.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// truncate shortens a string for log and error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
