// Package httpapi is the JSON-over-HTTP transport shared by the provider
// adapters. It throttles requests, retries transient failures and maps
// HTTP status codes to domain errors.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Default transport values.
const (
	DefaultTimeout  = 120 * time.Second
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond

	// maxErrorBody bounds how much of an error response is kept in messages.
	maxErrorBody = 512
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRequestsPerMinute throttles requests to a steady rate with a burst of one.
// Non-positive values disable throttling.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		}
	}
}

// WithRetry sets the attempt count and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
	}
}

// Client sends JSON requests for one provider.
type Client struct {
	provider string
	http     *http.Client
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// New creates a client for the named provider.
func New(provider string, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		http:     &http.Client{Timeout: DefaultTimeout},
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in errors.
func (c *Client) Provider() string {
	return c.provider
}

// PostJSON sends body as JSON and decodes a successful response into out.
func (c *Client) PostJSON(ctx context.Context, op, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return c.providerError(op, 0, fmt.Errorf("marshal request: %w", err))
	}
	return c.do(ctx, op, http.MethodPost, url, headers, payload, out)
}

// GetJSON sends a GET request and decodes a successful response into out.
// A nil out discards the body.
func (c *Client) GetJSON(ctx context.Context, op, url string, headers map[string]string, out any) error {
	return c.do(ctx, op, http.MethodGet, url, headers, nil, out)
}

func (c *Client) do(
	ctx context.Context, op, method, url string, headers map[string]string, payload []byte, out any,
) error {
	var lastErr error
	err := retry.Do(
		func() error {
			if err := c.wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			lastErr = c.send(ctx, op, method, url, headers, payload, out)
			if lastErr != nil && !retryable(lastErr) {
				return retry.Unrecoverable(lastErr)
			}
			return lastErr
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("%s %s: attempt %d failed: %v", c.provider, op, n+1, err)
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}

func (c *Client) send(
	ctx context.Context, op, method, url string, headers map[string]string, payload []byte, out any,
) error {
	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return c.providerError(op, 0, fmt.Errorf("create request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.providerError(op, 0, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.providerError(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if err := c.checkStatus(op, resp, body); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.providerError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// checkStatus maps a non-2xx response to a domain error.
func (c *Client) checkStatus(op string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := truncate(string(bytes.TrimSpace(body)), maxErrorBody)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		c.backoff(retryAfter)
		return &domain.RateLimitError{
			Provider:   c.provider,
			RetryAfter: retryAfter,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, msg),
		}
	}
	return c.providerError(op, resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
}

func (c *Client) providerError(op string, status int, err error) error {
	return &domain.ProviderError{Provider: c.provider, Op: op, StatusCode: status, Err: err}
}

// wait blocks for the throttle and any pending Retry-After backoff.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	retryAt := c.retryAt
	c.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		logger.Debug("%s: honouring Retry-After, waiting %s", c.provider, d.Round(time.Second))
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// backoff delays later requests when the provider asked for a pause.
func (c *Client) backoff(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryAt = time.Now().Add(d)
}

// retryable reports whether a failed request may succeed when repeated.
// Rate limits and client errors are final.
func retryable(err error) bool {
	if domain.IsRateLimited(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode == 0 || pe.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
