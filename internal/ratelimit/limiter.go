// Package ratelimit enforces the request and token ceilings of quota-bound
// providers.
//
// A Limiter tracks two windows: requests in the current minute and
// estimated tokens in the current day. When the minute ceiling is reached,
// Reserve blocks until the minute rolls over (at most one minute). When the
// daily ceiling would be passed, Reserve fails at once with a
// *domain.QuotaExceededError; a spent daily quota is never waited out.
//
// Counters are process-local. There is no coordination between processes.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

const (
	minuteWindow = time.Minute
	dayWindow    = 24 * time.Hour
)

// Config holds the ceilings of one provider. A non-positive ceiling disables
// that check.
type Config struct {
	// RequestsPerMinute is the maximum number of reservations per minute.
	RequestsPerMinute int

	// TokensPerDay is the maximum number of estimated tokens per day.
	TokensPerDay int

	// Provider names the limited service in errors and logs.
	Provider string
}

// DefaultConfig returns the Gemini free-tier ceilings.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: domain.DefaultRequestsPerMinute,
		TokensPerDay:      domain.DefaultTokensPerDay,
		Provider:          string(domain.AIProviderGemini),
	}
}

// SleepFunc waits for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithSleep replaces the blocking wait.
func WithSleep(sleep SleepFunc) Option {
	return func(l *Limiter) {
		l.sleep = sleep
	}
}

// Limiter is safe for concurrent use. Callers that arrive while another
// caller is blocked on the minute window queue behind it.
type Limiter struct {
	cfg   Config
	now   func() time.Time
	sleep SleepFunc

	mu          sync.Mutex
	requests    int
	tokens      int
	minuteStart time.Time
	dayStart    time.Time
}

// New creates a Limiter whose windows start now.
func New(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		cfg:   cfg,
		now:   time.Now,
		sleep: contextSleep,
	}
	for _, opt := range opts {
		opt(l)
	}

	start := l.now()
	l.minuteStart = start
	l.dayStart = start
	return l
}

// Reserve accounts one request of the given estimated size.
//
// It blocks while the per-minute ceiling is reached and returns ctx.Err()
// if the context ends first. It returns a *domain.QuotaExceededError
// without blocking if the tokens would pass the daily ceiling; the
// counters are left untouched in that case.
func (l *Limiter) Reserve(ctx context.Context, tokens int) error {
	if tokens < 0 {
		tokens = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindows(now)

	if l.quotaExceeded(tokens) {
		return l.quotaError(tokens)
	}

	if l.cfg.RequestsPerMinute > 0 && l.requests >= l.cfg.RequestsPerMinute {
		wait := minuteWindow - now.Sub(l.minuteStart)
		if wait > 0 {
			logger.Debug("%s: %d requests this minute, waiting %s", l.cfg.Provider, l.requests, wait.Round(time.Second))
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
		l.requests = 0
		l.minuteStart = l.now()
	}

	l.requests++
	l.tokens += tokens
	return nil
}

// rollWindows resets any window that has elapsed by strictly more than its length.
func (l *Limiter) rollWindows(now time.Time) {
	if now.Sub(l.minuteStart) > minuteWindow {
		l.requests = 0
		l.minuteStart = now
	}
	if now.Sub(l.dayStart) > dayWindow {
		l.tokens = 0
		l.dayStart = now
	}
}

func (l *Limiter) quotaExceeded(tokens int) bool {
	return l.cfg.TokensPerDay > 0 && l.tokens+tokens > l.cfg.TokensPerDay
}

func (l *Limiter) quotaError(tokens int) error {
	return &domain.QuotaExceededError{
		Provider:  l.cfg.Provider,
		Limit:     l.cfg.TokensPerDay,
		Used:      l.tokens,
		Requested: tokens,
	}
}

// Usage is a snapshot of the limiter's counters.
type Usage struct {
	RequestsThisMinute int
	TokensToday        int
	MinuteStart        time.Time
	DayStart           time.Time
	Config             Config
}

// Quota converts the snapshot for reporting outside the limiter.
func (u Usage) Quota() domain.QuotaUsage {
	return domain.QuotaUsage{
		Provider:           u.Config.Provider,
		RequestsThisMinute: u.RequestsThisMinute,
		TokensToday:        u.TokensToday,
		TokensPerDay:       u.Config.TokensPerDay,
	}
}

// Usage returns the current counters.
func (l *Limiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Usage{
		RequestsThisMinute: l.requests,
		TokensToday:        l.tokens,
		MinuteStart:        l.minuteStart,
		DayStart:           l.dayStart,
		Config:             l.cfg,
	}
}

// EstimateTokens approximates the token cost of text by its word count.
func EstimateTokens(text string) int {
	return len(strings.Fields(text))
}

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
