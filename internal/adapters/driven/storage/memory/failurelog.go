package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// Ensure FailureLog implements the interface.
var _ driven.FailureLog = (*FailureLog)(nil)

// FailureLog is an in-memory implementation of driven.FailureLog.
type FailureLog struct {
	mu       sync.RWMutex
	failures []domain.Failure
}

// NewFailureLog creates an empty in-memory failure log.
func NewFailureLog() *FailureLog {
	return &FailureLog{}
}

// Record appends a failure.
func (l *FailureLog) Record(_ context.Context, failure domain.Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, failure)
	return nil
}

// Recent returns up to limit failures, newest first. A limit <= 0 returns all.
func (l *FailureLog) Recent(_ context.Context, limit int) ([]domain.Failure, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.failures)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Failure, 0, n)
	for i := len(l.failures) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.failures[i])
	}
	return out, nil
}

// All returns every failure in recording order.
func (l *FailureLog) All() []domain.Failure {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Failure, len(l.failures))
	copy(out, l.failures)
	return out
}

// Path returns where the log is persisted.
func (l *FailureLog) Path() string {
	return ":memory:"
}
