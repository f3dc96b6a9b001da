package driven

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// FailureLog persists one entry per document failure.
type FailureLog interface {
	// Record appends a failure.
	Record(ctx context.Context, failure domain.Failure) error

	// Recent returns up to limit of the most recent failures, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Failure, error)

	// Path returns where the log is persisted.
	Path() string
}
