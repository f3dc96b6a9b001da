package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRateLimited indicates a provider's throughput or quota was exceeded.
	// Documents hitting it are deferred, not failed.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded indicates a daily quota is exhausted.
	// It is a hard stop for the day and is never waited out.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrExtractionUnavailable indicates no extractor can read the format,
	// for example when PDF support is missing.
	ErrExtractionUnavailable = errors.New("extraction unavailable")

	// ErrDuplicateDetectionSkipped is informational: no embedding was
	// produced, so near-duplicate detection did not run.
	ErrDuplicateDetectionSkipped = errors.New("duplicate detection skipped")

	// ErrAnalysisUnavailable indicates the analysis provider is not configured.
	ErrAnalysisUnavailable = errors.New("analysis service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	// Near-duplicate detection is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ExtractionError reports that text could not be produced from a file.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// RateLimitError reports that a provider refused a call for throughput reasons.
type RateLimitError struct {
	Provider string

	// RetryAfter is the provider's suggested wait, zero if unknown.
	RetryAfter time.Duration

	Err error
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("%s: rate limit exceeded", e.Provider)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is matches ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// QuotaExceededError reports that reserving tokens would pass the daily ceiling.
type QuotaExceededError struct {
	Provider  string
	Limit     int
	Used      int
	Requested int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: daily token quota exceeded (%d used + %d requested > %d)",
		e.Provider, e.Used, e.Requested, e.Limit)
}

// Is matches ErrQuotaExceeded and ErrRateLimited.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded || target == ErrRateLimited
}

// ProviderError reports any non rate-limit failure of an external provider.
type ProviderError struct {
	Provider string
	Op       string

	// StatusCode is the HTTP status, zero for transport failures.
	StatusCode int

	Err error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StorageError wraps every failure of the document store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsRateLimited checks if the error indicates rate limiting or an exhausted quota.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsQuotaExceeded checks if the error indicates an exhausted daily quota.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsStorageError checks if the error came from the document store.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// IsExtractionError checks if the error came from text extraction.
func IsExtractionError(err error) bool {
	var extractionErr *ExtractionError
	return errors.As(err, &extractionErr)
}

// IsProviderError checks if the error is a generic provider failure.
func IsProviderError(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr)
}

// ErrorCategory names the taxonomy bucket of err, for logs and summaries.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case IsQuotaExceeded(err):
		return "quota_exceeded"
	case IsRateLimited(err):
		return "rate_limit"
	case IsExtractionError(err):
		return "extraction"
	case IsStorageError(err):
		return "storage"
	case IsProviderError(err):
		return "provider"
	default:
		return "internal"
	}
}
