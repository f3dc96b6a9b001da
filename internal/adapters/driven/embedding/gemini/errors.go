package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/archaeologist/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// classify converts a Google API error into the domain error types.
// Quota and throughput refusals become *domain.RateLimitError; everything
// else becomes *domain.ProviderError. Context errors pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if domain.IsRateLimited(err) {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &domain.ProviderError{Provider: providerName, Op: op, Err: err}
	}

	if isRateLimited(gerr) {
		var retryAfter time.Duration
		if gerr.Header != nil {
			retryAfter = httpapi.ParseRetryAfter(gerr.Header.Get("Retry-After"), time.Now())
		}
		return &domain.RateLimitError{
			Provider:   providerName,
			RetryAfter: retryAfter,
			Err:        fmt.Errorf("status %d: %s", gerr.Code, gerr.Message),
		}
	}

	return &domain.ProviderError{
		Provider:   providerName,
		Op:         op,
		StatusCode: gerr.Code,
		Err:        errors.New(gerr.Message),
	}
}

func isRateLimited(gerr *googleapi.Error) bool {
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	text := strings.ToLower(gerr.Message + " " + gerr.Body)
	return strings.Contains(text, "resource_exhausted") ||
		strings.Contains(text, "quota") ||
		strings.Contains(text, "rate limit")
}
