// Package embedding holds helpers shared by the embedding provider adapters.
package embedding

import (
	"fmt"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// ToFloat32 narrows a wire vector to the stored precision.
func ToFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// Dimensions resolves the vector size for a model. An explicit size wins,
// then the known size of the model, then fallback.
func Dimensions(explicit int, model string, fallback int) int {
	if explicit > 0 {
		return explicit
	}
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return fallback
}

// CheckCount reports a provider error when a batch response does not line
// up with its input.
func CheckCount(provider string, want, got int) error {
	if want == got {
		return nil
	}
	return &domain.ProviderError{
		Provider: provider,
		Op:       "embed",
		Err:      fmt.Errorf("expected %d embeddings, got %d", want, got),
	}
}
