package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

func TestExtensions(t *testing.T) {
	exts := New().Extensions()

	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".md")
	assert.Contains(t, exts, ".py")
	assert.Contains(t, exts, ".html")
	assert.NotContains(t, exts, ".pdf")
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		content  []byte
		expected string
	}{
		{"utf8", []byte("hello world"), "hello world"},
		{"umlauts", []byte("Grüße"), "Grüße"},
		{"invalid bytes replaced", []byte("a\xffb"), "a�b"},
		{"bom stripped", []byte("\xef\xbb\xbfhi"), "hi"},
		{"empty", []byte{}, ""},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".txt")
			require.NoError(t, os.WriteFile(path, tt.content, 0644))

			text, err := New().Extract(context.Background(), path)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), "/non/existent/file.txt")

	require.Error(t, err)
	assert.True(t, domain.IsExtractionError(err))
}
