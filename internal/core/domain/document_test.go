package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_Normalize(t *testing.T) {
	t.Run("trims and lower-cases language", func(t *testing.T) {
		m := Metadata{Language: "  EN ", Topic: " go ", Summary: " s ", Project: " p "}
		m.Normalize()

		assert.Equal(t, "en", m.Language)
		assert.Equal(t, "go", m.Topic)
		assert.Equal(t, "s", m.Summary)
		assert.Equal(t, "p", m.Project)
	})

	t.Run("drops blank keywords and caps count", func(t *testing.T) {
		m := Metadata{Keywords: []string{"a", " ", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}}
		m.Normalize()

		assert.Len(t, m.Keywords, MaxKeywords)
		assert.Equal(t, "a", m.Keywords[0])
		assert.Equal(t, "b", m.Keywords[1])
	})

	t.Run("nil keywords become empty", func(t *testing.T) {
		m := Metadata{}
		m.Normalize()
		assert.NotNil(t, m.Keywords)
		assert.Empty(t, m.Keywords)
	})

	t.Run("clamps confidence", func(t *testing.T) {
		low := Metadata{Confidence: -0.5}
		low.Normalize()
		assert.Equal(t, 0.0, low.Confidence)

		high := Metadata{Confidence: 1.7}
		high.Normalize()
		assert.Equal(t, 1.0, high.Confidence)

		mid := Metadata{Confidence: 0.42}
		mid.Normalize()
		assert.Equal(t, 0.42, mid.Confidence)
	})

	t.Run("unknown content type becomes other", func(t *testing.T) {
		m := Metadata{ContentType: "poetry"}
		m.Normalize()
		assert.Equal(t, ContentTypeOther, m.ContentType)

		code := Metadata{ContentType: ContentTypeCode}
		code.Normalize()
		assert.Equal(t, ContentTypeCode, code.ContentType)
	})
}

func TestDocumentDetails_HasEmbedding(t *testing.T) {
	assert.False(t, (&DocumentDetails{}).HasEmbedding())
	assert.True(t, (&DocumentDetails{EmbeddingDims: 768, EmbeddingModel: "m"}).HasEmbedding())
}

func TestSourceTypeForExtension(t *testing.T) {
	tests := []struct {
		ext      string
		expected SourceType
	}{
		{".txt", SourceTypeText},
		{".TXT", SourceTypeText},
		{"md", SourceTypeMarkdown},
		{".pdf", SourceTypePDF},
		{".py", SourceTypePython},
		{".go", SourceTypeCode},
		{".json", SourceTypeJSON},
		{".csv", SourceTypeCSV},
		{".HTML", SourceTypeHTML},
		{".bin", SourceTypeUnknown},
		{"", SourceTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.expected, SourceTypeForExtension(tt.ext))
		})
	}
}

func TestIsSupportedExtension(t *testing.T) {
	assert.True(t, IsSupportedExtension(".txt"))
	assert.True(t, IsSupportedExtension(".Md"))
	assert.False(t, IsSupportedExtension(".bin"))
	assert.False(t, IsSupportedExtension(".exe"))
	assert.False(t, IsSupportedExtension(""))
}

func TestSupportedExtensions_Sorted(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".pdf")
	assert.IsIncreasing(t, exts)
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, ".txt", ExtensionOf("/a/b/File.TXT"))
	assert.Equal(t, "", ExtensionOf("/a/b/Makefile"))
}

func TestRunSummary(t *testing.T) {
	s := &RunSummary{}
	assert.False(t, s.HasFailures())
	assert.Zero(t, s.Duration())

	s.Deferred = 1
	assert.True(t, s.HasFailures())

	s = &RunSummary{Failed: 2}
	assert.True(t, s.HasFailures())
}

func TestEventKind_IsTerminal(t *testing.T) {
	assert.True(t, EventStored.IsTerminal())
	assert.True(t, EventSkipped.IsTerminal())
	assert.True(t, EventDeferred.IsTerminal())
	assert.True(t, EventFailed.IsTerminal())
	assert.False(t, EventDiscovered.IsTerminal())
	assert.False(t, EventAnalyzed.IsTerminal())
	assert.False(t, EventFinished.IsTerminal())
}
