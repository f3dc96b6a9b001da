package domain

import (
	"strings"
	"time"
)

// MaxKeywords is the number of keywords kept per document.
const MaxKeywords = 10

// Document is one ingested file.
// Filepath is globally unique; a stored document is never rewritten
// except through an explicit reprocess.
type Document struct {
	// ID is the store-assigned row identifier.
	ID int64

	// Filename is the base name of the file.
	Filename string

	// Filepath is the absolute path the document was read from.
	Filepath string

	// Extension is the lower-cased file extension including the dot.
	Extension string

	// SourceType classifies the file format.
	SourceType SourceType

	// Content is the full extracted text.
	Content string

	// ContentHash is the hex SHA-256 digest of Content.
	ContentHash string

	// WordCount is the number of whitespace-separated words in Content.
	WordCount int

	// FileCreatedAt is the filesystem timestamp of the file.
	FileCreatedAt time.Time

	// ProcessedAt is when the pipeline stored the document.
	ProcessedAt time.Time
}

// ContentType is the analysis classification of a document's content.
type ContentType string

// Content types produced by analysis providers.
const (
	ContentTypeSystemPrompt  ContentType = "system_prompt"
	ContentTypeLLMOutput     ContentType = "llm_output"
	ContentTypeCode          ContentType = "code"
	ContentTypeDocumentation ContentType = "documentation"
	ContentTypeEmail         ContentType = "email"
	ContentTypeNotes         ContentType = "notes"
	ContentTypeOther         ContentType = "other"
)

// AllContentTypes returns the closed set of content types.
func AllContentTypes() []ContentType {
	return []ContentType{
		ContentTypeSystemPrompt,
		ContentTypeLLMOutput,
		ContentTypeCode,
		ContentTypeDocumentation,
		ContentTypeEmail,
		ContentTypeNotes,
		ContentTypeOther,
	}
}

// IsValid returns true if the content type is recognised.
func (c ContentType) IsValid() bool {
	for _, ct := range AllContentTypes() {
		if c == ct {
			return true
		}
	}
	return false
}

// Metadata is the structured analysis of a document.
// It is created together with its Document and never updated on its own.
type Metadata struct {
	// Language is the ISO 639-1 code of the primary language.
	Language string

	// Topic is the main topic in a few words.
	Topic string

	// Keywords lists key entities or concepts, at most MaxKeywords.
	Keywords []string

	// ContentType classifies what kind of text this is.
	ContentType ContentType

	// Summary is a short summary of the content.
	Summary string

	// IsPrompt is true for system prompts and instructions.
	IsPrompt bool

	// IsLLMOutput is true for text produced by a language model.
	IsLLMOutput bool

	// Project is an associated project name, empty if none.
	Project string

	// Confidence is the provider's confidence in [0,1].
	Confidence float64
}

// Normalize trims provider output into the documented shape.
func (m *Metadata) Normalize() {
	m.Language = strings.ToLower(strings.TrimSpace(m.Language))
	m.Topic = strings.TrimSpace(m.Topic)
	m.Summary = strings.TrimSpace(m.Summary)
	m.Project = strings.TrimSpace(m.Project)

	keywords := make([]string, 0, len(m.Keywords))
	for _, kw := range m.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
		if len(keywords) == MaxKeywords {
			break
		}
	}
	m.Keywords = keywords

	if !m.ContentType.IsValid() {
		m.ContentType = ContentTypeOther
	}

	switch {
	case m.Confidence < 0:
		m.Confidence = 0
	case m.Confidence > 1:
		m.Confidence = 1
	}
}

// Embedding is the semantic vector of a document.
type Embedding struct {
	// DocumentID links to the Document.
	DocumentID int64

	// Vector is the embedding values.
	Vector []float32

	// Dimensions is len(Vector), stored explicitly for provenance.
	Dimensions int

	// Model identifies the model that produced the vector.
	Model string

	// CreatedAt is when the embedding was generated.
	CreatedAt time.Time
}

// EmbeddingRef pairs a stored document with its vector for comparison.
type EmbeddingRef struct {
	DocumentID int64
	Vector     []float32
}

// Duplicate records that DocumentID is a near-duplicate of an older
// document. The relation always points from the newer to the older document.
type Duplicate struct {
	DocumentID    int64
	DuplicateOfID int64
	Similarity    float64
	DetectedAt    time.Time
}

// IngestRecord is everything written for one document in a single transaction.
type IngestRecord struct {
	Document  Document
	Metadata  Metadata
	Embedding *Embedding

	// Duplicates are written after the document row exists.
	// Their DocumentID is filled in by the store.
	Duplicates []Duplicate

	// Replace rewrites the row stored at the same filepath in place, keeping
	// its id and the relations other documents hold against it.
	Replace bool
}

// DocumentDetails is a stored document joined with its analysis.
type DocumentDetails struct {
	Document Document

	// Metadata is nil if no metadata row exists.
	Metadata *Metadata

	// EmbeddingModel is empty if the document has no embedding.
	EmbeddingModel string

	// EmbeddingDims is zero if the document has no embedding.
	EmbeddingDims int

	// DuplicateOf lists older documents this one duplicates.
	DuplicateOf []Duplicate
}

// HasEmbedding returns true if an embedding is stored for the document.
func (d *DocumentDetails) HasEmbedding() bool {
	return d.EmbeddingDims > 0
}
