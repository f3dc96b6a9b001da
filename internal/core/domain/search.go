package domain

// DefaultSearchLimit is used when SearchOptions.Limit is not positive.
const DefaultSearchLimit = 20

// SearchOptions configures a full-text search.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Raw passes the query to the index unchanged (FTS5 syntax).
	// Otherwise each word is quoted and the words are ANDed.
	Raw bool
}

// EffectiveLimit returns Limit or the default.
func (o SearchOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}

// SearchResult is one ranked hit from the full-text index.
type SearchResult struct {
	// Document is the matching document.
	Document Document

	// Metadata is nil if the document has no metadata row.
	Metadata *Metadata

	// Rank is the index rank; lower is better.
	Rank float64

	// Snippet is a highlighted excerpt of the matching text.
	Snippet string
}

// Statistics aggregates the store contents.
type Statistics struct {
	TotalDocuments  int
	TotalEmbeddings int
	TotalDuplicates int

	// ByLanguage counts documents per detected language.
	ByLanguage map[string]int

	// BySourceType counts documents per source type.
	BySourceType map[string]int

	// ByExtension counts documents per file extension.
	ByExtension map[string]int
}
