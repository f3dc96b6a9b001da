package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// defaultToolLimit caps search results when the caller gives no limit.
const defaultToolLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query; every word must appear in a match"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Raw   bool   `json:"raw,omitempty" jsonschema:"pass the query to FTS5 unchanged"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID       int64    `json:"id"`
	Filename string   `json:"filename"`
	Filepath string   `json:"filepath"`
	Rank     float64  `json:"rank"`
	Snippet  string   `json:"snippet,omitempty"`
	Topic    string   `json:"topic,omitempty"`
	Language string   `json:"language,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	ID             int64 `json:"id" jsonschema:"the document id"`
	IncludeContent bool  `json:"include_content,omitempty" jsonschema:"include the full document text"`
}

// DocumentOutput is the output schema for the get_document tool.
type DocumentOutput struct {
	ID             int64           `json:"id"`
	Filename       string          `json:"filename"`
	Filepath       string          `json:"filepath"`
	SourceType     string          `json:"source_type"`
	WordCount      int             `json:"word_count"`
	Metadata       *MetadataOutput `json:"metadata,omitempty"`
	EmbeddingModel string          `json:"embedding_model,omitempty"`
	DuplicateOf    []int64         `json:"duplicate_of,omitempty"`
	Content        string          `json:"content,omitempty"`
}

// MetadataOutput is the analysed metadata of a document.
type MetadataOutput struct {
	Language    string   `json:"language,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	IsPrompt    bool     `json:"is_prompt"`
	IsLLMOutput bool     `json:"is_llm_output"`
	Project     string   `json:"project,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// StatisticsInput is the empty input of the statistics tool.
type StatisticsInput struct{}

// StatisticsOutput is the output schema for the statistics tool.
type StatisticsOutput struct {
	TotalDocuments  int            `json:"total_documents"`
	TotalEmbeddings int            `json:"total_embeddings"`
	TotalDuplicates int            `json:"total_duplicates"`
	ByLanguage      map[string]int `json:"by_language,omitempty"`
	BySourceType    map[string]int `json:"by_source_type,omitempty"`
	ByExtension     map[string]int `json:"by_extension,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Full-text search across all archived documents",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch one archived document with its metadata",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "statistics",
		Description: "Summary counts of the archive",
	}, s.handleStatistics)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}

	opts := domain.SearchOptions{Limit: limit, Raw: input.Raw}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		r := &results[i]
		out := SearchResultOutput{
			ID:       r.Document.ID,
			Filename: r.Document.Filename,
			Filepath: r.Document.Filepath,
			Rank:     r.Rank,
			Snippet:  r.Snippet,
		}
		if r.Metadata != nil {
			out.Topic = r.Metadata.Topic
			out.Language = r.Metadata.Language
			out.Keywords = r.Metadata.Keywords
		}
		output.Results[i] = out
	}

	return nil, output, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if input.ID <= 0 {
		return nil, DocumentOutput{}, fmt.Errorf("invalid document id %d: %w", input.ID, domain.ErrInvalidInput)
	}

	details, err := s.ports.Document.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, DocumentOutput{}, fmt.Errorf("document %d not found", input.ID)
		}
		return nil, DocumentOutput{}, err
	}

	doc := details.Document
	output := DocumentOutput{
		ID:             doc.ID,
		Filename:       doc.Filename,
		Filepath:       doc.Filepath,
		SourceType:     doc.SourceType.String(),
		WordCount:      doc.WordCount,
		EmbeddingModel: details.EmbeddingModel,
	}
	if m := details.Metadata; m != nil {
		output.Metadata = &MetadataOutput{
			Language:    m.Language,
			Topic:       m.Topic,
			Keywords:    m.Keywords,
			ContentType: string(m.ContentType),
			Summary:     m.Summary,
			IsPrompt:    m.IsPrompt,
			IsLLMOutput: m.IsLLMOutput,
			Project:     m.Project,
			Confidence:  m.Confidence,
		}
	}
	for _, d := range details.DuplicateOf {
		output.DuplicateOf = append(output.DuplicateOf, d.DuplicateOfID)
	}
	if input.IncludeContent {
		output.Content = doc.Content
	}

	return nil, output, nil
}

// handleStatistics handles the statistics tool invocation.
func (s *Server) handleStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatisticsInput,
) (*mcp.CallToolResult, StatisticsOutput, error) {
	stats, err := s.ports.Document.Statistics(ctx)
	if err != nil {
		return nil, StatisticsOutput{}, err
	}

	return nil, StatisticsOutput{
		TotalDocuments:  stats.TotalDocuments,
		TotalEmbeddings: stats.TotalEmbeddings,
		TotalDuplicates: stats.TotalDuplicates,
		ByLanguage:      stats.ByLanguage,
		BySourceType:    stats.BySourceType,
		ByExtension:     stats.ByExtension,
	}, nil
}
