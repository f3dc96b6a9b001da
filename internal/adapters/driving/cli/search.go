package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
	searchRaw   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested documents",
	Long: `Performs full-text search over filenames, paths and document text.
Results are ranked by the FTS5 index, best match first.

Each word of the query must appear in a match. Use --raw to pass FTS5
syntax through unchanged, for example phrase queries or NEAR.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchRaw, "raw", false, "pass the query to FTS5 unchanged")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit: searchLimit,
		Raw:   searchRaw,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

// searchResultJSON is the --json shape of one result.
type searchResultJSON struct {
	ID       int64    `json:"id"`
	Filename string   `json:"filename"`
	Filepath string   `json:"filepath"`
	Rank     float64  `json:"rank"`
	Snippet  string   `json:"snippet"`
	Language string   `json:"language,omitempty"`
	Topic    string   `json:"topic,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Summary  string   `json:"summary,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, 0, len(results))
	for i := range results {
		r := &results[i]
		item := searchResultJSON{
			ID:       r.Document.ID,
			Filename: r.Document.Filename,
			Filepath: r.Document.Filepath,
			Rank:     r.Rank,
			Snippet:  r.Snippet,
		}
		if r.Metadata != nil {
			item.Language = r.Metadata.Language
			item.Topic = r.Metadata.Topic
			item.Keywords = r.Metadata.Keywords
			item.Summary = r.Metadata.Summary
		}
		out = append(out, item)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		// Format: [N] #id filename (rank)
		cmd.Printf("  [%d] #%d %s (%.2f)\n", i+1, r.Document.ID, r.Document.Filename, r.Rank)
		cmd.Printf("      %s\n", r.Document.Filepath)
		if r.Metadata != nil && r.Metadata.Topic != "" {
			cmd.Printf("      Topic: %s\n", r.Metadata.Topic)
		}
		if r.Snippet != "" {
			cmd.Printf("      %s\n", strings.Join(strings.Fields(r.Snippet), " "))
		}
		cmd.Println()
	}

	return nil
}
