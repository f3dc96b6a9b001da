package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

var showCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document with its metadata",
	Long: `Prints the stored document, the metadata returned by the analysis
provider, the embedding provenance and any near-duplicate relations.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List near-duplicate relations",
	Args:  cobra.NoArgs,
	RunE:  runDuplicates,
}

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List recent ingestion failures",
	Args:  cobra.NoArgs,
	RunE:  runFailures,
}

var (
	showContent     bool
	listOffset      int
	listLimit       int
	duplicatesLimit int
	failuresLimit   int
)

func init() {
	showCmd.Flags().BoolVar(&showContent, "content", false, "print the full document text")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of documents to skip")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum number of documents")
	duplicatesCmd.Flags().IntVarP(&duplicatesLimit, "limit", "n", 50, "maximum number of relations")
	failuresCmd.Flags().IntVarP(&failuresLimit, "limit", "n", 20, "maximum number of failures")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(failuresCmd)
}

func parseDocumentID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q: %w", arg, domain.ErrInvalidInput)
	}
	return id, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	details, err := documentService.Get(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %d not found", id)
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	doc := details.Document
	cmd.Printf("Document #%d\n\n", doc.ID)
	cmd.Printf("  Filename:     %s\n", doc.Filename)
	cmd.Printf("  Path:         %s\n", doc.Filepath)
	cmd.Printf("  Type:         %s (%s)\n", doc.SourceType, doc.Extension)
	cmd.Printf("  Words:        %d\n", doc.WordCount)
	cmd.Printf("  File time:    %s\n", formatTime(doc.FileCreatedAt))
	cmd.Printf("  Processed:    %s\n", formatTime(doc.ProcessedAt))

	if m := details.Metadata; m != nil {
		cmd.Println()
		cmd.Println("Metadata:")
		cmd.Printf("  Language:     %s\n", m.Language)
		cmd.Printf("  Topic:        %s\n", m.Topic)
		cmd.Printf("  Content type: %s\n", m.ContentType)
		if len(m.Keywords) > 0 {
			cmd.Printf("  Keywords:     %s\n", strings.Join(m.Keywords, ", "))
		}
		if m.Project != "" {
			cmd.Printf("  Project:      %s\n", m.Project)
		}
		cmd.Printf("  Prompt:       %t\n", m.IsPrompt)
		cmd.Printf("  LLM output:   %t\n", m.IsLLMOutput)
		cmd.Printf("  Confidence:   %.2f\n", m.Confidence)
		if m.Summary != "" {
			cmd.Printf("  Summary:      %s\n", m.Summary)
		}
	}

	cmd.Println()
	if details.HasEmbedding() {
		cmd.Printf("Embedding: %s, %d dimensions\n", details.EmbeddingModel, details.EmbeddingDims)
	} else {
		cmd.Println("Embedding: none (run 'archaeologist embed --backfill')")
	}

	for _, dup := range details.DuplicateOf {
		cmd.Printf("Near-duplicate of #%d (similarity %.3f)\n", dup.DuplicateOfID, dup.Similarity)
	}

	if showContent {
		cmd.Println()
		cmd.Println("Content:")
		cmd.Println(doc.Content)
	}

	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context(), listOffset, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		d := &docs[i]
		cmd.Printf("  #%-6d %-10s %6d words  %s\n", d.ID, d.SourceType, d.WordCount, d.Filepath)
	}
	cmd.Println()
	cmd.Printf("Showing %d documents from offset %d\n", len(docs), listOffset)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	cmd.Printf("Documents:  %d\n", stats.TotalDocuments)
	cmd.Printf("Embeddings: %d\n", stats.TotalEmbeddings)
	cmd.Printf("Duplicates: %d\n", stats.TotalDuplicates)

	printCounts(cmd, "By source type", stats.BySourceType)
	printCounts(cmd, "By language", stats.ByLanguage)
	printCounts(cmd, "By extension", stats.ByExtension)
	return nil
}

// printCounts prints a count map, largest first.
func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	cmd.Println()
	cmd.Printf("%s:\n", title)
	for _, k := range keys {
		label := k
		if label == "" {
			label = "(unknown)"
		}
		cmd.Printf("  %-16s %d\n", label, counts[k])
	}
}

func runDuplicates(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	dups, err := documentService.Duplicates(cmd.Context(), duplicatesLimit)
	if err != nil {
		return fmt.Errorf("failed to list duplicates: %w", err)
	}

	if len(dups) == 0 {
		cmd.Println("No duplicates recorded.")
		return nil
	}

	for _, d := range dups {
		cmd.Printf("  #%d ~ #%d  %.3f  %s\n", d.DocumentID, d.DuplicateOfID, d.Similarity, formatTime(d.DetectedAt))
	}
	return nil
}

func runFailures(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	failures, err := documentService.Failures(cmd.Context(), failuresLimit)
	if err != nil {
		return fmt.Errorf("failed to read failure log: %w", err)
	}

	if len(failures) == 0 {
		cmd.Println("No failures recorded.")
		return nil
	}

	for _, f := range failures {
		cmd.Printf("%s  %-8s %-10s %s\n", formatTime(f.Time), f.Stage, f.Category, f.Path)
		cmd.Printf("    %s\n", f.Message)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
