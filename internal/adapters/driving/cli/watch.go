package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/scanner"
)

var (
	watchDebounce time.Duration
	watchForce    bool
	watchNoEmbed  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Ingest new and changed files as they appear",
	Long: `Ingests the directory once, then watches it for created or modified
supported files and ingests each batch of changes after a quiet period.

Stored documents are never deleted. A modified file whose path is already
stored is only reprocessed with --force. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", scanner.DefaultDebounce, "quiet period before a batch is ingested")
	watchCmd.Flags().BoolVar(&watchForce, "force", false, "reprocess modified files that are already stored")
	watchCmd.Flags().BoolVar(&watchNoEmbed, "no-embed", false, "skip embeddings and near-duplicate detection")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cmd, !watchNoEmbed)
	if err != nil {
		return err
	}
	defer rt.close()
	if rt.Ingest == nil {
		return fatal(errors.New("ingest service not configured"))
	}

	w := scanner.NewWatcher(scanner.New(), watchDebounce)
	batches, err := w.Watch(ctx, root)
	if err != nil {
		return fatal(fmt.Errorf("watching %s: %w", root, err))
	}
	defer w.Close() //nolint:errcheck

	opts := domain.RunOptions{Root: root, SkipEmbedding: watchNoEmbed}
	summary, err := runWithProgress(ctx, stop, cmd, progressPlain, opts, rt)
	if err != nil {
		return fatal(err)
	}
	printWatchSummary(cmd, summary)
	cmd.Printf("Watching %s for changes...\n", root)

	for batch := range batches {
		opts := domain.RunOptions{Root: root, Paths: batch, Force: watchForce, SkipEmbedding: watchNoEmbed}
		summary, err := runWithProgress(ctx, stop, cmd, progressPlain, opts, rt)
		if err != nil {
			cmd.PrintErrln("Error:", err)
			continue
		}
		printWatchSummary(cmd, summary)
		if summary.Cancelled {
			break
		}
	}

	cmd.Println("Stopped watching.")
	return nil
}

func printWatchSummary(cmd *cobra.Command, s *domain.RunSummary) {
	if s.Processed+s.Skipped+s.Failed+s.Deferred == 0 {
		return
	}
	cmd.Printf("%s %d processed, %d skipped, %d failed, %d deferred\n",
		time.Now().Format("15:04:05"), s.Processed, s.Skipped, s.Failed, s.Deferred)
	if s.HasFailures() && failureLogPath != "" {
		cmd.Printf("Failures were written to %s\n", failureLogPath)
	}
}
