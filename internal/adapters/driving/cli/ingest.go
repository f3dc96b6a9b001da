package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// Progress modes for ingest.
const (
	progressAuto  = "auto"
	progressPlain = "plain"
	progressTUI   = "tui"
	progressNone  = "none"
)

var (
	ingestForce    bool
	ingestNoEmbed  bool
	ingestProgress string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest every supported file under a directory",
	Long: `Walks the directory, extracts text, requests metadata and an embedding
for each new document, detects duplicates and stores the result.

Documents are processed one at a time. A failing document never stops the
run; failures are written to the failure log. Press Ctrl+C to stop after the
document in flight.

Exit codes:
  0  every document was stored or skipped
  1  a document failed or was deferred by a provider rate limit, or the run
     was cancelled
  2  the store or the analysis provider could not be set up`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "reprocess files that are already stored")
	ingestCmd.Flags().BoolVar(&ingestNoEmbed, "no-embed", false, "skip embeddings and near-duplicate detection")
	ingestCmd.Flags().StringVar(&ingestProgress, "progress", progressAuto, "progress output: auto, plain, tui or none")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	mode, err := progressMode(ingestProgress, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(cmd, !ingestNoEmbed)
	if err != nil {
		return err
	}
	defer rt.close()
	if rt.Ingest == nil {
		return fatal(errors.New("ingest service not configured"))
	}

	opts := domain.RunOptions{Root: root, Force: ingestForce, SkipEmbedding: ingestNoEmbed}
	summary, err := runWithProgress(ctx, stop, cmd, mode, opts, rt)
	if err != nil {
		return fatal(err)
	}

	err = reportRun(cmd, summary)
	rt.printQuota(cmd)
	return err
}

// runWithProgress runs the pipeline while the chosen renderer consumes
// its events.
func runWithProgress(
	ctx context.Context, cancel func(), cmd *cobra.Command, mode string, opts domain.RunOptions, rt *Runtime,
) (*domain.RunSummary, error) {
	events := make(chan domain.Event, 64)

	var (
		summary *domain.RunSummary
		runErr  error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer close(events)
		summary, runErr = rt.Ingest.Run(ctx, opts, events)
	}()

	switch mode {
	case progressTUI:
		if _, err := tui.RunProgress(opts.Root, events, cancel, tea.WithOutput(cmd.OutOrStdout())); err != nil {
			cmd.PrintErrln("Warning:", err)
		}
	case progressPlain:
		printEvents(cmd.OutOrStdout(), opts.Root, events)
	}
	for range events {
	}
	<-finished

	if runErr != nil {
		return nil, fmt.Errorf("ingest %s: %w", opts.Root, runErr)
	}
	return summary, nil
}

// printEvents writes one line per finished document.
func printEvents(w io.Writer, root string, events <-chan domain.Event) {
	for ev := range events {
		if !ev.Kind.IsTerminal() && ev.Kind != domain.EventDuplicate {
			continue
		}
		fmt.Fprintln(w, tui.FormatEvent(ev, displayPath(root, ev.Path)))
	}
}

// reportRun prints the summary and maps it to an exit status.
func reportRun(cmd *cobra.Command, summary *domain.RunSummary) error {
	cmd.Println()
	cmd.Printf("Run %s: %s\n", summary.RunID, tui.SummaryLine(summary))

	if summary.HasFailures() && failureLogPath != "" {
		cmd.Printf("Failures were written to %s\n", failureLogPath)
	}
	if summary.Deferred > 0 {
		cmd.Println("Deferred documents were not stored; run ingest again once the provider limit resets.")
	}

	switch {
	case summary.Cancelled:
		return &ExitError{Code: ExitFailure, Err: errors.New("run cancelled")}
	case summary.HasFailures():
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d failed and %d deferred documents",
			summary.Failed, summary.Deferred)}
	}
	return nil
}

// progressMode resolves the --progress flag. auto picks the TUI only when
// output is a terminal.
func progressMode(mode string, out io.Writer) (string, error) {
	switch mode {
	case progressPlain, progressTUI, progressNone:
		return mode, nil
	case progressAuto, "":
		if isTerminal(out) {
			return progressTUI, nil
		}
		return progressPlain, nil
	default:
		return "", fmt.Errorf("invalid --progress %q: use auto, plain, tui or none", mode)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
