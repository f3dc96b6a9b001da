package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitFatal   = 2
)

// ExitError makes a command exit with a specific code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// fatal marks err as an initialisation failure.
func fatal(err error) error {
	return &ExitError{Code: ExitFatal, Err: err}
}

// Runtime holds the services that need reachable AI providers.
type Runtime struct {
	Ingest   driving.IngestService
	Backfill driving.EmbeddingBackfill

	// Warnings are non-fatal setup problems, such as an unreachable
	// embedding provider.
	Warnings []string

	// Quota reports the embedding provider's daily usage. May be nil.
	Quota func() (domain.QuotaUsage, bool)

	// Close releases the providers. May be nil.
	Close func()
}

// RuntimeFactory builds a Runtime on demand. Only commands that call
// providers pay for provider setup. withEmbedding is false when the
// caller will not generate embeddings.
type RuntimeFactory func(ctx context.Context, withEmbedding bool) (*Runtime, error)

// Services are the dependencies of the commands.
type Services struct {
	Search   driving.SearchService
	Document driving.DocumentService
	Settings driving.SettingsService
	Runtime  RuntimeFactory

	// FailureLogPath is shown after runs with failures.
	FailureLogPath string
}

var (
	searchService   driving.SearchService
	documentService driving.DocumentService
	settingsService driving.SettingsService
	runtimeFactory  RuntimeFactory
	failureLogPath  string

	version = "dev"
	verbose bool
)

// SetServices installs the command dependencies.
func SetServices(s Services) {
	searchService = s.Search
	documentService = s.Document
	settingsService = s.Settings
	runtimeFactory = s.Runtime
	failureLogPath = s.FailureLogPath
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "archaeologist",
	Short: "Ingest, analyse and search a document archive",
	Long: `Archaeologist walks a directory tree, extracts text from every supported
file, asks an AI provider for structured metadata and an embedding, detects
exact and near duplicates, and stores everything in a local SQLite database
with full-text search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic logs to stderr")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return exitCode(rootCmd, rootCmd.Execute())
}

func exitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			cmd.PrintErrln("Error:", exitErr.Err)
		}
		return exitErr.Code
	}
	cmd.PrintErrln("Error:", err)
	return ExitFailure
}

// newRuntime builds the provider-backed services, mapping any failure to
// a fatal exit.
func newRuntime(cmd *cobra.Command, withEmbedding bool) (*Runtime, error) {
	if runtimeFactory == nil {
		return nil, fatal(errors.New("ingestion not configured"))
	}
	rt, err := runtimeFactory(cmd.Context(), withEmbedding)
	if err != nil {
		return nil, fatal(err)
	}
	for _, w := range rt.Warnings {
		cmd.PrintErrln("Warning:", w)
	}
	return rt, nil
}

// printQuota prints the embedding quota used by this process, if tracked.
func (rt *Runtime) printQuota(cmd *cobra.Command) {
	if rt == nil || rt.Quota == nil {
		return
	}
	usage, ok := rt.Quota()
	if !ok || usage.TokensToday == 0 {
		return
	}
	if remaining := usage.RemainingTokens(); remaining >= 0 {
		cmd.Printf("Embedding quota (%s): %d tokens used, %d remaining today\n",
			usage.Provider, usage.TokensToday, remaining)
		return
	}
	cmd.Printf("Embedding quota (%s): %d tokens used\n", usage.Provider, usage.TokensToday)
}

func (rt *Runtime) close() {
	if rt != nil && rt.Close != nil {
		rt.Close()
	}
}
