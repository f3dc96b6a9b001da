package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

var browseLimit int

var browseCmd = &cobra.Command{
	Use:   "browse [query]",
	Short: "Browse the archive in an interactive terminal UI",
	Long: `Opens a full-screen search over the archive. An optional query is
searched immediately.

Controls:
  Enter    - Search / open the selected document
  Ctrl+R   - Toggle raw FTS5 syntax for the query
  ↑/k, ↓/j - Navigate results or scroll a document
  /        - New search
  c        - Toggle the document text
  Esc      - Back
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().IntVarP(&browseLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results per search")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = errors.New("browser crashed")
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(searchService, documentService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(cmd.Context()).WithLimit(browseLimit)
	if len(args) == 1 {
		app.WithQuery(args[0])
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
