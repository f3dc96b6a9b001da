package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	embedBackfill bool
	embedLimit    int
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate missing embeddings",
	Long: `With --backfill, generates embeddings for stored documents that lack one,
typically because the embedding provider was rate limited during ingest.
Near-duplicate detection runs as each document gains its embedding.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().BoolVar(&embedBackfill, "backfill", false, "embed stored documents that have no embedding")
	embedCmd.Flags().IntVarP(&embedLimit, "limit", "n", 0, "maximum number of documents (0 = all)")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if !embedBackfill {
		return errors.New("nothing to do: pass --backfill")
	}

	rt, err := newRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.close()
	if rt.Backfill == nil {
		return fatal(errors.New("no embedding provider configured: see 'archaeologist settings show'"))
	}

	res, err := rt.Backfill.Backfill(cmd.Context(), embedLimit)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	cmd.Printf("Embedded %d documents, recorded %d near-duplicates\n", res.Embedded, res.Duplicates)
	rt.printQuota(cmd)
	if res.Remaining > 0 {
		return &ExitError{
			Code: ExitFailure,
			Err:  fmt.Errorf("%d documents still lack an embedding; the provider limit was reached", res.Remaining),
		}
	}
	return nil
}
