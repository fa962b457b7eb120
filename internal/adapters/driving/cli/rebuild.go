package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policybot-io/policybot/internal/core/domain"
)

var rebuildForce bool

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the source manifest",
	Long: `Parses every source listed in the manifest, chunks and embeds the
text, and atomically replaces the persisted index. When sources and
embedding model are unchanged since the last build, the rebuild is
skipped unless --force is given.`,
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolVarP(&rebuildForce, "force", "f", false, "rebuild even when sources are unchanged")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestOrchestrator.Rebuild(context.Background(), rebuildForce)
	if err != nil {
		if report != nil {
			printIngestErrors(cmd, report)
		}
		return fmt.Errorf("rebuild failed: %w", err)
	}

	if report.Skipped {
		cmd.Printf("Index up to date (%d chunks). Use --force to rebuild anyway.\n", report.AddedChunks)
		return nil
	}

	cmd.Printf("Index rebuilt: %d chunks.\n", report.AddedChunks)
	printIngestErrors(cmd, report)
	return nil
}

func printIngestErrors(cmd *cobra.Command, report *domain.RebuildReport) {
	if len(report.Errors) == 0 {
		return
	}

	cmd.Printf("%d source(s) skipped:\n", len(report.Errors))
	for _, parseErr := range report.Errors {
		cmd.Printf("  - %v\n", parseErr)
	}
}
