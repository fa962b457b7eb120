package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index readiness and build information",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil || indexStore == nil {
		return errors.New("services not configured")
	}

	// Load the persisted index without triggering a build; status
	// must stay read-only.
	snapshot, _, err := indexStore.Load()
	switch {
	case err == nil:
		indexStore.Swap(snapshot)
	case errors.Is(err, os.ErrNotExist):
		cmd.Println("Status:   not ready (no index built; run 'policybot rebuild')")
		return nil
	default:
		return err
	}

	st := retrievalService.Status(context.Background())
	cmd.Println("Status:   ready")
	cmd.Printf("Chunks:   %d\n", st.ChunkCount)
	cmd.Printf("Built:    %s\n", st.LastBuild.Format("2006-01-02 15:04:05 MST"))
	cmd.Printf("Manifest: %s\n", cfg.Manifest)
	cmd.Printf("Index:    %s\n", cfg.IndexDir)
	if st.IngestErrors > 0 {
		cmd.Printf("Warnings: %d source(s) failed during the last ingestion\n", st.IngestErrors)
	}
	return nil
}
