package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/logger"
)

// watchDebounce coalesces editor write bursts into one rebuild.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild automatically when the source manifest changes",
	Long: `Loads the index, then watches the source manifest file and runs a
rebuild whenever it changes. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ingestOrchestrator.Start(ctx); err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory: editors replace files by rename,
	// which drops a watch placed on the file itself.
	manifestPath, err := filepath.Abs(cfg.Manifest)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(manifestPath)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(manifestPath), err)
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", manifestPath)

	var timer *time.Timer
	rebuilds := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopping.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != manifestPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("manifest event: %s", event)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case rebuilds <- struct{}{}:
				default:
				}
			})

		case <-rebuilds:
			cmd.Println("Manifest changed, rebuilding...")
			report, err := ingestOrchestrator.Rebuild(ctx, false)
			switch {
			case errors.Is(err, domain.ErrRebuildInProgress):
				// A rebuild is already running; the next event retries.
			case err != nil:
				logger.Error("rebuild failed: %v", err)
			case report.Skipped:
				cmd.Println("No effective change, rebuild skipped.")
			default:
				cmd.Printf("Index rebuilt: %d chunks.\n", report.AddedChunks)
				printIngestErrors(cmd, report)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}
