package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/ragmem/internal/core/services"
)

var (
	syncWatch     bool
	syncChunkSize int
	syncEmbed     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise workspace files to the bucket",
	Long: `Runs one incremental sync pass: unchanged files are skipped by
fingerprint, changed files are re-chunked and re-uploaded. With
--watch, keeps running and re-syncs whenever the workspace changes.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "watch for changes and sync continuously")
	syncCmd.Flags().IntVar(&syncChunkSize, "chunk-size", 0, "override chunk size in tokens")
	syncCmd.Flags().BoolVar(&syncEmbed, "embed", false, "trigger bucket embedding after the sync pass")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncChunkSize > 0 {
		cfg.ChunkSize = syncChunkSize
	}
	if err := buildServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if syncWatch {
		if !quiet {
			cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", cfg.Workspace)
		}
		watcher := services.NewWatcher(syncEngine, cfg.Workspace, cfg.WatchInterval)
		if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch failed: %w", err)
		}
		return nil
	}

	summary, err := syncEngine.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if !quiet {
		cmd.Printf("Synced: %d | Skipped: %d | Failed: %d\n",
			summary.Synced, summary.Skipped, summary.Failed)
	}

	if syncEmbed {
		taskID, err := embedder.TriggerEmbedding(ctx, cfg.Bucket)
		if err != nil {
			return fmt.Errorf("trigger embedding: %w", err)
		}
		if !quiet {
			cmd.Printf("Embedding triggered, task %s\n", taskID)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d files failed to sync", summary.Failed)
	}
	return nil
}
