// Package cli provides the ragmem command-line interface. Commands
// wire the driven adapters to the core services at invocation time so
// config and credential failures surface per command, not at startup.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	aitelnyx "github.com/openclaw/ragmem/internal/adapters/driven/ai/telnyx"
	"github.com/openclaw/ragmem/internal/adapters/driven/auth"
	configfile "github.com/openclaw/ragmem/internal/adapters/driven/config/file"
	statefile "github.com/openclaw/ragmem/internal/adapters/driven/state/file"
	storagetelnyx "github.com/openclaw/ragmem/internal/adapters/driven/storage/telnyx"
	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/core/ports/driving"
	"github.com/openclaw/ragmem/internal/core/services"
	"github.com/openclaw/ragmem/internal/logger"
)

var (
	verbose    bool
	quiet      bool
	configPath string

	cfg domain.Config

	syncEngine    driving.SyncEngine
	answerService driving.AnswerService
	searchService driving.SearchService
	objectStore   driven.ObjectStore
	embedder      driven.Embedder
)

var rootCmd = &cobra.Command{
	Use:   "ragmem",
	Short: "Sync workspace files to Telnyx Storage and query them with RAG",
	Long: `ragmem keeps a workspace of markdown and JSON files synchronised
with a Telnyx Cloud Storage bucket and answers questions over the
synced corpus using retrieval-augmented generation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose && !quiet)

		store, err := configfile.NewConfigStore(configPath)
		if err != nil {
			return fmt.Errorf("open config: %w", err)
		}
		cfg, err = store.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.ragmem/config.toml)")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// buildServices resolves credentials and wires the adapters into the
// core services. Called by every command needing network access.
func buildServices() error {
	key, err := auth.NewEnvCredentials(cfg.Workspace).APIKey()
	if err != nil {
		return fmt.Errorf("%w: set TELNYX_API_KEY or add it to %s/.env", err, cfg.Workspace)
	}

	store := storagetelnyx.NewClient(key, cfg.Bucket, cfg.Region)
	state := statefile.NewStateStore(filepath.Join(cfg.Workspace, statefile.DefaultStateFile))
	ai, err := aitelnyx.NewClient(aitelnyx.Config{
		APIKey:         key,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})
	if err != nil {
		return fmt.Errorf("create AI client: %w", err)
	}

	objectStore = store
	embedder = ai
	syncEngine = services.NewSyncEngine(store, state, cfg)
	answerService = services.NewAnswerPipeline(ai, ai, cfg)
	searchService = services.NewSearchPipeline(ai, cfg)
	return nil
}
