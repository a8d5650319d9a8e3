package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driving"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check bucket and embedding status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := buildServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	cmd.Printf("Status for bucket: %s\n", cfg.Bucket)

	exists, err := objectStore.Head(ctx, "")
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		cmd.Println("  bucket not found (run 'ragmem create-bucket')")
		return nil
	}
	cmd.Println("  bucket exists")

	keys, err := objectStore.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list bucket: %w", err)
	}
	cmd.Printf("  objects indexed: %d\n", len(keys))

	// A one-document probe tells us whether the bucket is embedded.
	_, err = searchService.Search(ctx, "test", driving.SearchOptions{NumDocs: 1})
	switch {
	case err == nil:
		cmd.Println("  embeddings active and searchable")
	case errors.Is(err, domain.ErrClientRejected) && strings.Contains(err.Error(), "404"):
		cmd.Println("  embeddings not enabled (run 'ragmem embed')")
	default:
		cmd.Printf("  embedding status unclear: %v\n", err)
	}
	return nil
}
