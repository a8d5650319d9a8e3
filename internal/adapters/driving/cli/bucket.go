package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createBucketCmd = &cobra.Command{
	Use:   "create-bucket",
	Short: "Create the configured bucket",
	Long: `Creates the configured bucket in the configured region. Creating
a bucket that already exists succeeds quietly.`,
	Args: cobra.NoArgs,
	RunE: runCreateBucket,
}

func init() {
	rootCmd.AddCommand(createBucketCmd)
}

func runCreateBucket(cmd *cobra.Command, _ []string) error {
	if err := buildServices(); err != nil {
		return err
	}

	if err := objectStore.CreateBucket(cmd.Context()); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	if !quiet {
		cmd.Printf("Bucket %q ready\n", cfg.Bucket)
	}
	return nil
}
