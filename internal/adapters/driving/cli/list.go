package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List objects in the bucket",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := buildServices(); err != nil {
		return err
	}

	keys, err := objectStore.List(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("list bucket: %w", err)
	}
	sort.Strings(keys)

	cmd.Printf("Objects in %s (%d):\n", cfg.Bucket, len(keys))
	for _, key := range keys {
		cmd.Println("  " + key)
	}
	return nil
}
