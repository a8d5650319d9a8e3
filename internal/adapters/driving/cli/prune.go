package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove orphaned objects from the bucket",
	Long: `Deletes bucket objects this tool has tracked that are no longer
reachable from any live workspace file. Objects the tool never
tracked are left alone.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, _ []string) error {
	if err := buildServices(); err != nil {
		return err
	}

	removed, err := syncEngine.Prune(cmd.Context())
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	if !quiet {
		if removed == 0 {
			cmd.Println("No orphaned objects to remove.")
		} else {
			cmd.Printf("Removed %d orphaned objects\n", removed)
		}
	}
	return nil
}
