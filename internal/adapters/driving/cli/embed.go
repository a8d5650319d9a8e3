package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Trigger embedding of the bucket",
	Long: `Asks the AI service to (re-)embed the bucket contents so they
become searchable. Embedding runs asynchronously; use
'ragmem embed status <task-id>' to follow progress.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

var embedStatusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Check the status of an embedding task",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbedStatus,
}

func init() {
	embedCmd.AddCommand(embedStatusCmd)
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if err := buildServices(); err != nil {
		return err
	}

	taskID, err := embedder.TriggerEmbedding(cmd.Context(), cfg.Bucket)
	if err != nil {
		return fmt.Errorf("trigger embedding: %w", err)
	}
	if !quiet {
		cmd.Printf("Embedding triggered on %s\n", cfg.Bucket)
		if taskID != "" {
			cmd.Printf("Task ID: %s\n", taskID)
			cmd.Printf("Check progress with: ragmem embed status %s\n", taskID)
		}
	}
	return nil
}

func runEmbedStatus(cmd *cobra.Command, args []string) error {
	if err := buildServices(); err != nil {
		return err
	}

	task, err := embedder.EmbeddingStatus(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("embedding status: %w", err)
	}

	cmd.Printf("Task %s: %s (%.0f%%)\n", task.ID, task.Status, task.Progress)
	if task.Status == "failed" && task.Detail != "" {
		cmd.Printf("Error: %s\n", task.Detail)
	}
	return nil
}
