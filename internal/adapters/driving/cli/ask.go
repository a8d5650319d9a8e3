package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/ragmem/internal/core/ports/driving"
)

var (
	askNum     int
	askModel   string
	askBucket  string
	askContext bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask a question over the synced corpus",
	Long: `Runs the full retrieval-augmented pipeline: retrieves candidate
chunks, reranks them and generates a grounded answer citing its
sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askNum, "num", "n", 0, "number of context chunks to use")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "generation model")
	askCmd.Flags().StringVarP(&askBucket, "bucket", "b", "", "override bucket name")
	askCmd.Flags().BoolVarP(&askContext, "context", "c", false, "show retrieved context chunks")
	askCmd.Flags().BoolVarP(&askJSON, "json", "j", false, "output structured JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := buildServices(); err != nil {
		return err
	}
	query := strings.Join(args, " ")

	answer, err := answerService.Answer(cmd.Context(), query, driving.AnswerOptions{
		KeepN:          askNum,
		Model:          askModel,
		Bucket:         askBucket,
		IncludeContext: askContext,
	})
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if answer.NoResults {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources: " + strings.Join(answer.Sources, ", "))

	if askContext {
		cmd.Println()
		cmd.Printf("Retrieved context chunks (%d):\n", answer.ChunksUsed)
		for i, c := range answer.Context {
			cmd.Println()
			cmd.Printf("[%d] %s (certainty: %.3f)\n", i+1, c.Source, c.Certainty)
			cmd.Println(truncate(c.Content, 1000))
		}
	}
	return nil
}

// truncate shortens long chunk bodies for terminal output.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
