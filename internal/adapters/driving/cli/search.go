package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/ragmem/internal/core/ports/driving"
)

var (
	searchNum      int
	searchBucket   string
	searchPriority bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the synced corpus without generating an answer",
	Long: `Runs a similarity search over the bucket and prints the raw
results. With --priority, results from priority sources are listed
first regardless of certainty.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchNum, "num", "n", 0, "number of results")
	searchCmd.Flags().StringVarP(&searchBucket, "bucket", "b", "", "override bucket name")
	searchCmd.Flags().BoolVarP(&searchPriority, "priority", "p", false, "order priority sources first")
	searchCmd.Flags().BoolVarP(&searchJSON, "json", "j", false, "output structured JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := buildServices(); err != nil {
		return err
	}
	query := strings.Join(args, " ")

	results, err := searchService.Search(cmd.Context(), query, driving.SearchOptions{
		NumDocs:    searchNum,
		Bucket:     searchBucket,
		Prioritise: searchPriority,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, r := range results {
		cmd.Printf("[%d] %s (certainty: %.3f)\n", i+1, r.Source, r.Certainty)
		cmd.Println(truncate(r.Content, 500))
		cmd.Println()
	}
	return nil
}
