package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchLimitFlag  int
	searchCommitFlag string
)

// searchCmd runs a full-text query over symbol names, fully-qualified
// names, and doc comments.
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over symbol names and doc comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimitFlag, "limit", 20, "maximum results")
	searchCmd.Flags().StringVar(&searchCommitFlag, "commit", "", "commit id to query (default: latest scanned)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	reader, _, closeDB, err := openReader()
	if err != nil {
		return err
	}
	defer closeDB()

	commitID, err := resolveCommit(reader, searchCommitFlag)
	if err != nil {
		return err
	}

	results, err := reader.FindSymbols(commitID, args[0], searchLimitFlag)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%.3f\t%s\t%s\t%s\n", r.Score, r.Symbol.Kind, r.Symbol.FQN, r.Symbol.FilePath)
	}
	return nil
}
