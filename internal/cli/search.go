package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	searchLimitFlag    int
	searchExportedFlag bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored signatures by name or signature text",
	Long: `Search runs a full-text query over the signature store and prints the
matches, most relevant first. The query uses SQLite FTS5 syntax, so
phrases and column filters work.

Examples:
  # Match by name
  sigmap search loadUser

  # Match signature text
  sigmap search "Promise"

  # Phrase query against full signatures
  sigmap search '"id: string"'

  # Only exported declarations and router procedures
  sigmap search User --exported-only
`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimitFlag, "limit", "n", 20, "Maximum number of matches to print")
	searchCmd.Flags().BoolVar(&searchExportedFlag, "exported-only", false, "Keep exported declarations and router procedures")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := loadWorkspaceConfig(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reader, err := openStoreReader(cfg.StorePath(rootDir))
	if err != nil {
		return err
	}
	defer reader.Close()

	results, err := reader.Search(query, searchLimitFlag, searchExportedFlag)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No matches for %q\n", query)
		return nil
	}

	for _, res := range results {
		fmt.Printf("%s\n    %s\n", res.FullSignature, res.FilePath)
	}
	return nil
}
