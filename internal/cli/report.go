package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var reportExportedFlag bool

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the signature map from the store",
	Long: `Report prints every stored file's signatures, grouped by file path with
a Types section and a Functions section per file. It reads the store
written by 'sigmap scan' and never touches the sources.

Examples:
  # Print the full signature map
  sigmap report

  # Only exported declarations and router procedures
  sigmap report --exported-only
`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportExportedFlag, "exported-only", false, "Keep exported declarations and router procedures")
}

func runReport(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := loadWorkspaceConfig(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	storePath := cfg.StorePath(rootDir)

	if verbose {
		printStoreInfo(storePath)
	}

	return printSignatureMap(storePath, reportExportedFlag)
}

// printStoreInfo reports when the store was last written, if known.
func printStoreInfo(storePath string) {
	reader, err := openStoreReader(storePath)
	if err != nil {
		return
	}
	defer reader.Close()

	if lastScan, err := reader.Metadata("last_scan_time"); err == nil && lastScan != "" {
		fmt.Fprintf(os.Stderr, "Store: %s (last scan %s)\n", storePath, lastScan)
	}
}
