package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/sigmap/internal/config"
	"github.com/mvp-joe/sigmap/internal/store"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sigmap",
	Short: "Sigmap - TypeScript signature maps for code assistants",
	Long: `Sigmap scans a TypeScript workspace, extracts function and type
signatures, and stores them in a local SQLite database that coding
assistants can query through the CLI or the MCP server.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.sigmap/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadWorkspaceConfig loads the workspace configuration, honoring the
// --config flag when set.
func loadWorkspaceConfig(rootDir string) (*config.Config, error) {
	if cfgFile != "" {
		return config.NewFileLoader(rootDir, cfgFile).Load()
	}
	return config.LoadConfigFromDir(rootDir)
}

// openStoreReader opens the signature store for reading, turning a missing
// database into a hint to scan first.
func openStoreReader(storePath string) (*store.Reader, error) {
	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no signature store found at %s (run 'sigmap scan' first)", storePath)
	}
	return store.NewReader(storePath)
}
