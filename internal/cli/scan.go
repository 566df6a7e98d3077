package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/sigmap/internal/discovery"
	"github.com/mvp-joe/sigmap/internal/extract"
	"github.com/mvp-joe/sigmap/internal/report"
	"github.com/mvp-joe/sigmap/internal/scan"
)

var (
	scanExcludeFlag  []string
	scanDepthFlag    int
	scanForceFlag    bool
	scanQuietFlag    bool
	scanPrintFlag    bool
	scanExportedFlag bool
	scanWatchFlag    bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the workspace and build the signature store",
	Long: `Scan walks the workspace, parses TypeScript sources, and writes the
extracted function and type signatures to .sigmap/sigmap.db.

Unchanged files (same size and modification time as the last scan) are
skipped, files that failed to parse are logged and skipped, and files
that vanished since the last scan are removed from the store.

Examples:
  # Scan the current directory
  sigmap scan

  # Rescan everything, ignoring stored file states
  sigmap scan --force

  # Scan, then print the signature map
  sigmap scan --print

  # Keep watching for changes and rescan incrementally
  sigmap scan --watch

  # Render nested object types one level deeper
  sigmap scan --depth 3
`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringSliceVar(&scanExcludeFlag, "exclude", nil, "Extra exclude patterns (added to the configured ones)")
	scanCmd.Flags().IntVar(&scanDepthFlag, "depth", 0, "Type render depth (overrides the configured value)")
	scanCmd.Flags().BoolVarP(&scanForceFlag, "force", "f", false, "Rescan files even when size and mtime are unchanged")
	scanCmd.Flags().BoolVarP(&scanQuietFlag, "quiet", "q", false, "Disable the progress bar and non-error output")
	scanCmd.Flags().BoolVarP(&scanPrintFlag, "print", "p", false, "Print the signature map after scanning")
	scanCmd.Flags().BoolVar(&scanExportedFlag, "exported-only", false, "With --print, keep exported declarations and router procedures")
	scanCmd.Flags().BoolVarP(&scanWatchFlag, "watch", "w", false, "Watch for file changes and rescan incrementally")
}

func runScan(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling scan...")
		cancel()
	}()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := loadWorkspaceConfig(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	excludes := cfg.Scan.Exclude
	if len(scanExcludeFlag) > 0 {
		excludes = append(excludes, scanExcludeFlag...)
	}
	depth := cfg.Scan.RenderDepth
	if scanDepthFlag > 0 {
		depth = scanDepthFlag
	}
	storePath := cfg.StorePath(rootDir)

	if verbose {
		fmt.Fprintf(os.Stderr, "Workspace: %s\n", rootDir)
		fmt.Fprintf(os.Stderr, "Store:     %s\n", storePath)
	}

	scanner, err := scan.New(scan.Config{
		RootDir:   rootDir,
		StorePath: storePath,
		Excludes:  excludes,
		Extract: extract.Options{
			RenderDepth:     depth,
			RouterFactories: cfg.Scan.RouterFactories,
		},
		Force: scanForceFlag,
		Quiet: scanQuietFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}
	defer scanner.Close()

	stats, err := scanner.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("scan cancelled")
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if !scanQuietFlag {
		fmt.Println(stats.Summary())
	}

	if scanPrintFlag {
		if err := printSignatureMap(storePath, scanExportedFlag); err != nil {
			return err
		}
	}

	if scanWatchFlag {
		return watchAndRescan(ctx, scanner, rootDir, excludes)
	}

	return nil
}

// watchAndRescan blocks, rerunning the scanner whenever workspace sources
// change. The scanner is reused so its parse cache keeps paying off across
// rescans.
func watchAndRescan(ctx context.Context, scanner *scan.Scanner, rootDir string, excludes []string) error {
	disc, err := discovery.New(excludes)
	if err != nil {
		return fmt.Errorf("failed to build discovery for watch mode: %w", err)
	}

	watcher, err := scan.NewWatcher(rootDir, disc)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	// The watcher batches changes per debounce window; a rescan covers the
	// whole workspace anyway, so collapse signals that arrive mid-scan.
	rescanCh := make(chan struct{}, 1)
	err = watcher.Start(ctx, func(files []string) {
		select {
		case rescanCh <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if !scanQuietFlag {
		fmt.Println("Watching for changes (Ctrl+C to stop)...")
	}

	for {
		select {
		case <-ctx.Done():
			if !scanQuietFlag {
				fmt.Println("Watch mode stopped")
			}
			return nil
		case <-rescanCh:
			stats, err := scanner.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("Rescan failed: %v", err)
				continue
			}
			if !scanQuietFlag {
				fmt.Println(stats.Summary())
			}
		}
	}
}

// printSignatureMap loads the store and prints the formatted signature map.
func printSignatureMap(storePath string, exportedOnly bool) error {
	reader, err := openStoreReader(storePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	results, err := reader.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load signatures: %w", err)
	}

	out := report.NewFormatter().FormatSignatures(results, report.Options{ExportedOnly: exportedOnly})
	if out == "" {
		fmt.Println("No signatures stored")
		return nil
	}
	fmt.Println(out)
	return nil
}
