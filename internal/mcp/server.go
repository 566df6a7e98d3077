package mcp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/sigmap/internal/config"
	"github.com/mvp-joe/sigmap/internal/extract"
	"github.com/mvp-joe/sigmap/internal/scan"
)

// Server manages the MCP server lifecycle: it owns the in-memory signature
// view, keeps it fresh while the store file changes, and serves the
// signature tools over stdio.
type Server struct {
	root      string
	storePath string
	cfg       *config.Config
	searcher  SignatureSearcher
	watcher   *StoreWatcher
	mcp       *server.MCPServer
}

// NewServer creates an MCP server rooted at the given workspace. A workspace
// with no signature store yet gets one from an initial scan.
func NewServer(ctx context.Context, root string, cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		root:      root,
		storePath: cfg.StorePath(root),
		cfg:       cfg,
	}

	if _, err := os.Stat(s.storePath); errors.Is(err, fs.ErrNotExist) {
		log.Printf("No signature store at %s, running initial scan", s.storePath)
		if _, err := s.scanWorkspace(ctx, false); err != nil {
			return nil, fmt.Errorf("initial scan failed: %w", err)
		}
	}

	searcher, err := NewSignatureSearcher(ctx, s.storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load signature store: %w", err)
	}
	s.searcher = searcher

	watcher, err := NewStoreWatcher(searcher, s.storePath)
	if err != nil {
		searcher.Close()
		return nil, fmt.Errorf("failed to create store watcher: %w", err)
	}
	s.watcher = watcher

	mcpServer := server.NewMCPServer(
		"sigmap-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	AddGetSignaturesTool(mcpServer, searcher)
	AddSearchSignaturesTool(mcpServer, searcher)
	AddScanWorkspaceTool(mcpServer, s.scanAndReload)
	s.mcp = mcpServer

	return s, nil
}

// scanWorkspace runs one scan pass over the workspace. The progress bar
// stays off: stdout carries the MCP protocol.
func (s *Server) scanWorkspace(ctx context.Context, force bool) (*scan.Stats, error) {
	scanner, err := scan.New(scan.Config{
		RootDir:   s.root,
		StorePath: s.storePath,
		Excludes:  s.cfg.Scan.Exclude,
		Extract: extract.Options{
			RenderDepth:     s.cfg.Scan.RenderDepth,
			RouterFactories: s.cfg.Scan.RouterFactories,
		},
		Force: force,
		Quiet: true,
	})
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	return scanner.Run(ctx)
}

// scanAndReload backs the scan_workspace tool: scan, then fold the fresh
// store into the searcher immediately instead of waiting for the watcher.
func (s *Server) scanAndReload(ctx context.Context, force bool) (*scan.Stats, error) {
	stats, err := s.scanWorkspace(ctx, force)
	if err != nil {
		return nil, err
	}
	if err := s.searcher.Reload(ctx); err != nil {
		log.Printf("Warning: failed to reload after scan: %v", err)
	}
	return stats, nil
}

// Serve starts the MCP server and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	// Start store watcher
	s.watcher.Start(ctx)
	defer s.watcher.Stop()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Start MCP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio (workspace %s)...", s.root)
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.searcher != nil {
		return s.searcher.Close()
	}
	return nil
}
