// Package scan orchestrates a workspace pass: discover source files,
// extract their signatures, and persist the results.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"
	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/sigmap/internal/discovery"
	"github.com/mvp-joe/sigmap/internal/extract"
	"github.com/mvp-joe/sigmap/internal/store"
)

// parseCacheCapacity bounds the per-file parse cache. Entries are keyed by
// path, mtime, and size, so a changed file never hits a stale entry.
const parseCacheCapacity = 8192

// Config wires a Scanner's collaborators and behavior flags.
type Config struct {
	RootDir   string
	StorePath string
	Excludes  []string
	Extract   extract.Options

	// Force rescans files whose size and mtime match the store.
	Force bool
	// Quiet suppresses the progress bar.
	Quiet bool
}

// cachedParse pairs a parse result with the content hash it was built from.
type cachedParse struct {
	result *extract.ParseResult
	hash   string
}

// Scanner runs scan passes against one workspace and one store.
type Scanner struct {
	cfg    Config
	root   string
	disc   discovery.Discovery
	ext    extract.Extractor
	writer *store.Writer
	cache  otter.Cache[string, cachedParse]
}

// New builds a Scanner: compiles exclusions, opens (or creates) the store,
// and sets up the extractor and parse cache.
func New(cfg Config) (*Scanner, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", cfg.RootDir, err)
	}

	disc, err := discovery.New(cfg.Excludes)
	if err != nil {
		return nil, err
	}

	writer, err := store.NewWriter(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	cache, err := otter.MustBuilder[string, cachedParse](parseCacheCapacity).
		Cost(func(key string, value cachedParse) uint32 { return 1 }).
		Build()
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to build parse cache: %w", err)
	}

	return &Scanner{
		cfg:    cfg,
		root:   root,
		disc:   disc,
		ext:    extract.NewExtractor(cfg.Extract),
		writer: writer,
		cache:  cache,
	}, nil
}

// Run performs one scan pass. Unchanged files are skipped unless Force is
// set, files that vanished since the last pass are removed from the store,
// and per-file failures are logged and counted rather than aborting.
func (s *Scanner) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{ScanID: uuid.New().String()}

	files, err := s.disc.DiscoverFiles(s.root)
	if err != nil {
		return nil, err
	}

	reader := store.NewReaderWithDB(s.writer.DB())
	known, err := reader.FileStates()
	if err != nil {
		return nil, fmt.Errorf("failed to load stored file states: %w", err)
	}

	bar := s.newProgressBar(len(files))
	seen := make(map[string]bool, len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true

		info, err := os.Stat(path)
		if err != nil {
			log.Printf("Warning: failed to stat %s: %v", rel, err)
			stats.FilesFailed++
			bar.Add(1)
			continue
		}

		if prev, ok := known[rel]; ok && !s.cfg.Force &&
			prev.SizeBytes == info.Size() && prev.MTime.Equal(info.ModTime()) {
			stats.FilesSkipped++
			bar.Add(1)
			continue
		}

		parsed, err := s.parseFile(path, rel, info)
		if err != nil {
			log.Printf("Warning: failed to parse %s: %v", rel, err)
			stats.FilesFailed++
			bar.Add(1)
			continue
		}

		record := store.FileRecord{
			FilePath:  rel,
			FileHash:  parsed.hash,
			SizeBytes: info.Size(),
			MTime:     info.ModTime(),
			ScannedAt: time.Now(),
		}
		if err := s.writer.ReplaceFile(record, parsed.result); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", rel, err)
		}

		stats.FilesScanned++
		for _, fn := range parsed.result.Functions {
			if fn.IsProcedure {
				stats.Procedures++
			} else {
				stats.Functions++
			}
		}
		stats.Types += len(parsed.result.Types)
		bar.Add(1)
	}

	removed := make([]string, 0)
	for rel := range known {
		if !seen[rel] {
			removed = append(removed, rel)
		}
	}
	sort.Strings(removed)
	if err := s.writer.DeleteFiles(removed); err != nil {
		return nil, fmt.Errorf("failed to remove vanished files: %w", err)
	}
	stats.FilesDeleted = len(removed)

	stats.Duration = time.Since(start)

	if err := s.writer.SetMetadata("last_scan_id", stats.ScanID); err != nil {
		return nil, err
	}
	if err := s.writer.SetMetadata("last_scan_time", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	return stats, nil
}

// Close releases the parse cache and the store connection.
func (s *Scanner) Close() error {
	s.cache.Close()
	return s.writer.Close()
}

// parseFile returns the signatures for one file, reusing the cached parse
// when the file's mtime and size are unchanged (a forced rescan, for
// example, revisits every file without reparsing any of them).
func (s *Scanner) parseFile(path, rel string, info os.FileInfo) (cachedParse, error) {
	key := fmt.Sprintf("%s|%d|%d", rel, info.ModTime().UnixNano(), info.Size())
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return cachedParse{}, err
	}
	sum := sha256.Sum256(source)

	result, err := s.ext.ParseFile(rel, source)
	if err != nil {
		return cachedParse{}, err
	}

	parsed := cachedParse{result: result, hash: hex.EncodeToString(sum[:])}
	s.cache.Set(key, parsed)
	return parsed, nil
}

func (s *Scanner) newProgressBar(total int) *progressbar.ProgressBar {
	if s.cfg.Quiet {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}
