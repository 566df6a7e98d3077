// Package discovery finds the TypeScript source files a scan covers.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// sourceExtensions are the file types the extractor understands.
var sourceExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
}

// defaultExcludes are directories that never hold first-party sources.
var defaultExcludes = []string{
	"node_modules",
	"dist",
	"build",
	"out",
	"coverage",
	".git",
	".next",
	".turbo",
	".cache",
	".sigmap",
}

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery walks a directory tree and lists the files worth parsing.
type Discovery interface {
	// DiscoverFiles returns the absolute paths of all TypeScript sources
	// under rootPath, sorted, with exclusions applied.
	DiscoverFiles(rootPath string) ([]string, error)

	// ExcludesDir reports whether a directory at relPath (slash-separated,
	// relative to the scan root) matches an exclusion pattern. Watchers use
	// it to prune directories a scan would never visit.
	ExcludesDir(relPath string) bool
}

type discovery struct {
	excludePatterns []compiledPattern
}

// New compiles the default and caller-supplied exclusions into a Discovery.
// Caller patterns may be bare folder names, file names, or globs; see
// NormalizePattern.
func New(excludes []string) (Discovery, error) {
	patterns := make([]string, 0, len(defaultExcludes)+len(excludes))
	for _, name := range defaultExcludes {
		patterns = append(patterns, NormalizePattern(name))
	}
	for _, raw := range excludes {
		patterns = append(patterns, NormalizePattern(raw))
	}

	d := &discovery{}
	for _, pattern := range patterns {
		if err := d.addPattern(pattern); err != nil {
			return nil, err
		}
		// The glob library wants the slash in **/ to be present, so
		// "**/name" never matches a bare root-level "name". Compile a copy
		// anchored at the root to cover depth zero.
		if rooted := strings.TrimPrefix(pattern, "**/"); rooted != pattern {
			if err := d.addPattern(rooted); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func (d *discovery) addPattern(pattern string) error {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
	}
	d.excludePatterns = append(d.excludePatterns, compiledPattern{pattern: pattern, glob: g})
	return nil
}

// NormalizePattern turns user shorthand into a glob: a bare name excludes a
// folder anywhere (**/name/**), a dotted name excludes a file anywhere
// (**/name), and anything already containing glob syntax passes through.
func NormalizePattern(raw string) string {
	if strings.ContainsAny(raw, "*?[{") {
		return raw
	}
	if strings.Contains(raw, ".") {
		return "**/" + raw
	}
	return "**/" + raw + "/**"
}

func (d *discovery) DiscoverFiles(rootPath string) ([]string, error) {
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", rootPath, err)
	}

	files := []string{}
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if entry.IsDir() {
			// Pruning matched directories keeps node_modules walks cheap.
			if d.shouldExclude(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsSourceFile(path) {
			return nil
		}
		if d.shouldExclude(relPath) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func (d *discovery) ExcludesDir(relPath string) bool {
	return d.shouldExclude(relPath)
}

// IsSourceFile accepts the TypeScript extensions and rejects declaration
// files, which restate library surface rather than first-party code.
func IsSourceFile(path string) bool {
	if !sourceExtensions[filepath.Ext(path)] {
		return false
	}
	base := filepath.Base(path)
	for _, suffix := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	return true
}

// shouldExclude checks a slash-separated relative path against every
// exclusion, retrying with a /** suffix so a directory matches patterns
// written for its contents.
func (d *discovery) shouldExclude(relPath string) bool {
	if d.matchesAnyPattern(relPath) {
		return true
	}
	return d.matchesAnyPattern(relPath + "/**")
}

func (d *discovery) matchesAnyPattern(path string) bool {
	for _, cp := range d.excludePatterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	return false
}
