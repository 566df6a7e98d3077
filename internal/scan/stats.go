package scan

import (
	"fmt"
	"strings"
	"time"
)

// Stats summarize one scan pass.
type Stats struct {
	ScanID       string        `json:"scan_id"`
	FilesScanned int           `json:"files_scanned"`
	FilesSkipped int           `json:"files_skipped"`
	FilesFailed  int           `json:"files_failed"`
	FilesDeleted int           `json:"files_deleted"`
	Functions    int           `json:"functions"`
	Types        int           `json:"types"`
	Procedures   int           `json:"procedures"`
	Duration     time.Duration `json:"duration"`
}

// Summary renders the stats the way the CLI prints them after a scan.
func (s *Stats) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "✓ Scan complete: %d files in %.1fs", s.FilesScanned, s.Duration.Seconds())
	if s.FilesSkipped > 0 {
		fmt.Fprintf(&b, " (%d unchanged)", s.FilesSkipped)
	}
	if s.FilesFailed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.FilesFailed)
	}
	if s.FilesDeleted > 0 {
		fmt.Fprintf(&b, " (%d removed)", s.FilesDeleted)
	}
	fmt.Fprintf(&b, "\n  Functions:  %d", s.Functions)
	fmt.Fprintf(&b, "\n  Types:      %d", s.Types)
	fmt.Fprintf(&b, "\n  Procedures: %d", s.Procedures)

	return b.String()
}
