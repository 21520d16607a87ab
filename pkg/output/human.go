package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/dupescout/pkg/models"
)

// HumanExporter renders the report for reading on a console
type HumanExporter struct {
	// HashPrefixLen limits how much of each digest is printed;
	// 0 means the default of 12 characters
	HashPrefixLen int
}

// NewHumanExporter creates a new human-readable exporter
func NewHumanExporter() *HumanExporter {
	return &HumanExporter{}
}

// Export writes the report in human-readable format
func (e *HumanExporter) Export(w io.Writer, report *models.ScanReport) error {
	prefixLen := e.HashPrefixLen
	if prefixLen <= 0 {
		prefixLen = 12
	}

	if len(report.Groups) == 0 {
		fmt.Fprintf(w, "No duplicate files found.\n")
	} else {
		fmt.Fprintf(w, "Found %d duplicate group(s), %s reclaimable\n\n",
			len(report.Groups), formatBytes(report.Stats.WastedBytes))

		for i, group := range report.Groups {
			hash := group.Hash
			if len(hash) > prefixLen {
				hash = hash[:prefixLen]
			}
			fmt.Fprintf(w, "Group %d: %d files, %s each [%s %s]\n",
				i+1, group.Count(), formatBytes(group.Size),
				report.HashAlgorithm, hash)
			for _, path := range group.Paths {
				fmt.Fprintf(w, "  %s\n", path)
			}
			fmt.Fprintf(w, "\n")
		}
	}

	if len(report.ZeroByte) > 0 {
		fmt.Fprintf(w, "Zero-byte files: %d (excluded from grouping)\n", len(report.ZeroByte))
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped:\n")
		for _, skipped := range report.Skipped {
			fmt.Fprintf(w, "  %s: %s\n", skipped.Path, skipped.Reason)
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Scan completed in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Scanned:    %d files, %d dirs, %s\n",
		report.Stats.FilesScanned, report.Stats.DirsScanned,
		formatBytes(report.Stats.BytesScanned))
	fmt.Fprintf(w, "  Candidates: %d files in %d shared-size bucket(s)\n",
		report.Stats.CandidateFiles,
		report.Stats.SizeBuckets)
	fmt.Fprintf(w, "  Hashed:     %d files, %s\n",
		report.Stats.FilesHashed, formatBytes(report.Stats.BytesHashed))
	fmt.Fprintf(w, "  Duplicates: %d files in %d group(s)\n",
		report.Stats.DuplicateFiles, report.Stats.DuplicateGroups)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	return nil
}

// Name returns the exporter name
func (e *HumanExporter) Name() string {
	return "human"
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
