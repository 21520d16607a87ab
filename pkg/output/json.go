package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/dupescout/pkg/models"
)

// JSONExporter renders the report as JSON for automation and scripting
type JSONExporter struct{}

// JSONReport is the top-level JSON schema
type JSONReport struct {
	OperationID string            `json:"operation_id"`
	Generated   string            `json:"generated"`
	Roots       []string          `json:"roots"`
	Hash        string            `json:"hash"`
	Status      string            `json:"status"`
	Duration    string            `json:"duration"`
	DurationMs  int64             `json:"duration_ms"`
	Stats       JSONStats         `json:"stats"`
	Groups      []JSONGroup       `json:"groups"`
	ZeroByte    []string          `json:"zero_byte_files,omitempty"`
	Skipped     []JSONSkippedFile `json:"skipped,omitempty"`
}

// JSONGroup represents one duplicate group
type JSONGroup struct {
	Size  int64    `json:"size"`
	Hash  string   `json:"hash"`
	Paths []string `json:"paths"`
}

// JSONSkippedFile represents a skipped root or file
type JSONSkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// JSONStats represents scan statistics
type JSONStats struct {
	FilesScanned    int   `json:"files_scanned"`
	DirsScanned     int   `json:"dirs_scanned"`
	BytesScanned    int64 `json:"bytes_scanned"`
	SizeBuckets     int   `json:"size_buckets"`
	CandidateFiles  int   `json:"candidate_files"`
	FilesHashed     int   `json:"files_hashed"`
	BytesHashed     int64 `json:"bytes_hashed"`
	DuplicateGroups int   `json:"duplicate_groups"`
	DuplicateFiles  int   `json:"duplicate_files"`
	WastedBytes     int64 `json:"wasted_bytes"`
	ZeroByteFiles   int   `json:"zero_byte_files"`
	FilesSkipped    int   `json:"files_skipped"`
}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export writes the report as indented JSON
func (e *JSONExporter) Export(w io.Writer, report *models.ScanReport) error {
	groups := make([]JSONGroup, 0, len(report.Groups))
	for _, group := range report.Groups {
		groups = append(groups, JSONGroup{
			Size:  group.Size,
			Hash:  group.Hash,
			Paths: group.Paths,
		})
	}

	var zeroByte []string
	for _, rec := range report.ZeroByte {
		zeroByte = append(zeroByte, rec.Path)
	}

	var skipped []JSONSkippedFile
	for _, s := range report.Skipped {
		entry := JSONSkippedFile{Path: s.Path, Reason: s.Reason}
		if s.Err != nil {
			entry.Error = s.Err.Error()
		}
		skipped = append(skipped, entry)
	}

	out := JSONReport{
		OperationID: report.OperationID,
		Generated:   time.Now().Format(time.RFC3339),
		Roots:       report.Roots,
		Hash:        string(report.HashAlgorithm),
		Status:      string(report.Status),
		Duration:    report.Duration.Round(time.Millisecond).String(),
		DurationMs:  report.Duration.Milliseconds(),
		Stats: JSONStats{
			FilesScanned:    report.Stats.FilesScanned,
			DirsScanned:     report.Stats.DirsScanned,
			BytesScanned:    report.Stats.BytesScanned,
			SizeBuckets:     report.Stats.SizeBuckets,
			CandidateFiles:  report.Stats.CandidateFiles,
			FilesHashed:     report.Stats.FilesHashed,
			BytesHashed:     report.Stats.BytesHashed,
			DuplicateGroups: report.Stats.DuplicateGroups,
			DuplicateFiles:  report.Stats.DuplicateFiles,
			WastedBytes:     report.Stats.WastedBytes,
			ZeroByteFiles:   report.Stats.ZeroByteFiles,
			FilesSkipped:    report.Stats.FilesSkipped,
		},
		Groups:   groups,
		ZeroByte: zeroByte,
		Skipped:  skipped,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// Name returns the exporter name
func (e *JSONExporter) Name() string {
	return "json"
}
