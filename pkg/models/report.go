package models

import (
	"time"
)

// ScanReport represents the results of a duplicate scan
type ScanReport struct {
	// Operation details
	OperationID   string
	Roots         []string
	HashAlgorithm HashAlgorithm

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Groups holds the duplicate groups, in the order their size bucket
	// was first seen during the walk
	Groups []DuplicateGroup

	// ZeroByte lists zero-byte files, which are reported separately and
	// excluded from grouping unless explicitly requested
	ZeroByte []FileRecord

	// Skipped lists roots and files dropped from the scan
	Skipped []SkippedFile

	// Overall status
	Status ScanStatus
}

// Statistics holds scan metrics
type Statistics struct {
	// Walk phase
	FilesScanned int
	DirsScanned  int
	BytesScanned int64

	// Grouping phase
	SizeBuckets    int // distinct sizes seen
	CandidateFiles int // files in multi-member size buckets
	FilesHashed    int
	BytesHashed    int64

	// Outcome
	DuplicateGroups int
	DuplicateFiles  int
	WastedBytes     int64 // reclaimable by keeping one copy per group
	ZeroByteFiles   int
	FilesSkipped    int
}

// ScanStatus represents the overall result
type ScanStatus string

const (
	// StatusSuccess indicates the scan completed without skipping anything
	StatusSuccess ScanStatus = "success"
	// StatusPartial indicates some roots or files were skipped
	StatusPartial ScanStatus = "partial"
	// StatusFailed indicates the scan could not run at all
	StatusFailed ScanStatus = "failed"
	// StatusCancelled indicates the scan was cancelled
	StatusCancelled ScanStatus = "cancelled"
)

// ExitCode returns the appropriate process exit code for the scan status
func (s ScanStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// Finalize derives the outcome statistics and status from the collected
// groups and skip list
func (r *ScanReport) Finalize() {
	r.Stats.DuplicateGroups = len(r.Groups)
	r.Stats.DuplicateFiles = 0
	r.Stats.WastedBytes = 0
	for i := range r.Groups {
		r.Stats.DuplicateFiles += r.Groups[i].Count()
		r.Stats.WastedBytes += r.Groups[i].WastedBytes()
	}
	r.Stats.ZeroByteFiles = len(r.ZeroByte)
	r.Stats.FilesSkipped = len(r.Skipped)

	if r.Status == StatusFailed || r.Status == StatusCancelled {
		return
	}
	if len(r.Skipped) > 0 {
		r.Status = StatusPartial
	} else {
		r.Status = StatusSuccess
	}
}
