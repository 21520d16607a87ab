package models

import (
	"time"
)

// HashAlgorithm defines which digest confirms content equality
type HashAlgorithm string

const (
	// HashSHA256 is the default, collision-resistant choice
	HashSHA256 HashAlgorithm = "sha256"
	// HashSHA1 is faster and adequate for ad-hoc disk cleanup
	HashSHA1 HashAlgorithm = "sha1"
	// HashMD5 is the fastest and the weakest
	HashMD5 HashAlgorithm = "md5"
)

// ScanOperation represents a duplicate scan configuration
type ScanOperation struct {
	ID              string
	Roots           []string
	HashAlgorithm   HashAlgorithm
	FollowSymlinks  bool
	IncludeZeroByte bool
	MinSize         int64
	ExcludePatterns []string
	SkipBadRoots    bool
	MaxWorkers      int
	BufferSize      int
	BandwidthLimit  int64 // bytes per second, 0 = unlimited
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// Validate checks if the operation configuration is valid
func (op *ScanOperation) Validate() error {
	if len(op.Roots) == 0 {
		return &ValidationError{Field: "Roots", Message: "at least one root directory is required"}
	}
	switch op.HashAlgorithm {
	case HashSHA256, HashSHA1, HashMD5:
	default:
		return &ValidationError{Field: "HashAlgorithm", Message: "must be sha256, sha1 or md5"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.MinSize < 0 {
		return &ValidationError{Field: "MinSize", Message: "min size cannot be negative"}
	}
	return nil
}
