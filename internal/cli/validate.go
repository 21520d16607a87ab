package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/dupescout/internal/platform"
	"github.com/sdejongh/dupescout/pkg/config"
	"github.com/sdejongh/dupescout/pkg/logging"
	"github.com/sdejongh/dupescout/pkg/models"
)

// validateScanFlags validates the scan command flags and root arguments.
// Root existence is checked by the walker itself so that --skip-bad-roots
// can decide per root; this only rejects syntactically broken input.
func validateScanFlags(roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("at least one directory is required")
	}

	for _, root := range roots {
		if err := platform.ValidatePath(root); err != nil {
			return err
		}
	}

	if scanFlags.Hash != "" {
		validHashes := map[string]bool{
			"sha256": true,
			"sha1":   true,
			"md5":    true,
		}
		if !validHashes[scanFlags.Hash] {
			return fmt.Errorf("invalid hash algorithm: %s (valid: sha256, sha1, md5)", scanFlags.Hash)
		}
	}

	if scanFlags.Output != "" {
		validOutputs := map[string]bool{
			"human": true,
			"json":  true,
			"xlsx":  true,
		}
		if !validOutputs[scanFlags.Output] {
			return fmt.Errorf("invalid output format: %s (valid: human, json, xlsx)", scanFlags.Output)
		}
	}

	if scanFlags.MinSize < 0 {
		return fmt.Errorf("min-size cannot be negative")
	}

	if scanFlags.Bandwidth != "" {
		if _, err := parseBandwidth(scanFlags.Bandwidth); err != nil {
			return err
		}
	}

	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) {
	if scanFlags.Hash != "" {
		cfg.Scan.Hash = models.HashAlgorithm(scanFlags.Hash)
	}

	if scanFlags.FollowSymlinks {
		cfg.Scan.FollowSymlinks = true
	}

	if scanFlags.IncludeZeroByte {
		cfg.Scan.IncludeZeroByte = true
	}

	if scanFlags.MinSize > 0 {
		cfg.Scan.MinSize = scanFlags.MinSize
	}

	// Hashing workers (default: 4)
	if scanFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = scanFlags.Parallel
	} else if cfg.Performance.MaxWorkers == 0 {
		cfg.Performance.MaxWorkers = 4
	}

	if scanFlags.Bandwidth != "" {
		if limit, err := parseBandwidth(scanFlags.Bandwidth); err == nil {
			cfg.Performance.BandwidthLimit = limit
		}
	}

	if len(scanFlags.Exclude) > 0 {
		cfg.Exclude = scanFlags.Exclude
	}

	if scanFlags.Output != "" {
		cfg.Output.Format = scanFlags.Output
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// Enable progress in verbose mode
	if globalFlags.Verbose {
		cfg.Output.Progress = true
	}
}

// createScanOperation creates a scan operation from configuration
func createScanOperation(cfg *config.Config, roots []string) (*models.ScanOperation, error) {
	normalized := make([]string, len(roots))
	for i, root := range roots {
		normalized[i] = platform.NormalizePath(root)
	}

	operation := &models.ScanOperation{
		ID:              uuid.New().String(),
		Roots:           normalized,
		HashAlgorithm:   cfg.Scan.Hash,
		FollowSymlinks:  cfg.Scan.FollowSymlinks,
		IncludeZeroByte: cfg.Scan.IncludeZeroByte,
		MinSize:         cfg.Scan.MinSize,
		ExcludePatterns: cfg.Exclude,
		SkipBadRoots:    scanFlags.SkipBadRoots,
		MaxWorkers:      cfg.Performance.MaxWorkers,
		BufferSize:      cfg.Performance.BufferSize,
		BandwidthLimit:  cfg.Performance.BandwidthLimit,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}

// parseBandwidth parses a human bandwidth spec like "500K", "10M" or
// "1G" into bytes per second
func parseBandwidth(s string) (int64, error) {
	spec := strings.TrimSpace(strings.ToUpper(s))
	if spec == "" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(spec, "K"):
		multiplier = 1024
		spec = strings.TrimSuffix(spec, "K")
	case strings.HasSuffix(spec, "M"):
		multiplier = 1024 * 1024
		spec = strings.TrimSuffix(spec, "M")
	case strings.HasSuffix(spec, "G"):
		multiplier = 1024 * 1024 * 1024
		spec = strings.TrimSuffix(spec, "G")
	}

	value, err := strconv.ParseInt(spec, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid bandwidth limit: %s (use e.g. \"500K\", \"10M\", \"1G\")", s)
	}

	return value * multiplier, nil
}

// createLogger creates a logger based on configuration
func createLogger(logFile, logFormat, logLevel string) (logging.Logger, error) {
	// If no log file specified, return null logger
	if logFile == "" {
		return logging.NewNullLogger(), nil
	}

	var format logging.Format
	switch logFormat {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	cfg := logging.FileLoggerConfig{
		Path:       logFile,
		Format:     format,
		Level:      logging.ParseLevel(logLevel),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	}

	return logging.NewFileLogger(cfg)
}
