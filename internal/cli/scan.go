package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dupescout/pkg/config"
	"github.com/sdejongh/dupescout/pkg/dupes"
	"github.com/sdejongh/dupescout/pkg/logging"
	"github.com/sdejongh/dupescout/pkg/models"
	"github.com/sdejongh/dupescout/pkg/output"
	"github.com/sdejongh/dupescout/pkg/ratelimit"
	"github.com/sdejongh/dupescout/pkg/walker"
)

// ScanFlags holds scan command flags
type ScanFlags struct {
	Hash            string
	FollowSymlinks  bool
	IncludeZeroByte bool
	MinSize         int64
	SkipBadRoots    bool
	Parallel        int
	Bandwidth       string
	Exclude         []string
	Output          string
	XLSXFile        string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var scanFlags ScanFlags

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <directory>...",
		Short: "Find duplicate files under one or more directories",
		Long: `Scan one or more directory trees and report files with identical
content. Files are bucketed by size first; content is hashed only when
two or more files share a size, so unique-sized files are never read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScan,
	}

	cmd.Flags().StringVar(&scanFlags.Hash, "hash", "", "hash algorithm: sha256, sha1, md5")
	cmd.Flags().BoolVar(&scanFlags.FollowSymlinks, "follow-symlinks", false, "descend into symlinked directories (cycle-prone, off by default)")
	cmd.Flags().BoolVar(&scanFlags.IncludeZeroByte, "include-zero-byte", false, "group zero-byte files instead of reporting them separately")
	cmd.Flags().Int64Var(&scanFlags.MinSize, "min-size", 0, "ignore files smaller than this many bytes")
	cmd.Flags().BoolVar(&scanFlags.SkipBadRoots, "skip-bad-roots", false, "skip unreadable or missing roots instead of aborting")
	cmd.Flags().IntVarP(&scanFlags.Parallel, "parallel", "p", 0, "number of hashing workers (default: 4)")
	cmd.Flags().StringVarP(&scanFlags.Bandwidth, "bandwidth", "b", "", "hash-phase read limit (e.g., \"10M\", \"1G\")")
	cmd.Flags().StringSliceVar(&scanFlags.Exclude, "exclude", []string{}, "glob patterns to exclude")
	cmd.Flags().StringVarP(&scanFlags.Output, "output", "o", "", "output format: human, json, xlsx")
	cmd.Flags().StringVarP(&scanFlags.XLSXFile, "xlsx", "x", "", "write results to the given file as an Excel workbook")

	// Logging flags
	cmd.Flags().StringVar(&scanFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&scanFlags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&scanFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateScanFlags(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)

	op, err := createScanOperation(cfg, args)
	if err != nil {
		return fmt.Errorf("failed to create scan operation: %w", err)
	}

	logger, err := createLogger(scanFlags.LogFile, scanFlags.LogFormat, scanFlags.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger = logger.WithFields(logging.Fields{"operation_id": op.ID})

	report, err := executeScan(ctx, op, cfg, logger)
	if err != nil {
		return err
	}

	if err := exportReport(report, cfg); err != nil {
		return err
	}

	os.Exit(report.Status.ExitCode())
	return nil
}

// executeScan runs the walk and grouping phases and assembles the report
func executeScan(ctx context.Context, op *models.ScanOperation, cfg *config.Config, logger logging.Logger) (*models.ScanReport, error) {
	report := &models.ScanReport{
		OperationID:   op.ID,
		Roots:         op.Roots,
		HashAlgorithm: op.HashAlgorithm,
		StartTime:     time.Now(),
	}

	grouper := dupes.New(op)

	treeWalker := &walker.Walker{
		FollowSymlinks:  op.FollowSymlinks,
		MinSize:         op.MinSize,
		ExcludePatterns: op.ExcludePatterns,
		OnDir: func(path string) {
			report.Stats.DirsScanned++
		},
		OnEntryError: func(path string, err error) error {
			logger.Warn(ctx, "skipping unreadable entry", logging.Fields{"path": path, "cause": err.Error()})
			report.Skipped = append(report.Skipped, models.SkippedFile{
				Path:   path,
				Reason: "unreadable during walk",
				Err:    err,
			})
			return nil
		},
	}

	logger.Info(ctx, "scan started", logging.Fields{
		"roots": len(op.Roots),
		"hash":  string(op.HashAlgorithm),
	})

	usableRoots := 0
	for _, root := range op.Roots {
		err := treeWalker.Walk(ctx, root, func(rec models.FileRecord) error {
			report.Stats.FilesScanned++
			report.Stats.BytesScanned += rec.Size
			grouper.Add(rec)
			return nil
		})
		if err == nil {
			usableRoots++
			continue
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Status = models.StatusCancelled
			return nil, err
		}

		var pathErr *models.PathError
		if errors.As(err, &pathErr) && op.SkipBadRoots {
			logger.Warn(ctx, "skipping root", logging.Fields{"root": root, "cause": pathErr.Error()})
			report.Skipped = append(report.Skipped, models.SkippedFile{
				Path:   pathErr.Path,
				Reason: "root " + string(pathErr.Kind),
				Err:    pathErr,
			})
			continue
		}
		return nil, err
	}

	// Fail loud only when nothing at all was readable.
	if usableRoots == 0 {
		report.Status = models.StatusFailed
		return nil, fmt.Errorf("no readable roots among the %d supplied", len(op.Roots))
	}

	hasher := grouper.Hasher()

	if limiter := ratelimit.NewLimiter(op.BandwidthLimit); limiter != nil {
		hasher.SetReaderWrapper(func(rc io.ReadCloser) io.ReadCloser {
			return ratelimit.NewReadCloser(ctx, rc, limiter)
		})
	}

	candFiles, candBytes := grouper.Candidates()
	logger.Info(ctx, "walk complete", logging.Fields{
		"files_scanned":   report.Stats.FilesScanned,
		"candidate_files": candFiles,
		"candidate_bytes": candBytes,
	})

	var progress *output.HashProgress
	if cfg.Output.Progress && !cfg.Output.Quiet && cfg.Output.Format == "human" && candBytes > 0 {
		// The bar goes to stderr so stdout stays clean for the report.
		progress = output.NewHashProgress(os.Stderr, candBytes)
		hasher.SetProgressCallback(progress.Update)
	}

	result, err := grouper.Groups(ctx)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Status = models.StatusCancelled
		}
		return nil, err
	}

	for _, skipped := range result.Skipped {
		logger.Warn(ctx, "file dropped during hashing", logging.Fields{"path": skipped.Path, "cause": skipped.Reason})
	}

	report.Groups = result.Groups
	report.ZeroByte = result.ZeroByte
	report.Skipped = append(report.Skipped, result.Skipped...)
	report.Stats.SizeBuckets = result.SizeBuckets
	report.Stats.CandidateFiles = result.CandidateFiles
	report.Stats.FilesHashed = result.FilesHashed
	report.Stats.BytesHashed = result.BytesHashed

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Finalize()

	logger.Info(ctx, "scan complete", logging.Fields{
		"status":           string(report.Status),
		"duplicate_groups": report.Stats.DuplicateGroups,
		"wasted_bytes":     report.Stats.WastedBytes,
	})

	return report, nil
}

// exportReport renders the report to the console and, if requested, to
// a spreadsheet file
func exportReport(report *models.ScanReport, cfg *config.Config) error {
	if !cfg.Output.Quiet {
		exporter, err := output.New(cfg.Output.Format)
		if err != nil {
			return err
		}
		if err := exporter.Export(os.Stdout, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if scanFlags.XLSXFile != "" {
		f, err := os.Create(scanFlags.XLSXFile)
		if err != nil {
			return fmt.Errorf("failed to create spreadsheet: %w", err)
		}
		defer f.Close()
		if err := output.NewXLSXExporter().Export(f, report); err != nil {
			return fmt.Errorf("failed to write spreadsheet: %w", err)
		}
	}

	return nil
}
