package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/sdejongh/dupescout/pkg/dupes"
	"github.com/sdejongh/dupescout/pkg/models"
	"github.com/sdejongh/dupescout/pkg/output"
	"github.com/sdejongh/dupescout/pkg/walker"
)

// TestHelper provides utilities for integration tests
type TestHelper struct {
	t     *testing.T
	roots []string
}

// NewTestHelper creates a helper with n scan roots
func NewTestHelper(t *testing.T, n int) *TestHelper {
	t.Helper()

	tempDir := t.TempDir()
	roots := make([]string, n)
	for i := range roots {
		roots[i] = filepath.Join(tempDir, "root"+string(rune('1'+i)))
		if err := os.MkdirAll(roots[i], 0755); err != nil {
			t.Fatalf("failed to create root: %v", err)
		}
	}

	return &TestHelper{t: t, roots: roots}
}

// CreateFile creates a file under the given root
func (h *TestHelper) CreateFile(root int, name string, content []byte) string {
	h.t.Helper()
	path := filepath.Join(h.roots[root], name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		h.t.Fatalf("failed to create file: %v", err)
	}
	return path
}

// NewOperation creates a default scan operation for testing
func (h *TestHelper) NewOperation() *models.ScanOperation {
	return &models.ScanOperation{
		ID:            "integration-test",
		Roots:         h.roots,
		HashAlgorithm: models.HashSHA256,
		MaxWorkers:    2,
		BufferSize:    4096,
	}
}

// Scan walks every root, groups the results and returns a finalized report
func (h *TestHelper) Scan(ctx context.Context, op *models.ScanOperation) *models.ScanReport {
	h.t.Helper()

	report := &models.ScanReport{
		OperationID:   op.ID,
		Roots:         op.Roots,
		HashAlgorithm: op.HashAlgorithm,
	}

	grouper := dupes.New(op)
	treeWalker := &walker.Walker{
		FollowSymlinks:  op.FollowSymlinks,
		MinSize:         op.MinSize,
		ExcludePatterns: op.ExcludePatterns,
		OnDir:           func(string) { report.Stats.DirsScanned++ },
	}

	for _, root := range op.Roots {
		err := treeWalker.Walk(ctx, root, func(rec models.FileRecord) error {
			report.Stats.FilesScanned++
			report.Stats.BytesScanned += rec.Size
			grouper.Add(rec)
			return nil
		})
		if err != nil {
			h.t.Fatalf("Walk(%s) error: %v", root, err)
		}
	}

	result, err := grouper.Groups(ctx)
	if err != nil {
		h.t.Fatalf("Groups() error: %v", err)
	}

	report.Groups = result.Groups
	report.ZeroByte = result.ZeroByte
	report.Skipped = append(report.Skipped, result.Skipped...)
	report.Stats.SizeBuckets = result.SizeBuckets
	report.Stats.CandidateFiles = result.CandidateFiles
	report.Stats.FilesHashed = result.FilesHashed
	report.Stats.BytesHashed = result.BytesHashed
	report.Finalize()
	return report
}

func TestScan_DuplicatesAcrossRoots(t *testing.T) {
	h := NewTestHelper(t, 2)

	a := h.CreateFile(0, "docs/report.txt", []byte("shared content"))
	b := h.CreateFile(1, "backup/report-copy.txt", []byte("shared content"))
	h.CreateFile(0, "unique.txt", []byte("only here"))
	h.CreateFile(1, "other.bin", []byte("different size entirely"))

	report := h.Scan(context.Background(), h.NewOperation())

	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", report.Status)
	}
	if len(report.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(report.Groups))
	}

	group := report.Groups[0]
	if group.Count() != 2 {
		t.Fatalf("group has %d members, want 2", group.Count())
	}
	members := map[string]bool{group.Paths[0]: true, group.Paths[1]: true}
	if !members[a] || !members[b] {
		t.Errorf("group paths = %v, want %s and %s", group.Paths, a, b)
	}

	if report.Stats.FilesScanned != 4 {
		t.Errorf("FilesScanned = %d, want 4", report.Stats.FilesScanned)
	}
	// Only the two same-size files should have been hashed.
	if report.Stats.FilesHashed != 2 {
		t.Errorf("FilesHashed = %d, want 2", report.Stats.FilesHashed)
	}
	if report.Stats.WastedBytes != int64(len("shared content")) {
		t.Errorf("WastedBytes = %d, want %d", report.Stats.WastedBytes, len("shared content"))
	}
}

func TestScan_NoDuplicates(t *testing.T) {
	h := NewTestHelper(t, 1)

	h.CreateFile(0, "a.txt", []byte("x"))
	h.CreateFile(0, "b.txt", []byte("xy"))
	h.CreateFile(0, "c.txt", []byte("xyz"))

	report := h.Scan(context.Background(), h.NewOperation())

	if len(report.Groups) != 0 {
		t.Errorf("got %d groups, want 0", len(report.Groups))
	}
	// All sizes are unique, so nothing should have been hashed.
	if report.Stats.FilesHashed != 0 {
		t.Errorf("FilesHashed = %d, want 0", report.Stats.FilesHashed)
	}
	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", report.Status)
	}
}

func TestScan_ZeroByteFiles(t *testing.T) {
	h := NewTestHelper(t, 1)

	h.CreateFile(0, "empty1.txt", nil)
	h.CreateFile(0, "empty2.txt", nil)
	h.CreateFile(0, "full.txt", []byte("data"))

	report := h.Scan(context.Background(), h.NewOperation())

	if len(report.Groups) != 0 {
		t.Errorf("got %d groups, want 0 (zero-byte files are reported separately)", len(report.Groups))
	}
	if len(report.ZeroByte) != 2 {
		t.Errorf("ZeroByte = %d files, want 2", len(report.ZeroByte))
	}
	if report.Stats.ZeroByteFiles != 2 {
		t.Errorf("Stats.ZeroByteFiles = %d, want 2", report.Stats.ZeroByteFiles)
	}
}

func TestScan_ExcludePatterns(t *testing.T) {
	h := NewTestHelper(t, 1)

	h.CreateFile(0, "keep1.txt", []byte("payload"))
	h.CreateFile(0, "keep2.txt", []byte("payload"))
	h.CreateFile(0, ".git/objects/pack", []byte("payload"))
	h.CreateFile(0, "scratch.tmp", []byte("payload"))

	op := h.NewOperation()
	op.ExcludePatterns = []string{".git/", "*.tmp"}
	report := h.Scan(context.Background(), op)

	if report.Stats.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", report.Stats.FilesScanned)
	}
	if len(report.Groups) != 1 || report.Groups[0].Count() != 2 {
		t.Fatalf("groups = %+v, want one pair", report.Groups)
	}
}

func TestScan_MinSize(t *testing.T) {
	h := NewTestHelper(t, 1)

	h.CreateFile(0, "small1.txt", []byte("ab"))
	h.CreateFile(0, "small2.txt", []byte("ab"))
	h.CreateFile(0, "big1.txt", []byte("large enough"))
	h.CreateFile(0, "big2.txt", []byte("large enough"))

	op := h.NewOperation()
	op.MinSize = 10
	report := h.Scan(context.Background(), op)

	if len(report.Groups) != 1 {
		t.Fatalf("got %d groups, want 1 (small pair filtered out)", len(report.Groups))
	}
	if report.Groups[0].Size != int64(len("large enough")) {
		t.Errorf("group size = %d, want the big pair", report.Groups[0].Size)
	}
}

func TestScan_ReportExports(t *testing.T) {
	h := NewTestHelper(t, 1)

	h.CreateFile(0, "one.dat", []byte("duplicated bytes"))
	h.CreateFile(0, "two.dat", []byte("duplicated bytes"))
	h.CreateFile(0, "empty.dat", nil)

	report := h.Scan(context.Background(), h.NewOperation())

	t.Run("human", func(t *testing.T) {
		var buf bytes.Buffer
		if err := output.NewHumanExporter().Export(&buf, report); err != nil {
			t.Fatalf("Export() error: %v", err)
		}
		if !bytes.Contains(buf.Bytes(), []byte("Found 1 duplicate group(s)")) {
			t.Errorf("human output:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := output.NewJSONExporter().Export(&buf, report); err != nil {
			t.Fatalf("Export() error: %v", err)
		}
		var decoded output.JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Groups) != 1 || decoded.Stats.ZeroByteFiles != 1 {
			t.Errorf("decoded report = %+v", decoded)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		if err := output.NewXLSXExporter().Export(&buf, report); err != nil {
			t.Fatalf("Export() error: %v", err)
		}
		f, err := excelize.OpenReader(&buf)
		if err != nil {
			t.Fatalf("invalid workbook: %v", err)
		}
		defer f.Close()
		rows, err := f.GetRows(output.SheetDuplicates)
		if err != nil {
			t.Fatal(err)
		}
		// Header plus the two group members.
		if len(rows) != 3 {
			t.Errorf("duplicates sheet has %d rows, want 3", len(rows))
		}
	})
}

func TestScan_OverlappingRoots(t *testing.T) {
	h := NewTestHelper(t, 1)

	h.CreateFile(0, "sub/file.txt", []byte("payload"))

	op := h.NewOperation()
	op.Roots = append(op.Roots, filepath.Join(h.roots[0], "sub"))
	report := h.Scan(context.Background(), op)

	// The same file reached through both roots is reported as its own
	// duplicate. Overlap detection is the caller's job.
	if len(report.Groups) != 1 || report.Groups[0].Count() != 2 {
		t.Errorf("groups = %+v, want the file paired with itself", report.Groups)
	}
}

func TestScan_Cancellation(t *testing.T) {
	h := NewTestHelper(t, 1)
	h.CreateFile(0, "a.txt", []byte("content"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := h.NewOperation()
	grouper := dupes.New(op)
	treeWalker := &walker.Walker{}

	err := treeWalker.Walk(ctx, h.roots[0], func(rec models.FileRecord) error {
		grouper.Add(rec)
		return nil
	})
	if err == nil {
		t.Error("Walk() with cancelled context should fail")
	}
}
