package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/sdejongh/dupescout/pkg/models"
)

// writeFile creates a file (and its parent directories) under dir
func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	return path
}

// collect runs a walk and gathers every emitted record
func collect(t *testing.T, w *Walker, root string) []models.FileRecord {
	t.Helper()
	var records []models.FileRecord
	err := w.Walk(context.Background(), root, func(rec models.FileRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	return records
}

func TestWalkEmitsRegularFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("hello"))
	writeFile(t, dir, "sub/b.txt", []byte("world!"))
	writeFile(t, dir, "sub/deep/c.txt", []byte(""))

	records := collect(t, &Walker{}, dir)

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	sizes := make(map[string]int64)
	for _, rec := range records {
		if !filepath.IsAbs(rec.Path) {
			t.Errorf("record path is not absolute: %s", rec.Path)
		}
		sizes[filepath.Base(rec.Path)] = rec.Size
	}

	want := map[string]int64{"a.txt": 5, "b.txt": 6, "c.txt": 0}
	for name, size := range want {
		if sizes[name] != size {
			t.Errorf("size of %s = %d, want %d", name, sizes[name], size)
		}
	}
}

func TestWalkEmptyTree(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "empty", "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	records := collect(t, &Walker{}, dir)
	if len(records) != 0 {
		t.Errorf("got %d records from empty tree, want 0", len(records))
	}
}

func TestWalkMissingRoot(t *testing.T) {
	err := (&Walker{}).Walk(context.Background(), filepath.Join(t.TempDir(), "nope"), func(models.FileRecord) error {
		t.Fatal("callback should not run for a missing root")
		return nil
	})

	var pathErr *models.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("error type = %T, want *models.PathError", err)
	}
	if pathErr.Kind != models.PathNotFound {
		t.Errorf("error kind = %s, want %s", pathErr.Kind, models.PathNotFound)
	}
}

func TestWalkRootIsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "file.txt", []byte("x"))

	err := (&Walker{}).Walk(context.Background(), path, func(models.FileRecord) error { return nil })

	var pathErr *models.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("error type = %T, want *models.PathError", err)
	}
	if pathErr.Kind != models.NotADirectory {
		t.Errorf("error kind = %s, want %s", pathErr.Kind, models.NotADirectory)
	}
}

func TestWalkUnreadableRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced the same way on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, permissions are not enforced")
	}

	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	err := (&Walker{}).Walk(context.Background(), locked, func(models.FileRecord) error { return nil })

	var pathErr *models.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("error type = %T, want *models.PathError", err)
	}
	if pathErr.Kind != models.PermissionDenied {
		t.Errorf("error kind = %s, want %s", pathErr.Kind, models.PermissionDenied)
	}
}

func TestWalkUnreadableSubdirSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced the same way on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, permissions are not enforced")
	}

	dir := t.TempDir()
	writeFile(t, dir, "ok.txt", []byte("fine"))
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "locked/hidden.txt", []byte("unreachable"))
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	var skipped []string
	w := &Walker{
		OnEntryError: func(path string, err error) error {
			skipped = append(skipped, path)
			return nil
		},
	}

	records := collect(t, w, dir)

	if len(records) != 1 || filepath.Base(records[0].Path) != "ok.txt" {
		t.Errorf("records = %v, want only ok.txt", records)
	}
	if len(skipped) == 0 {
		t.Error("expected the locked directory to be reported as skipped")
	}
}

func TestWalkSymlinkedDirNotFollowed(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	writeFile(t, dir, "target/inside.txt", []byte("content"))

	root := filepath.Join(dir, "root")
	writeFile(t, root, "plain.txt", []byte("plain"))
	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	records := collect(t, &Walker{}, root)
	if len(records) != 1 || filepath.Base(records[0].Path) != "plain.txt" {
		t.Errorf("records = %v, want only plain.txt", records)
	}
}

func TestWalkFollowSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	writeFile(t, dir, "target/inside.txt", []byte("content"))

	root := filepath.Join(dir, "root")
	writeFile(t, root, "plain.txt", []byte("plain"))
	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	records := collect(t, &Walker{FollowSymlinks: true}, root)

	var names []string
	for _, rec := range records {
		names = append(names, filepath.Base(rec.Path))
	}
	sort.Strings(names)

	want := []string{"inside.txt", "plain.txt"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestWalkMinSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.txt", []byte("ab"))
	writeFile(t, dir, "big.txt", []byte("abcdefghij"))
	writeFile(t, dir, "empty.txt", nil)

	records := collect(t, &Walker{MinSize: 5}, dir)

	names := make(map[string]bool)
	for _, rec := range records {
		names[filepath.Base(rec.Path)] = true
	}

	if names["small.txt"] {
		t.Error("small.txt should be dropped by MinSize")
	}
	if !names["big.txt"] {
		t.Error("big.txt should be emitted")
	}
	// Zero-byte files pass through; the grouper decides how to report them.
	if !names["empty.txt"] {
		t.Error("empty.txt should be emitted despite MinSize")
	}
}

func TestWalkExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.txt", []byte("keep"))
	writeFile(t, dir, "junk.tmp", []byte("junk"))
	writeFile(t, dir, ".git/objects/blob", []byte("blob"))

	records := collect(t, &Walker{ExcludePatterns: []string{"*.tmp", ".git/"}}, dir)

	if len(records) != 1 || filepath.Base(records[0].Path) != "keep.txt" {
		t.Errorf("records = %v, want only keep.txt", records)
	}
}

func TestWalkOverlappingRoots(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sub/f.txt", []byte("payload"))

	w := &Walker{}
	var records []models.FileRecord
	for _, root := range []string{dir, filepath.Join(dir, "sub")} {
		err := w.Walk(context.Background(), root, func(rec models.FileRecord) error {
			records = append(records, rec)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk(%s) error: %v", root, err)
		}
	}

	// The same file reached through two roots is emitted twice; the
	// walker does not deduplicate.
	count := 0
	for _, rec := range records {
		if rec.Path == path {
			count++
		}
	}
	if count != 2 {
		t.Errorf("file emitted %d times, want 2", count)
	}
}

func TestWalkCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&Walker{}).Walk(ctx, dir, func(models.FileRecord) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestWalkCallbackErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("a"))
	writeFile(t, dir, "b.txt", []byte("b"))

	sentinel := errors.New("stop here")
	err := (&Walker{}).Walk(context.Background(), dir, func(models.FileRecord) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want sentinel", err)
	}
}

func TestWalkCountsDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/f.txt", []byte("x"))
	writeFile(t, dir, "a/b/g.txt", []byte("y"))

	dirs := 0
	w := &Walker{OnDir: func(string) { dirs++ }}
	collect(t, w, dir)

	// Root, a, a/b
	if dirs != 3 {
		t.Errorf("dirs = %d, want 3", dirs)
	}
}
