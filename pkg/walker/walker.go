// Package walker enumerates regular files under a set of root directories.
//
// The walk is lazy: records are pushed to a callback one at a time, so
// arbitrarily large trees can be scanned without materializing the file
// list. Sizes come from directory metadata; file content is never read.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdejongh/dupescout/pkg/models"
)

// EntryErrorFunc is invoked for descendant entries that could not be
// read (typically permission problems below an otherwise valid root).
// Returning a non-nil error aborts the walk; returning nil skips the
// entry and continues.
type EntryErrorFunc func(path string, err error) error

// Walker enumerates regular files reachable from root directories
type Walker struct {
	// FollowSymlinks controls whether symlinked directories are descended
	// into. Off by default: following them can recurse forever on cyclic
	// link structures.
	FollowSymlinks bool

	// MinSize drops files smaller than this many bytes. Zero-byte files
	// are always emitted; the grouper decides how to report them.
	MinSize int64

	// ExcludePatterns are glob patterns matched against the path relative
	// to the root. Matching files and directories are skipped.
	ExcludePatterns []string

	// OnEntryError handles unreadable descendants. When nil, unreadable
	// descendants abort the walk with a *models.PathError.
	OnEntryError EntryErrorFunc

	// OnDir, when set, is notified of every directory entered
	OnDir func(path string)
}

// CheckRoot verifies that a root exists, is a directory and is readable,
// returning a typed *models.PathError otherwise. The caller chooses
// whether a bad root aborts the scan or is skipped.
func CheckRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &models.PathError{Path: root, Kind: models.PathNotFound, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", classifyPathError(abs, err)
	}
	if !info.IsDir() {
		return "", &models.PathError{Path: abs, Kind: models.NotADirectory}
	}

	// Stat alone does not prove readability; opening does.
	f, err := os.Open(abs)
	if err != nil {
		return "", classifyPathError(abs, err)
	}
	f.Close()

	return abs, nil
}

// Walk enumerates every regular file reachable from root in traversal
// order and pushes one models.FileRecord per file to fn. Sibling order is
// whatever the filesystem reports. A file reachable through two different
// roots is emitted once per root; the walker does not deduplicate.
//
// Returning a non-nil error from fn aborts the walk and propagates the
// error to the caller.
func (w *Walker) Walk(ctx context.Context, root string, fn func(models.FileRecord) error) error {
	abs, err := CheckRoot(root)
	if err != nil {
		return err
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if w.OnEntryError != nil {
				if herr := w.OnEntryError(path, walkErr); herr != nil {
					return herr
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			return classifyPathError(path, walkErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path != abs && w.excluded(abs, path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if w.OnDir != nil {
				w.OnDir(path)
			}
			return nil
		}

		// WalkDir does not follow symlinks; a symlinked directory shows
		// up as a non-regular entry here. Descend explicitly when asked.
		if d.Type()&fs.ModeSymlink != 0 {
			if !w.FollowSymlinks {
				return nil
			}
			return w.walkSymlink(ctx, path, fn)
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Entry vanished between readdir and stat.
			if w.OnEntryError != nil {
				return w.OnEntryError(path, err)
			}
			return classifyPathError(path, err)
		}

		if info.Size() > 0 && info.Size() < w.MinSize {
			return nil
		}

		return fn(models.FileRecord{Path: path, Size: info.Size()})
	})
}

// walkSymlink resolves a symlink and, if it points at a directory,
// walks the target. Only used when FollowSymlinks is on.
func (w *Walker) walkSymlink(ctx context.Context, path string, fn func(models.FileRecord) error) error {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		if w.OnEntryError != nil {
			return w.OnEntryError(path, err)
		}
		return nil
	}

	info, err := os.Stat(target)
	if err != nil {
		if w.OnEntryError != nil {
			return w.OnEntryError(path, err)
		}
		return nil
	}

	if info.IsDir() {
		sub := *w
		return sub.Walk(ctx, target, fn)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	if info.Size() > 0 && info.Size() < w.MinSize {
		return nil
	}
	return fn(models.FileRecord{Path: target, Size: info.Size()})
}

// excluded checks the path relative to the walk root against the
// configured glob patterns
func (w *Walker) excluded(root, path string) bool {
	if len(w.ExcludePatterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return MatchAny(rel, w.ExcludePatterns)
}

// classifyPathError converts an os error into the typed path error the
// callers dispatch on
func classifyPathError(path string, err error) error {
	kind := models.PathNotFound
	if errors.Is(err, fs.ErrPermission) {
		kind = models.PermissionDenied
	} else if !errors.Is(err, fs.ErrNotExist) {
		// Unknown cause; report it as a permission-style access failure
		// rather than claiming the path is missing.
		kind = models.PermissionDenied
	}
	return &models.PathError{Path: path, Kind: kind, Err: err}
}
