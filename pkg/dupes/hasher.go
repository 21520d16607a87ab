package dupes

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sdejongh/dupescout/pkg/models"
)

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond
	progressReportBytes    = 64 * 1024
)

// FileOpener opens a file for hashing. The default uses os.Open; tests
// substitute an instrumented opener to prove which files get read.
type FileOpener func(path string) (io.ReadCloser, error)

// ReaderWrapper wraps the content reader, e.g. for bandwidth limiting
type ReaderWrapper func(io.ReadCloser) io.ReadCloser

// ProgressFunc receives hash-phase progress per file
type ProgressFunc func(path string, current, total int64)

// Hasher computes content digests with bounded memory. Reads stream
// through a pooled fixed-size buffer; a file is never loaded whole.
type Hasher struct {
	algorithm  models.HashAlgorithm
	bufferSize int
	bufferPool *sync.Pool

	open     FileOpener
	wrapper  ReaderWrapper
	progress ProgressFunc
}

// NewHasher creates a hasher for the given algorithm
func NewHasher(algorithm models.HashAlgorithm, bufferSize int) *Hasher {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Hasher{
		algorithm:  algorithm,
		bufferSize: bufferSize,
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetFileOpener replaces the file opener
func (h *Hasher) SetFileOpener(open FileOpener) {
	if open != nil {
		h.open = open
	}
}

// SetReaderWrapper sets a function to wrap content readers
// (e.g. for rate limiting)
func (h *Hasher) SetReaderWrapper(wrapper ReaderWrapper) {
	h.wrapper = wrapper
}

// SetProgressCallback sets a callback for per-file hashing progress
func (h *Hasher) SetProgressCallback(progress ProgressFunc) {
	h.progress = progress
}

// Algorithm returns the configured digest algorithm
func (h *Hasher) Algorithm() models.HashAlgorithm {
	return h.algorithm
}

// newDigest returns a fresh digest state for the configured algorithm
func (h *Hasher) newDigest() (hash.Hash, error) {
	switch h.algorithm {
	case models.HashSHA256:
		return sha256.New(), nil
	case models.HashSHA1:
		return sha1.New(), nil
	case models.HashMD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", h.algorithm)
	}
}

// HashFile computes the hex digest of the full file content. Open and
// read failures come back as *models.ContentError so callers can drop
// the single file and keep going.
func (h *Hasher) HashFile(ctx context.Context, path string, size int64) (string, error) {
	digest, err := h.newDigest()
	if err != nil {
		return "", err
	}

	reader, err := h.open(path)
	if err != nil {
		return "", &models.ContentError{Path: path, Err: err}
	}
	defer reader.Close()

	if h.wrapper != nil {
		reader = h.wrapper(reader)
	}

	bufPtr := h.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer h.bufferPool.Put(bufPtr)

	var totalRead int64
	var lastReported int64
	lastReportTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			digest.Write(buffer[:n])
			totalRead += int64(n)

			// Throttled progress: report on byte or time threshold, and
			// always on the final read.
			if h.progress != nil {
				shouldReport := totalRead-lastReported >= progressReportBytes ||
					time.Since(lastReportTime) >= progressReportInterval ||
					err != nil
				if shouldReport {
					h.progress(path, totalRead, size)
					lastReported = totalRead
					lastReportTime = time.Now()
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &models.ContentError{Path: path, Err: err}
		}
	}

	if h.progress != nil && totalRead > lastReported {
		h.progress(path, totalRead, size)
	}

	return fmt.Sprintf("%x", digest.Sum(nil)), nil
}
