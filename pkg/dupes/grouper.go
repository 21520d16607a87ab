// Package dupes groups files with identical content.
//
// Detection runs in two phases: records are first bucketed by size, then
// content digests are computed only inside size buckets holding two or
// more files. A file whose size is unique in the scanned set is never
// opened, which is what keeps large scans cheap.
package dupes

import (
	"context"
	"sync"

	"github.com/sdejongh/dupescout/pkg/models"
)

// Grouper consumes file records and produces duplicate groups
type Grouper struct {
	op     *models.ScanOperation
	hasher *Hasher

	buckets   map[int64][]models.FileRecord
	sizeOrder []int64 // first-seen order of sizes, drives output order
	zeroByte  []models.FileRecord

	filesAdded int
	bytesAdded int64
}

// Result holds the outcome of the grouping pass
type Result struct {
	// Groups are ordered by first appearance of their size bucket;
	// paths within a group keep insertion order
	Groups []models.DuplicateGroup

	// ZeroByte lists zero-byte files diverted from grouping
	ZeroByte []models.FileRecord

	// Skipped lists files that became unreadable between stat and hash
	Skipped []models.SkippedFile

	SizeBuckets    int
	CandidateFiles int
	FilesHashed    int
	BytesHashed    int64
}

// New creates a grouper for the given scan operation
func New(op *models.ScanOperation) *Grouper {
	return &Grouper{
		op:      op,
		hasher:  NewHasher(op.HashAlgorithm, op.BufferSize),
		buckets: make(map[int64][]models.FileRecord),
	}
}

// Hasher exposes the underlying hasher so callers can attach progress
// reporting or a rate-limited reader before the grouping pass
func (g *Grouper) Hasher() *Hasher {
	return g.hasher
}

// Add inserts a record into its size bucket. Zero-byte files are held
// aside instead of grouped unless the operation asks for them: every
// empty file trivially equals every other, which buries real findings.
func (g *Grouper) Add(rec models.FileRecord) {
	g.filesAdded++
	g.bytesAdded += rec.Size

	if rec.Size == 0 && !g.op.IncludeZeroByte {
		g.zeroByte = append(g.zeroByte, rec)
		return
	}

	if _, seen := g.buckets[rec.Size]; !seen {
		g.sizeOrder = append(g.sizeOrder, rec.Size)
	}
	g.buckets[rec.Size] = append(g.buckets[rec.Size], rec)
}

// Added reports how many records the grouper has consumed so far
func (g *Grouper) Added() (files int, bytes int64) {
	return g.filesAdded, g.bytesAdded
}

// Candidates reports how many files sit in multi-member size buckets
// and their combined size. This is the exact amount of hashing work the
// grouping pass will attempt, which makes it the progress-bar total.
func (g *Grouper) Candidates() (files int, bytes int64) {
	for _, records := range g.buckets {
		if len(records) < 2 {
			continue
		}
		files += len(records)
		for _, rec := range records {
			bytes += rec.Size
		}
	}
	return files, bytes
}

// hashTask identifies one record awaiting its digest
type hashTask struct {
	size  int64
	index int
	rec   models.FileRecord
}

// Groups hashes every member of each multi-member size bucket and
// returns the duplicate groups. Single-member buckets are provably
// unique and are not touched.
//
// Hashing fans out across MaxWorkers goroutines; each file is hashed by
// exactly one worker, and digests are written back by bucket position so
// the output is identical to a sequential run. A file that cannot be
// read is recorded as skipped and the pass continues.
func (g *Grouper) Groups(ctx context.Context) (*Result, error) {
	result := &Result{
		ZeroByte:    g.zeroByte,
		SizeBuckets: len(g.buckets),
	}

	digests := make(map[int64][]string, len(g.buckets))
	var tasks []hashTask
	for _, size := range g.sizeOrder {
		records := g.buckets[size]
		if len(records) < 2 {
			continue
		}
		digests[size] = make([]string, len(records))
		for i, rec := range records {
			tasks = append(tasks, hashTask{size: size, index: i, rec: rec})
		}
		result.CandidateFiles += len(records)
	}

	if len(tasks) > 0 {
		if err := g.hashAll(ctx, tasks, digests, result); err != nil {
			return nil, err
		}
	}

	for _, size := range g.sizeOrder {
		records := g.buckets[size]
		bucketDigests, ok := digests[size]
		if !ok {
			continue
		}

		// Group members by digest, keeping first-seen digest order and
		// insertion order within each digest.
		hashOrder := make([]string, 0, 2)
		byHash := make(map[string][]string)
		for i, rec := range records {
			d := bucketDigests[i]
			if d == "" {
				continue // skipped during hashing
			}
			if _, seen := byHash[d]; !seen {
				hashOrder = append(hashOrder, d)
			}
			byHash[d] = append(byHash[d], rec.Path)
		}

		for _, d := range hashOrder {
			paths := byHash[d]
			if len(paths) < 2 {
				continue // same size, different content
			}
			result.Groups = append(result.Groups, models.DuplicateGroup{
				Size:  size,
				Hash:  d,
				Paths: paths,
			})
		}
	}

	return result, nil
}

// hashAll distributes the hash tasks over a bounded worker pool
func (g *Grouper) hashAll(ctx context.Context, tasks []hashTask, digests map[int64][]string, result *Result) error {
	workers := g.op.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan hashTask)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				digest, err := g.hasher.HashFile(ctx, task.rec.Path, task.rec.Size)

				mu.Lock()
				if err != nil {
					if ctx.Err() == nil {
						result.Skipped = append(result.Skipped, models.SkippedFile{
							Path:   task.rec.Path,
							Reason: "content unavailable",
							Err:    err,
						})
					}
				} else {
					digests[task.size][task.index] = digest
					result.FilesHashed++
					result.BytesHashed += task.rec.Size
				}
				mu.Unlock()
			}
		}()
	}

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return ctx.Err()
		case taskCh <- task:
		}
	}
	close(taskCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
