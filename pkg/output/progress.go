package output

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// HashProgress drives a progress bar over the hash phase. The total is
// the combined size of all candidate files; per-file callbacks arrive
// concurrently from the hashing workers.
type HashProgress struct {
	bar *pb.ProgressBar

	mu       sync.Mutex
	reported map[string]int64 // last reported byte count per path
}

// NewHashProgress starts a byte-based progress bar writing to w
func NewHashProgress(w io.Writer, totalBytes int64) *HashProgress {
	bar := pb.Full.Start64(totalBytes)
	bar.Set(pb.Bytes, true)
	if w != nil {
		bar.SetWriter(w)
	}
	return &HashProgress{
		bar:      bar,
		reported: make(map[string]int64),
	}
}

// Update records per-file progress. Callbacks report cumulative bytes
// for one path, so only the delta since the last report is added.
func (p *HashProgress) Update(path string, current, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	last := p.reported[path]
	if current > last {
		p.bar.Add64(current - last)
		p.reported[path] = current
	}
	if total > 0 && current >= total {
		delete(p.reported, path)
	}
}

// Finish stops the bar
func (p *HashProgress) Finish() {
	p.bar.Finish()
}
