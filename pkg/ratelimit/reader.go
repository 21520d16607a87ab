// Package ratelimit caps read throughput with a token bucket. The scan
// uses it to keep the hash phase from saturating a disk that is busy
// doing other work.
package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"
)

// minBurst keeps small limits from degenerating into one-byte reads
const minBurst = 64 * 1024

// Limiter is a token bucket shared across any number of readers
type Limiter struct {
	bytesPerSecond int64
	burst          int64

	mu         sync.Mutex
	tokens     int64
	lastRefill time.Time
}

// NewLimiter creates a limiter allowing bytesPerSecond of throughput
// with a one-second burst. A non-positive limit returns nil, meaning
// no limiting.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}
	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		burst:          burst,
		tokens:         burst,
		lastRefill:     time.Now(),
	}
}

// take blocks until n tokens are available, then consumes them.
// Returns early with the context error on cancellation.
func (l *Limiter) take(ctx context.Context, n int64) error {
	if n > l.burst {
		n = l.burst
	}
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= n {
			l.tokens -= n
			l.mu.Unlock()
			return nil
		}
		deficit := n - l.tokens
		l.mu.Unlock()

		wait := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill credits tokens for the time elapsed since the last refill
// (must be called with the lock held)
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)
	credit := int64(float64(elapsed) / float64(time.Second) * float64(l.bytesPerSecond))
	if credit <= 0 {
		return
	}
	l.tokens += credit
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastRefill = now
}

// reader wraps an io.Reader with the limiter
type reader struct {
	r       io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps r so reads respect the limiter. A nil limiter returns
// r unchanged.
func NewReader(ctx context.Context, r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &reader{r: r, limiter: limiter, ctx: ctx}
}

// Read implements io.Reader. Tokens are charged after the underlying
// read, for the bytes actually delivered, so short reads do not eat
// into the budget.
func (r *reader) Read(p []byte) (int, error) {
	want := int64(len(p))
	if want > r.limiter.burst {
		want = r.limiter.burst
	}
	n, err := r.r.Read(p[:want])
	if n > 0 {
		if terr := r.limiter.take(r.ctx, int64(n)); terr != nil {
			return n, terr
		}
	}
	return n, err
}

// readCloser adds Close passthrough
type readCloser struct {
	reader
	closer io.Closer
}

// NewReadCloser wraps rc so reads respect the limiter. A nil limiter
// returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &readCloser{
		reader: reader{r: rc, limiter: limiter, ctx: ctx},
		closer: rc,
	}
}

// Close implements io.Closer
func (rc *readCloser) Close() error {
	return rc.closer.Close()
}
