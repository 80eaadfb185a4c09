package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker draws one carriage-return progress line for a bulk load.
// Methods may be called from several goroutines.
type ProgressTracker struct {
	mu sync.Mutex
	w  io.Writer

	total     int
	every     int
	done      int
	shownAt   int
	began     time.Time
	running   bool
	finalized bool
}

// NewProgressTracker redraws the line on w each time at least every more
// documents have been indexed.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	return &ProgressTracker{w: w, total: total, every: max(every, 1)}
}

// Start begins timing with done documents already indexed, so a resumed
// load shows its real position.
func (p *ProgressTracker) Start(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.began = time.Now()
	p.running = true
	p.finalized = false
	p.done = min(done, p.total)
	p.shownAt = p.done
}

// Increment records n more indexed documents.
func (p *ProgressTracker) Increment(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.done = min(p.done+n, p.total)
	if p.done-p.shownAt < p.every {
		return
	}
	p.draw()
	p.shownAt = p.done
}

// Finish draws the line one last time and ends it. Later calls do nothing.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.finalized {
		return
	}
	p.draw()
	fmt.Fprintln(p.w)
	p.finalized = true
}

// Elapsed is the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return 0
	}
	return time.Since(p.began)
}

// draw needs p.mu held.
func (p *ProgressTracker) draw() {
	pct := 100.0
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	var rate float64
	if secs := time.Since(p.began).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	fmt.Fprintf(p.w, "\rIndexed: %d/%d (%.1f%%) - %.1f documents/s", p.done, p.total, pct, rate)
}
