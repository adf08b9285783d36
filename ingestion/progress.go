package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// outcome classifies what happened to one input file.
type outcome int

const (
	outcomeImported outcome = iota
	outcomeSkipped
	outcomeFailed
)

// ProgressTracker reports import progress to a writer.
// A nil writer disables output but counts are still kept.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	done           int
	imported       int
	skipped        int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker for total files that reports every
// reportInterval files.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.done, p.imported, p.skipped, p.failed = 0, 0, 0, 0
	p.lastReported = 0
}

func (p *ProgressTracker) record(o outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	switch o {
	case outcomeImported:
		p.imported++
	case outcomeSkipped:
		p.skipped++
	case outcomeFailed:
		p.failed++
	}
	if p.done < p.total {
		p.done++
	}

	if p.done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.done
	}
}

// Finish prints the final line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.done = p.total
	p.report()
	if p.writer != nil {
		fmt.Fprintln(p.writer)
	}
}

// Counts returns how many files were imported, skipped and failed so far.
func (p *ProgressTracker) Counts() (imported, skipped, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imported, p.skipped, p.failed
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report must be called with the lock held.
func (p *ProgressTracker) report() {
	if p.writer == nil {
		return
	}

	rate := 0.0
	if secs := time.Since(p.startTime).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rImported %d/%d (%.1f%%), %d skipped, %d failed - %.1f files/s",
		p.done, p.total, percentage, p.skipped, p.failed, rate)
}
