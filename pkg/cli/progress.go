package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// BatchProgress draws a one-line bar for a batch of generations. Done is
// safe to call from the batch workers.
type BatchProgress struct {
	w     io.Writer
	width int

	mu      sync.Mutex
	total   int
	done    int
	failed  int
	started time.Time
}

// NewBatchProgress writes to w, or stderr when w is nil.
func NewBatchProgress(w io.Writer, total int) *BatchProgress {
	if w == nil {
		w = os.Stderr
	}
	p := &BatchProgress{w: w, width: 30, total: total, started: time.Now()}
	p.draw()
	return p
}

// Done records one finished generation.
func (p *BatchProgress) Done(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done < p.total {
		p.done++
	}
	if !success {
		p.failed++
	}
	p.draw()
}

// Finish ends the line.
func (p *BatchProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w)
}

func (p *BatchProgress) draw() {
	if p.total <= 0 {
		return
	}
	filled := p.width * p.done / p.total
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", p.width-filled)
	line := fmt.Sprintf("\r[%s] %d/%d generated", bar, p.done, p.total)
	if p.failed > 0 {
		line += fmt.Sprintf(", %d failed", p.failed)
	}
	fmt.Fprintf(p.w, "%s  %s", line, time.Since(p.started).Round(time.Second))
}
