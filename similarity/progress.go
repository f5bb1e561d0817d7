package similarity

import (
	"fmt"
	"io"
	"sync"
	"time"

	"cmpimg/types"

	"github.com/rs/zerolog/log"
)

// ProgressTracker prints a periodically refreshed pair counter
type ProgressTracker struct {
	out       io.Writer
	labels    []string
	total     int
	processed int
	ticker    *time.Ticker
	done      chan struct{}
	stopped   sync.Once
	wg        sync.WaitGroup
	mu        sync.Mutex
}

// NewProgressTracker starts a tracker refreshing every interval
func NewProgressTracker(out io.Writer, labels []string, interval time.Duration) *ProgressTracker {
	n := len(labels)
	tracker := &ProgressTracker{
		out:    out,
		labels: labels,
		total:  n * (n - 1) / 2,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}

	tracker.wg.Add(1)
	go tracker.displayProgress()

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.print()
		}
	}
}

func (p *ProgressTracker) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\rProgress: %d/%d pairs", p.processed, p.total)
}

// Observe records one finished pair; pass it to WithPairHook
func (p *ProgressTracker) Observe(score types.PairScore) {
	p.mu.Lock()
	p.processed++
	p.mu.Unlock()

	log.Debug().
		Str("a", p.labels[score.I]).
		Str("b", p.labels[score.J]).
		Float64("ssim", score.SSIM).
		Msg("pair compared")
}

// Stop ends the progress display after printing the final count
func (p *ProgressTracker) Stop() {
	p.stopped.Do(func() {
		p.ticker.Stop()
		close(p.done)
		p.wg.Wait()
		p.print()
		fmt.Fprintln(p.out)
	})
}
