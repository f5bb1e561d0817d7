// Package similarity computes the pairwise SSIM matrix of a set of images.
package similarity

import (
	"context"
	"errors"
	"sync"

	"cmpimg/imageprocessor"
	"cmpimg/types"

	"github.com/rs/zerolog/log"
)

// ErrTooFewImages is returned when fewer than two images are compared
var ErrTooFewImages = errors.New("at least two images are required to build a similarity matrix")

// Comparator scores one image pair
type Comparator func(a, b *imageprocessor.Image) (float64, error)

// SSIMComparator compares images with the given SSIM options
func SSIMComparator(opts imageprocessor.SSIMOptions) Comparator {
	return func(a, b *imageprocessor.Image) (float64, error) {
		return imageprocessor.CompareImages(a, b, opts)
	}
}

// Engine fans the pairs of an image set out to a bounded worker pool
type Engine struct {
	compare Comparator
	workers int
	onPair  func(types.PairScore)
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithWorkers sets the number of concurrent comparisons
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithPairHook registers a function called for every finished pair. It is
// called from the assembling goroutine only.
func WithPairHook(fn func(types.PairScore)) EngineOption {
	return func(e *Engine) { e.onPair = fn }
}

// NewEngine creates an engine with a single worker unless configured otherwise
func NewEngine(compare Comparator, opts ...EngineOption) *Engine {
	e := &Engine{compare: compare, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type pair struct {
	i, j int
}

// Compute scores every pair i<j exactly once and mirrors it, so the result
// is symmetric whatever the completion order. The diagonal is 1.0 without
// calling the comparator. The first failing pair aborts the whole run.
func (e *Engine) Compute(ctx context.Context, images []*imageprocessor.Image) (*Matrix, error) {
	n := len(images)
	if n < 2 {
		return nil, &types.InputError{Err: ErrTooFewImages}
	}

	labels := make([]string, n)
	for i, img := range images {
		labels[i] = img.Info.Label
	}
	m := newMatrix(labels)

	total := n * (n - 1) / 2
	workers := e.workers
	if workers > total {
		workers = total
	}
	log.Debug().Int("images", n).Int("pairs", total).Int("workers", workers).Msg("computing similarity matrix")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		errOnce  sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	pairs := make(chan pair)
	results := make(chan types.PairScore)

	go func() {
		defer close(pairs)
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				select {
				case pairs <- pair{i: i, j: j}:
				case <-runCtx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range pairs {
				if runCtx.Err() != nil {
					continue
				}
				score, err := e.compare(images[p.i], images[p.j])
				if err != nil {
					fail(err)
					continue
				}
				select {
				case results <- types.PairScore{I: p.i, J: p.j, SSIM: score}:
				case <-runCtx.Done():
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	placed := 0
	for r := range results {
		m.set(r.I, r.J, r.SSIM)
		placed++
		if e.onPair != nil {
			e.onPair(r)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if placed != total {
		return nil, errors.New("similarity matrix is incomplete")
	}
	return m, nil
}
