package similarity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"cmpimg/imageprocessor"
	"cmpimg/types"
)

func fakeImages(n int) []*imageprocessor.Image {
	images := make([]*imageprocessor.Image, n)
	for i := range images {
		images[i] = &imageprocessor.Image{Info: types.ImageInfo{
			Index: i,
			Path:  fmt.Sprintf("img%d.png", i),
			Label: fmt.Sprintf("img%d", i),
		}}
	}
	return images
}

// pairScore is a deterministic stand-in for SSIM
func pairScore(a, b *imageprocessor.Image) float64 {
	return 1.0 / float64(2+a.Info.Index*7+b.Info.Index*3)
}

func jitteryComparator(calls *atomic.Int64) Comparator {
	return func(a, b *imageprocessor.Image) (float64, error) {
		calls.Add(1)
		time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
		return pairScore(a, b), nil
	}
}

func TestComputeBuildsSymmetricMatrix(t *testing.T) {
	images := fakeImages(6)
	var calls atomic.Int64
	var seen sync.Map

	compare := func(a, b *imageprocessor.Image) (float64, error) {
		assert.Less(t, a.Info.Index, b.Info.Index)
		_, dup := seen.LoadOrStore([2]int{a.Info.Index, b.Info.Index}, true)
		assert.False(t, dup, "pair compared twice")
		return jitteryComparator(&calls)(a, b)
	}

	m, err := NewEngine(compare, WithWorkers(4)).Compute(context.Background(), images)
	require.NoError(t, err)

	assert.Equal(t, int64(15), calls.Load())
	assert.Equal(t, []string{"img0", "img1", "img2", "img3", "img4", "img5"}, m.Labels())
	for i := 0; i < m.Size(); i++ {
		assert.Equal(t, 1.0, m.At(i, i))
		for j := 0; j < m.Size(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			if i < j {
				assert.Equal(t, pairScore(images[i], images[j]), m.At(i, j))
			}
		}
	}
}

func TestComputeIsIndependentOfWorkerCount(t *testing.T) {
	images := fakeImages(9)
	var calls atomic.Int64

	serial, err := NewEngine(jitteryComparator(&calls)).Compute(context.Background(), images)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 64} {
		parallel, err := NewEngine(jitteryComparator(&calls), WithWorkers(workers)).Compute(context.Background(), images)
		require.NoError(t, err)
		assert.True(t, mat.Equal(serial.Similarity(), parallel.Similarity()), "workers=%d", workers)
	}
}

func TestComputeTooFewImages(t *testing.T) {
	var calls atomic.Int64
	for _, n := range []int{0, 1} {
		m, err := NewEngine(jitteryComparator(&calls)).Compute(context.Background(), fakeImages(n))
		assert.Nil(t, m)

		var inputErr *types.InputError
		require.True(t, errors.As(err, &inputErr))
		assert.ErrorIs(t, err, ErrTooFewImages)
	}
	assert.Zero(t, calls.Load())
}

func TestComputeFailsOnFirstBadPair(t *testing.T) {
	images := fakeImages(5)
	compare := func(a, b *imageprocessor.Image) (float64, error) {
		if a.Info.Index == 1 && b.Info.Index == 3 {
			return 0, &types.ComputationError{PathA: a.Info.Path, PathB: b.Info.Path, Err: imageprocessor.ErrWindowTooLarge}
		}
		return pairScore(a, b), nil
	}

	for _, workers := range []int{1, 4} {
		m, err := NewEngine(compare, WithWorkers(workers)).Compute(context.Background(), images)
		assert.Nil(t, m)

		var compErr *types.ComputationError
		require.True(t, errors.As(err, &compErr))
		assert.Equal(t, "img1.png", compErr.PathA)
		assert.Equal(t, "img3.png", compErr.PathB)
	}
}

func TestComputeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	compare := func(a, b *imageprocessor.Image) (float64, error) {
		cancel()
		return pairScore(a, b), nil
	}

	m, err := NewEngine(compare, WithWorkers(2)).Compute(ctx, fakeImages(4))
	assert.Nil(t, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeCallsPairHook(t *testing.T) {
	var calls atomic.Int64
	var scores []types.PairScore

	_, err := NewEngine(jitteryComparator(&calls), WithWorkers(3), WithPairHook(func(s types.PairScore) {
		scores = append(scores, s)
	})).Compute(context.Background(), fakeImages(4))
	require.NoError(t, err)

	assert.Len(t, scores, 6)
	for _, s := range scores {
		assert.Less(t, s.I, s.J)
	}
}
