package similarity

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cmpimg/types"
)

func TestNewMatrixFromScores(t *testing.T) {
	m := NewMatrixFromScores([]string{"a", "b", "c"}, [][]float64{{1.0, 0.25}, {0.25}})

	assert.Equal(t, 3, m.Size())
	assert.Equal(t, 1.0, m.At(0, 1))
	assert.Equal(t, 0.25, m.At(2, 0))
	assert.Equal(t, 0.25, m.At(1, 2))
	assert.Equal(t, 1.0, m.At(2, 2))
}

func TestDistance(t *testing.T) {
	m := NewMatrixFromScores([]string{"a", "b", "c"}, [][]float64{{1.0, 0.25}, {-0.5}})
	d := m.Distance()

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, d.At(i, i))
	}
	assert.Equal(t, 0.0, d.At(0, 1))
	assert.Equal(t, 0.75, d.At(2, 0))
	assert.Equal(t, 1.5, d.At(1, 2))
	assert.Equal(t, d.At(1, 2), m.DistanceAt(2, 1))
}

func TestMatrixAccessorsCopy(t *testing.T) {
	m := NewMatrixFromScores([]string{"a", "b"}, [][]float64{{0.5}})

	labels := m.Labels()
	labels[0] = "changed"
	assert.Equal(t, "a", m.Labels()[0])

	sim := m.Similarity()
	sim.SetSym(0, 1, 0.9)
	assert.Equal(t, 0.5, m.At(0, 1))
}

func TestProgressTracker(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, []string{"a", "b", "c"}, time.Hour)

	tracker.Observe(types.PairScore{I: 0, J: 1, SSIM: 0.5})
	tracker.Observe(types.PairScore{I: 0, J: 2, SSIM: 0.5})
	tracker.Observe(types.PairScore{I: 1, J: 2, SSIM: 0.5})
	tracker.Stop()
	tracker.Stop()

	assert.Equal(t, "\rProgress: 3/3 pairs\n", out.String())
}
