package similarity

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is an immutable symmetric similarity matrix with unit diagonal.
// Row and column i belong to Labels()[i].
type Matrix struct {
	labels []string
	sym    *mat.SymDense
}

// newMatrix returns an N×N matrix with the diagonal set to 1.0
func newMatrix(labels []string) *Matrix {
	n := len(labels)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1.0)
	}
	return &Matrix{labels: append([]string(nil), labels...), sym: sym}
}

// NewMatrixFromScores builds a matrix from labels and the upper-triangle
// scores, scores[i][j-i-1] holding the value of pair (i, j)
func NewMatrixFromScores(labels []string, upper [][]float64) *Matrix {
	m := newMatrix(labels)
	for i, row := range upper {
		for k, v := range row {
			m.set(i, i+k+1, v)
		}
	}
	return m
}

// set places a pair score; SymDense stores (i,j) and (j,i) as one element
func (m *Matrix) set(i, j int, v float64) {
	m.sym.SetSym(i, j, v)
}

// Size returns N
func (m *Matrix) Size() int {
	return len(m.labels)
}

// Labels returns a copy of the row/column labels
func (m *Matrix) Labels() []string {
	return append([]string(nil), m.labels...)
}

// At returns the similarity of images i and j
func (m *Matrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// DistanceAt returns abs(1 - similarity) of images i and j
func (m *Matrix) DistanceAt(i, j int) float64 {
	return math.Abs(1 - m.sym.At(i, j))
}

// Similarity returns a copy of the similarity values
func (m *Matrix) Similarity() *mat.SymDense {
	c := mat.NewSymDense(m.Size(), nil)
	c.CopySym(m.sym)
	return c
}

// Distance returns the derived distance matrix abs(1 - similarity),
// which has a zero diagonal
func (m *Matrix) Distance() *mat.SymDense {
	n := m.Size()
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, m.DistanceAt(i, j))
		}
	}
	return d
}
