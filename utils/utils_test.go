package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain", "a.png", "a"},
		{"directory", "/data/scans/b.tiff", "b"},
		{"gzip", "dir/c.pgm.gz", "c"},
		{"gzip upper", "dir/c.PGM.GZ", "c"},
		{"no extension", "dir/noext", "noext"},
		{"dots", "x.y.jpg", "x.y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RootName(tt.path))
		})
	}
}

func TestUniqueNaturalSorted(t *testing.T) {
	got := UniqueNaturalSorted([]string{"img10.png", "img2.png", "img1.png", "img2.png"})
	assert.Equal(t, []string{"img1.png", "img2.png", "img10.png"}, got)
}

func TestUniqueNaturalSortedKeepsInput(t *testing.T) {
	in := []string{"b.png", "a.png"}
	_ = UniqueNaturalSorted(in)
	assert.Equal(t, []string{"b.png", "a.png"}, in)
}
