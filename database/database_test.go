package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmpimg/similarity"
	"cmpimg/types"
)

func exampleInfos() []types.ImageInfo {
	return []types.ImageInfo{
		{Index: 0, Path: "x/a.png", Label: "a", Format: "png", Width: 8, Height: 8, Channels: 3},
		{Index: 1, Path: "x/b.png", Label: "b", Format: "png", Width: 8, Height: 8, Channels: 3},
		{Index: 2, Path: "x/c.png", Label: "c", Format: "png", Width: 8, Height: 8, Channels: 3},
	}
}

func TestExportMatrix(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "out.db")
	m := similarity.NewMatrixFromScores([]string{"a", "b", "c"}, [][]float64{{1.0, 0.8}, {0.6}})

	require.NoError(t, ExportMatrix(dbPath, m, exampleInfos()))

	db, err := OpenDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var images int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM images").Scan(&images))
	assert.Equal(t, 3, images)

	scores, err := QueryMostSimilar(db, 10)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, PairScore{LabelA: "a", LabelB: "b", SSIM: 1.0, Distance: 0}, scores[0])
	assert.Equal(t, "a", scores[1].LabelA)
	assert.Equal(t, "c", scores[1].LabelB)
	assert.InDelta(t, 0.2, scores[1].Distance, 1e-12)
	assert.InDelta(t, 0.6, scores[2].SSIM, 1e-12)
}

func TestExportMatrixReplacesPreviousExport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "out.db")
	m := similarity.NewMatrixFromScores([]string{"a", "b", "c"}, [][]float64{{0.1, 0.2}, {0.3}})
	require.NoError(t, ExportMatrix(dbPath, m, exampleInfos()))
	require.NoError(t, ExportMatrix(dbPath, m, exampleInfos()))

	db, err := OpenDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var pairs int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM similarities").Scan(&pairs))
	assert.Equal(t, 3, pairs)
}

func TestExportMatrixSizeMismatch(t *testing.T) {
	m := similarity.NewMatrixFromScores([]string{"a", "b"}, [][]float64{{0.5}})
	err := ExportMatrix(filepath.Join(t.TempDir(), "out.db"), m, exampleInfos())
	assert.Error(t, err)
}
