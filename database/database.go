package database

import (
	"database/sql"
	"fmt"

	"cmpimg/logging"
	"cmpimg/similarity"
	"cmpimg/types"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
	DROP TABLE IF EXISTS similarities;
	DROP TABLE IF EXISTS images;
	CREATE TABLE images (
		idx INTEGER PRIMARY KEY,
		label TEXT NOT NULL,
		path TEXT NOT NULL,
		format TEXT,
		width INTEGER,
		height INTEGER,
		channels INTEGER
	);
	CREATE TABLE similarities (
		i INTEGER NOT NULL REFERENCES images(idx),
		j INTEGER NOT NULL REFERENCES images(idx),
		ssim REAL NOT NULL,
		distance REAL NOT NULL,
		PRIMARY KEY (i, j),
		CHECK (i < j)
	);
	CREATE INDEX IF NOT EXISTS idx_similarities_ssim ON similarities(ssim);`

// InitDatabase opens the database at dbPath and (re)creates the export schema
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create schema in %s: %w", dbPath, err)
	}

	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// ExportMatrix writes the image list and every pair i<j of the matrix into a
// fresh database at dbPath, inside one transaction
func ExportMatrix(dbPath string, m *similarity.Matrix, infos []types.ImageInfo) error {
	if len(infos) != m.Size() {
		return fmt.Errorf("matrix has %d rows but %d images were given", m.Size(), len(infos))
	}

	db, err := InitDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := storeImages(tx, infos); err != nil {
		return err
	}
	if err := storeSimilarities(tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit export: %w", err)
	}

	logging.DebugLog("Exported %d images and %d pairs to %s", len(infos), m.Size()*(m.Size()-1)/2, dbPath)
	return nil
}

func storeImages(tx *sql.Tx, infos []types.ImageInfo) error {
	stmt, err := tx.Prepare(`
		INSERT INTO images (idx, label, path, format, width, height, channels)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare image insert: %w", err)
	}
	defer stmt.Close()

	for _, info := range infos {
		_, err := stmt.Exec(info.Index, info.Label, info.Path, info.Format, info.Width, info.Height, info.Channels)
		if err != nil {
			return fmt.Errorf("cannot insert image %s: %w", info.Path, err)
		}
	}
	return nil
}

func storeSimilarities(tx *sql.Tx, m *similarity.Matrix) error {
	stmt, err := tx.Prepare(`INSERT INTO similarities (i, j, ssim, distance) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare similarity insert: %w", err)
	}
	defer stmt.Close()

	n := m.Size()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if _, err := stmt.Exec(i, j, m.At(i, j), m.DistanceAt(i, j)); err != nil {
				return fmt.Errorf("cannot insert pair (%d, %d): %w", i, j, err)
			}
		}
	}
	return nil
}

// PairScore is one exported row of the similarities table
type PairScore struct {
	LabelA   string
	LabelB   string
	SSIM     float64
	Distance float64
}

// QueryMostSimilar returns the exported pairs ordered by decreasing SSIM
func QueryMostSimilar(db *sql.DB, limit int) ([]PairScore, error) {
	rows, err := db.Query(`
		SELECT a.label, b.label, s.ssim, s.distance
		FROM similarities s
		JOIN images a ON a.idx = s.i
		JOIN images b ON b.idx = s.j
		ORDER BY s.ssim DESC, s.i, s.j
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var scores []PairScore
	for rows.Next() {
		var p PairScore
		if err := rows.Scan(&p.LabelA, &p.LabelB, &p.SSIM, &p.Distance); err != nil {
			return nil, err
		}
		scores = append(scores, p)
	}
	return scores, rows.Err()
}
