// Package report turns a similarity matrix into its serialized forms.
package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"cmpimg/similarity"
)

// FormatCSV renders the full square similarity table: a header of labels
// after a blank corner cell, then one row per image with its label and N
// values, diagonal and both triangles included.
func FormatCSV(m *similarity.Matrix) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	labels := m.Labels()
	sim := m.Similarity()
	if err := w.Write(append([]string{""}, labels...)); err != nil {
		return nil, err
	}

	row := make([]string, len(labels)+1)
	for i, label := range labels {
		row[0] = label
		for j := range labels {
			row[j+1] = formatSimilarity(sim.At(i, j))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatSimilarity prints six decimals with a '.' separator
func formatSimilarity(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
