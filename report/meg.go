package report

import (
	"bytes"
	"fmt"
	"strings"

	"cmpimg/similarity"
)

const (
	megTitle       = "SSIM matrix"
	megDescription = "abs(1-SSIM) between images, as calculated by cmpimg"
	megColumnWidth = 9
)

// FormatMEG renders the distance matrix abs(1-SSIM) as a MEGA distance
// file in LowerLeft layout. Only cells below the diagonal carry values;
// the rest of each row is padded with blanks.
func FormatMEG(m *similarity.Matrix) []byte {
	var b bytes.Buffer
	labels := m.Labels()
	n := len(labels)

	b.WriteString("#mega\n")
	fmt.Fprintf(&b, "!Title: %s;\n", megTitle)
	fmt.Fprintf(&b, "!Format DataType=Distance DataFormat=LowerLeft NTaxa=%d;\n", n)
	b.WriteString("!Description\n")
	fmt.Fprintf(&b, "%s\n;\n\n", megDescription)

	for i, label := range labels {
		fmt.Fprintf(&b, "[%d] #%s\n", i+1, label)
	}

	b.WriteString("\n[     ")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%*d", megColumnWidth, i)
	}
	b.WriteString("  ]\n")

	dist := m.Distance()
	blank := strings.Repeat(" ", megColumnWidth)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%2d]   ", i+1)
		for j := 0; j < n; j++ {
			if i > j {
				fmt.Fprintf(&b, "%*.3g", megColumnWidth, dist.At(i, j))
			} else {
				b.WriteString(blank)
			}
		}
		b.WriteString("\n")
	}

	return b.Bytes()
}
