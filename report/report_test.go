package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmpimg/similarity"
)

// a and b are identical, c differs from both
func exampleMatrix() *similarity.Matrix {
	return similarity.NewMatrixFromScores([]string{"a", "b", "c"}, [][]float64{{1.0, 0.8}, {0.8}})
}

func TestFormatCSV(t *testing.T) {
	got, err := FormatCSV(exampleMatrix())
	require.NoError(t, err)

	want := ",a,b,c\n" +
		"a,1.000000,1.000000,0.800000\n" +
		"b,1.000000,1.000000,0.800000\n" +
		"c,0.800000,0.800000,1.000000\n"
	assert.Equal(t, want, string(got))
}

func TestFormatCSVQuotesLabels(t *testing.T) {
	m := similarity.NewMatrixFromScores([]string{"x,1", "y"}, [][]float64{{-0.25}})
	got, err := FormatCSV(m)
	require.NoError(t, err)

	assert.Equal(t, `,"x,1",y`+"\n"+`"x,1",1.000000,-0.250000`+"\ny,-0.250000,1.000000\n", string(got))
}

func TestFormatMEG(t *testing.T) {
	got := string(FormatMEG(exampleMatrix()))

	blank := strings.Repeat(" ", 9)
	want := "#mega\n" +
		"!Title: SSIM matrix;\n" +
		"!Format DataType=Distance DataFormat=LowerLeft NTaxa=3;\n" +
		"!Description\n" +
		"abs(1-SSIM) between images, as calculated by cmpimg\n" +
		";\n" +
		"\n" +
		"[1] #a\n" +
		"[2] #b\n" +
		"[3] #c\n" +
		"\n" +
		"[     " + "        1" + "        2" + "        3" + "  ]\n" +
		"[ 1]   " + blank + blank + blank + "\n" +
		"[ 2]   " + "        0" + blank + blank + "\n" +
		"[ 3]   " + "      0.2" + "      0.2" + blank + "\n"
	assert.Equal(t, want, got)
}

func TestFormatMEGNumberFormatting(t *testing.T) {
	m := similarity.NewMatrixFromScores([]string{"p", "q", "r", "s"}, [][]float64{
		{0.123456, 0.99999, 1.5},
		{-0.4, 0.5},
		{0.9876},
	})
	lines := strings.Split(string(FormatMEG(m)), "\n")

	last := lines[len(lines)-2]
	assert.Equal(t, "[ 4]   "+"      0.5"+"      0.5"+"   0.0124"+strings.Repeat(" ", 9), last)

	third := lines[len(lines)-3]
	assert.Equal(t, "[ 3]   "+"    1e-05"+"      1.4"+strings.Repeat(" ", 18), third)

	second := lines[len(lines)-4]
	assert.Equal(t, "[ 2]   "+"    0.877"+strings.Repeat(" ", 27), second)
}

func TestFormatMEGRowCount(t *testing.T) {
	labels := make([]string, 12)
	upper := make([][]float64, 11)
	for i := range labels {
		labels[i] = string(rune('a' + i))
	}
	for i := range upper {
		upper[i] = make([]float64, 11-i)
	}
	lines := strings.Split(strings.TrimSuffix(string(FormatMEG(similarity.NewMatrixFromScores(labels, upper))), "\n"), "\n")

	assert.Equal(t, "[12]   ", lines[len(lines)-1][:7])
	assert.Len(t, lines, 7+12+1+1+12)
}
