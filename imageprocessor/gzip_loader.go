package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"cmpimg/logging"

	"github.com/klauspost/compress/gzip"
	"gocv.io/x/gocv"
)

const gzipExtension = ".gz"

// GzipImageLoader decodes gzip-compressed images such as scan.pgm.gz
type GzipImageLoader struct{}

// NewGzipImageLoader creates a loader for gzip-compressed images
func NewGzipImageLoader() *GzipImageLoader {
	return &GzipImageLoader{}
}

func (l *GzipImageLoader) Name() string { return "gzip" }

func (l *GzipImageLoader) LoadImage(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	data, err := readGzip(path)
	if err != nil {
		return gocv.NewMat(), err
	}

	img, err := gocv.IMDecode(data, flags)
	if err == nil && !img.Empty() {
		return img, nil
	}
	if err == nil {
		img.Close()
	}

	logging.DebugLog("OpenCV cannot decode the content of %s, trying Go decoders", path)
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return matFromGoImage(decoded, flags)
}

func readGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return data, nil
}
