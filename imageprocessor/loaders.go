package imageprocessor

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageLoader interface defines methods for image loading
type ImageLoader interface {
	// Name identifies the loader in logs
	Name() string

	// LoadImage decodes the file into a Mat using the given read flags
	LoadImage(path string, flags gocv.IMReadFlag) (gocv.Mat, error)
}

// StandardImageLoader decodes every format OpenCV's imgcodecs supports
type StandardImageLoader struct{}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{}
}

func (l *StandardImageLoader) Name() string { return "opencv" }

// LoadImage loads a standard image format
func (l *StandardImageLoader) LoadImage(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	img := gocv.IMRead(path, flags)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), newImageLoadError("failed to load image", path)
	}
	return img, nil
}

// GoImageLoader decodes with Go's image packages, for files the OpenCV
// build cannot read (GIF, some TIFF and WebP variants).
type GoImageLoader struct{}

// NewGoImageLoader creates a loader backed by the registered Go decoders
func NewGoImageLoader() *GoImageLoader {
	return &GoImageLoader{}
}

func (l *GoImageLoader) Name() string { return "go-image" }

func (l *GoImageLoader) LoadImage(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return matFromGoImage(img, flags)
}

// matFromGoImage converts a decoded Go image to a Mat the way IMRead would
// produce it: one channel for gray sources, four when the source carries
// alpha, three otherwise, and 16-bit samples kept unless grayscale reading
// was requested.
func matFromGoImage(img image.Image, flags gocv.IMReadFlag) (gocv.Mat, error) {
	if flags == gocv.IMReadGrayScale {
		return grayMat(img)
	}

	channels := 3
	switch {
	case isGrayModel(img.ColorModel()):
		channels = 1
	case hasAlpha(img):
		channels = 4
	}

	if is16Bit(img.ColorModel()) {
		return mat16FromGoImage(img, channels)
	}

	switch channels {
	case 1:
		return grayMat(img)
	case 4:
		return gocv.ImageToMatRGBA(img)
	default:
		return gocv.ImageToMatRGB(img)
	}
}

func grayMat(img image.Image) (gocv.Mat, error) {
	gray := image.NewGray(img.Bounds())
	xdraw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, xdraw.Src)
	return gocv.ImageGrayToMatGray(gray)
}

// mat16FromGoImage builds a 16-bit Mat with OpenCV's BGR(A) channel order
func mat16FromGoImage(img image.Image, channels int) (gocv.Mat, error) {
	matType := map[int]gocv.MatType{
		1: gocv.MatTypeCV16UC1,
		3: gocv.MatTypeCV16UC3,
		4: gocv.MatTypeCV16UC4,
	}[channels]

	b := img.Bounds()
	data := make([]byte, 0, b.Dx()*b.Dy()*channels*2)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if channels == 1 {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				data = binary.NativeEndian.AppendUint16(data, g.Y)
				continue
			}
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			data = binary.NativeEndian.AppendUint16(data, c.B)
			data = binary.NativeEndian.AppendUint16(data, c.G)
			data = binary.NativeEndian.AppendUint16(data, c.R)
			if channels == 4 {
				data = binary.NativeEndian.AppendUint16(data, c.A)
			}
		}
	}

	m, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), matType, data)
	if err != nil {
		return gocv.NewMat(), err
	}
	// the Mat borrows data; give it its own copy
	defer m.Close()
	return m.Clone(), nil
}

func isGrayModel(m color.Model) bool {
	return m == color.GrayModel || m == color.Gray16Model
}

func is16Bit(m color.Model) bool {
	return m == color.Gray16Model || m == color.RGBA64Model || m == color.NRGBA64Model
}

// hasAlpha reports whether the source format stores an alpha channel,
// even if every pixel happens to be opaque
func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.YCbCr, *image.CMYK:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// fileExists checks if a file exists and is a regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
