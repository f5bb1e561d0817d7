package imageprocessor

import (
	"cmpimg/logging"
	"cmpimg/types"
	"cmpimg/utils"

	"gocv.io/x/gocv"
)

// Image is one decoded input image. Mat holds float64 samples; integer
// sources are scaled to [0,1].
type Image struct {
	Info types.ImageInfo
	Mat  gocv.Mat
}

// Close releases the underlying Mat
func (img *Image) Close() error {
	return img.Mat.Close()
}

// LoadOptions controls how input images are decoded
type LoadOptions struct {
	Grayscale bool
}

func (o LoadOptions) readFlags() gocv.IMReadFlag {
	if o.Grayscale {
		return gocv.IMReadGrayScale
	}
	return gocv.IMReadUnchanged
}

// LoadImages decodes every path in order. The first failure closes the
// images loaded so far and returns an InputError naming the file.
func LoadImages(paths []string, opts LoadOptions) ([]*Image, error) {
	registry := NewImageLoaderRegistry()

	images := make([]*Image, 0, len(paths))
	for i, path := range paths {
		img, err := loadImage(registry, i, path, opts)
		logging.LogImageLoaded(path, err)
		if err != nil {
			CloseImages(images)
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// CloseImages releases all images
func CloseImages(images []*Image) {
	for _, img := range images {
		if img != nil {
			img.Close()
		}
	}
}

func loadImage(registry *ImageLoaderRegistry, index int, path string, opts LoadOptions) (*Image, error) {
	raw, err := registry.LoadImage(path, opts.readFlags())
	if err != nil {
		return nil, &types.InputError{Path: path, Err: err}
	}
	defer raw.Close()

	samples := gocv.NewMat()
	raw.ConvertToWithParams(&samples, gocv.MatTypeCV64F, sampleScale(raw.Type()), 0)

	return &Image{
		Info: types.ImageInfo{
			Index:    index,
			Path:     path,
			Label:    utils.RootName(path),
			Format:   string(GetFileFormat(path)),
			Width:    samples.Cols(),
			Height:   samples.Rows(),
			Channels: samples.Channels(),
		},
		Mat: samples,
	}, nil
}

// sampleScale maps integer sample depths to [0,1]; float data is kept as is
func sampleScale(t gocv.MatType) float32 {
	switch t % 8 {
	case gocv.MatTypeCV8U:
		return 1.0 / 255
	case gocv.MatTypeCV8S:
		return 1.0 / 127
	case gocv.MatTypeCV16U:
		return 1.0 / 65535
	case gocv.MatTypeCV16S:
		return 1.0 / 32767
	case gocv.MatTypeCV32S:
		return 1.0 / 2147483647
	default:
		return 1
	}
}
