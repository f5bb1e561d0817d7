package imageprocessor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"cmpimg/logging"

	"github.com/barasher/go-exiftool"
	"gocv.io/x/gocv"
)

// previewTags lists embedded preview tags, largest first
var previewTags = []string{
	"JpgFromRaw",
	"LargestImagePreview",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

const binaryFieldPrefix = "base64:"

var errNotBinaryField = errors.New("field does not hold binary data")

// RawPreviewLoader loads camera RAW files through the JPEG preview the
// camera embeds, read with exiftool
type RawPreviewLoader struct {
	PreviewTags []string
}

// NewRawPreviewLoader creates a RAW loader trying the default preview tags
func NewRawPreviewLoader() *RawPreviewLoader {
	return &RawPreviewLoader{PreviewTags: previewTags}
}

func (l *RawPreviewLoader) Name() string { return "exiftool-preview" }

func (l *RawPreviewLoader) LoadImage(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	logging.DebugLog("Loading RAW image through embedded preview: %s", path)

	et, err := exiftool.NewExiftool(exiftool.ExtractAllBinaryMetadata())
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("exiftool unavailable: %w", err)
	}
	defer et.Close()

	fileInfos := et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return gocv.NewMat(), newImageLoadError("no metadata extracted", path)
	}
	if fileInfos[0].Err != nil {
		return gocv.NewMat(), fmt.Errorf("error extracting metadata from %s: %w", path, fileInfos[0].Err)
	}

	for _, tag := range l.PreviewTags {
		value, err := fileInfos[0].GetString(tag)
		if err != nil {
			continue
		}

		data, err := decodeBinaryField(value)
		if err != nil {
			logging.LogWarning("Skipping %s of %s: %v", tag, path, err)
			continue
		}

		img, err := gocv.IMDecode(data, flags)
		if err != nil {
			continue
		}
		if img.Empty() {
			img.Close()
			continue
		}

		logging.DebugLog("Decoded %s preview from %s", tag, path)
		return img, nil
	}

	return gocv.NewMat(), newImageLoadError("no decodable preview in RAW image", path)
}

// decodeBinaryField decodes an exiftool JSON binary value ("base64:...")
func decodeBinaryField(value string) ([]byte, error) {
	if !strings.HasPrefix(value, binaryFieldPrefix) {
		return nil, errNotBinaryField
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(value, binaryFieldPrefix))
}
