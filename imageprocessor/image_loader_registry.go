package imageprocessor

import (
	"path/filepath"
	"strings"
	"sync"

	"cmpimg/logging"

	"gocv.io/x/gocv"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders        map[string]ImageLoader
	defaultLoader  ImageLoader
	rawLoader      ImageLoader
	fallbackLoader ImageLoader
	mutex          sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders:        make(map[string]ImageLoader),
		defaultLoader:  NewStandardImageLoader(),
		rawLoader:      NewRawPreviewLoader(),
		fallbackLoader: NewGoImageLoader(),
	}
	registry.RegisterLoader(gzipExtension, NewGzipImageLoader())

	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}
	if IsRawFormat(path) {
		return r.rawLoader
	}

	return r.defaultLoader
}

// LoadImage loads an image with the loader registered for its extension,
// retrying with the Go decoders when that loader fails
func (r *ImageLoaderRegistry) LoadImage(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	if !fileExists(path) {
		return gocv.NewMat(), newImageLoadError("file does not exist", path)
	}

	loader := r.GetLoader(path)
	img, err := loader.LoadImage(path, flags)
	if err == nil {
		return img, nil
	}
	img.Close()

	if r.fallbackLoader == nil || r.fallbackLoader == loader {
		return gocv.NewMat(), err
	}

	logging.DebugLog("%s loader failed for %s (%v), trying %s", loader.Name(), path, err, r.fallbackLoader.Name())
	fallback, fallbackErr := r.fallbackLoader.LoadImage(path, flags)
	if fallbackErr != nil {
		fallback.Close()
		return gocv.NewMat(), err
	}
	return fallback, nil
}
