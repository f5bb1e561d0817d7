// Package config holds the immutable run configuration assembled from
// command-line flags.
package config

import (
	"errors"
	"fmt"

	"cmpimg/types"
	"cmpimg/utils"
)

const (
	DefaultOutput    = "ssim_matrix"
	DefaultDataRange = 2.0
	Version          = "1.1"
)

// ColorMode selects how images are decoded
type ColorMode string

const (
	ColorModeColor ColorMode = "color"
	ColorModeGray  ColorMode = "gray"
)

// Config is the validated input of one cmpimg run
type Config struct {
	Images    []string
	Output    string
	Database  string
	ColorMode ColorMode
	Gaussian  bool
	DataRange float64
	Workers   int
	Debug     bool
	Quiet     bool
	LogFile   string
}

// ErrTooFewImages is returned when fewer than two unique images are given
var ErrTooFewImages = errors.New("at least two unique images are required")

// New deduplicates and naturally sorts the image paths, applies defaults
// and validates the result.
func New(images []string, opts ...Option) (Config, error) {
	cfg := Config{
		Images:    utils.UniqueNaturalSorted(images),
		Output:    DefaultOutput,
		ColorMode: ColorModeColor,
		DataRange: DefaultDataRange,
		Workers:   1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	if len(c.Images) < 2 {
		return &types.InputError{Err: ErrTooFewImages}
	}
	if c.Output == "" {
		return fmt.Errorf("output base name must not be empty")
	}
	if c.ColorMode != ColorModeColor && c.ColorMode != ColorModeGray {
		return fmt.Errorf("unknown color mode %q", c.ColorMode)
	}
	if c.DataRange <= 0 {
		return fmt.Errorf("data range must be positive, got %g", c.DataRange)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
