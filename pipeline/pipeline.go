// Package pipeline runs one batch comparison: load, compute, format, write.
package pipeline

import (
	"context"
	"io"
	"time"

	"cmpimg/config"
	"cmpimg/database"
	"cmpimg/imageprocessor"
	"cmpimg/logging"
	"cmpimg/output"
	"cmpimg/report"
	"cmpimg/similarity"
	"cmpimg/types"

	"github.com/rs/zerolog/log"
)

const (
	csvExtension = ".csv"
	megExtension = ".meg"

	progressInterval = 500 * time.Millisecond
)

// Result describes a finished run
type Result struct {
	Matrix *similarity.Matrix
	Images []types.ImageInfo
	Files  []string
}

// Run executes the whole pipeline for cfg. Progress is printed to progress
// when it is not nil. Either every output file is written or none is.
func Run(ctx context.Context, cfg config.Config, progress io.Writer) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	images, err := imageprocessor.LoadImages(cfg.Images, imageprocessor.LoadOptions{
		Grayscale: cfg.ColorMode == config.ColorModeGray,
	})
	if err != nil {
		return nil, err
	}
	defer imageprocessor.CloseImages(images)

	infos := make([]types.ImageInfo, len(images))
	labels := make([]string, len(images))
	for i, img := range images {
		infos[i] = img.Info
		labels[i] = img.Info.Label
	}
	logging.LogInfo("Loaded %d images in %v", len(images), time.Since(startTime).Round(time.Millisecond))

	matrix, err := computeMatrix(ctx, cfg, images, labels, progress)
	if err != nil {
		return nil, err
	}

	artifacts, err := buildArtifacts(cfg, matrix, infos)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := output.WriteSet(artifacts); err != nil {
		return nil, err
	}

	files := make([]string, len(artifacts))
	for i, a := range artifacts {
		files[i] = a.Path
	}
	log.Info().Strs("files", files).Dur("elapsed", time.Since(startTime)).Msg("similarity matrix written")

	return &Result{Matrix: matrix, Images: infos, Files: files}, nil
}

// SSIMOptions derives the comparison parameters from the configuration
func SSIMOptions(cfg config.Config) imageprocessor.SSIMOptions {
	opts := imageprocessor.DefaultSSIMOptions()
	opts.Gaussian = cfg.Gaussian
	opts.DataRange = cfg.DataRange
	return opts
}

func computeMatrix(ctx context.Context, cfg config.Config, images []*imageprocessor.Image, labels []string, progress io.Writer) (*similarity.Matrix, error) {
	engineOpts := []similarity.EngineOption{similarity.WithWorkers(cfg.Workers)}

	if progress != nil {
		tracker := similarity.NewProgressTracker(progress, labels, progressInterval)
		defer tracker.Stop()
		engineOpts = append(engineOpts, similarity.WithPairHook(tracker.Observe))
	} else {
		engineOpts = append(engineOpts, similarity.WithPairHook(func(s types.PairScore) {
			log.Debug().Str("a", labels[s.I]).Str("b", labels[s.J]).Float64("ssim", s.SSIM).Msg("pair compared")
		}))
	}

	engine := similarity.NewEngine(similarity.SSIMComparator(SSIMOptions(cfg)), engineOpts...)
	return engine.Compute(ctx, images)
}

func buildArtifacts(cfg config.Config, matrix *similarity.Matrix, infos []types.ImageInfo) ([]output.Artifact, error) {
	csvData, err := report.FormatCSV(matrix)
	if err != nil {
		return nil, err
	}

	artifacts := []output.Artifact{
		{Path: cfg.Output + csvExtension, Data: csvData},
		{Path: cfg.Output + megExtension, Data: report.FormatMEG(matrix)},
	}

	if cfg.Database != "" {
		artifacts = append(artifacts, output.Artifact{
			Path: cfg.Database,
			Render: func(path string) error {
				return database.ExportMatrix(path, matrix, infos)
			},
		})
	}
	return artifacts, nil
}
