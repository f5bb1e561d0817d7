package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"cmpimg/config"
	"cmpimg/database"
	"cmpimg/logging"
	"cmpimg/pipeline"
	"cmpimg/signalhandler"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.LogError("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmpimg [flags] image [image ...]",
		Short: "Build a pairwise SSIM matrix for a set of images",
		Long: `cmpimg compares every pair of the given images with the structural
similarity index (SSIM) and writes the result twice: as a CSV similarity
table and as a MEGA distance file holding abs(1-SSIM).

Duplicate paths are ignored and images are ordered by natural sort of
their paths. At least two unique images are required.`,
		Version:       config.Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompare,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	defaultWorkers := signalhandler.GetOptimalProcs()

	flags := cmd.Flags()
	flags.StringP("output", "o", config.DefaultOutput, "Base name of the output files (.csv and .meg are appended)")
	flags.Bool("gray", false, "Load images as grayscale")
	flags.Bool("gaussian", false, "Use a Gaussian-weighted SSIM window instead of a uniform 7x7 one")
	flags.Float64("data-range", config.DefaultDataRange, "Dynamic range of the normalized sample values")
	flags.IntP("workers", "j", defaultWorkers, "Number of concurrent comparisons")
	flags.String("database", "", "Also export the matrix to this SQLite database")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("logfile", "", "Also write JSON log records to this file")
	flags.BoolP("quiet", "q", false, "Suppress progress and summary output")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd, args)
	if err != nil {
		return err
	}

	if err := logging.SetupLogger(logging.Options{
		Debug:   cfg.Debug,
		Quiet:   cfg.Quiet,
		LogFile: cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	}); err != nil {
		return err
	}
	defer logging.CloseLogger()

	ctx, cancel := signalhandler.SetupHandler(cmd.Context())
	defer cancel()

	var progress io.Writer
	if !cfg.Quiet {
		progress = logging.StatusWriter()
	}

	startTime := time.Now()
	res, err := pipeline.Run(ctx, cfg, progress)
	if err != nil {
		return err
	}

	if !cfg.Quiet {
		out := cmd.OutOrStdout()
		for _, f := range res.Files {
			fmt.Fprintf(out, "Wrote file %s\n", f)
		}
		n := res.Matrix.Size()
		fmt.Fprintf(out, "Compared %d images (%d pairs) in %v\n", n, n*(n-1)/2, time.Since(startTime).Round(time.Millisecond))

		if cfg.Database != "" {
			if err := printMostSimilar(out, cfg.Database); err != nil {
				return err
			}
		}
	}
	return nil
}

// printMostSimilar reports the top pair of a freshly written export
func printMostSimilar(out io.Writer, dbPath string) error {
	db, err := database.OpenDatabase(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	top, err := database.QueryMostSimilar(db, 1)
	if err != nil {
		return err
	}
	if len(top) == 1 {
		fmt.Fprintf(out, "Most similar pair: %s and %s (SSIM %.6f)\n", top[0].LabelA, top[0].LabelB, top[0].SSIM)
	}
	return nil
}

func configFromFlags(cmd *cobra.Command, args []string) (config.Config, error) {
	flags := cmd.Flags()
	output, _ := flags.GetString("output")
	gray, _ := flags.GetBool("gray")
	gaussian, _ := flags.GetBool("gaussian")
	dataRange, _ := flags.GetFloat64("data-range")
	workers, _ := flags.GetInt("workers")
	dbPath, _ := flags.GetString("database")
	debug, _ := flags.GetBool("debug")
	logFile, _ := flags.GetString("logfile")
	quiet, _ := flags.GetBool("quiet")

	colorMode := config.ColorModeColor
	if gray {
		colorMode = config.ColorModeGray
	}

	return config.New(args,
		config.WithOutput(output),
		config.WithColorMode(colorMode),
		config.WithGaussian(gaussian),
		config.WithDataRange(dataRange),
		config.WithWorkers(workers),
		config.WithDatabase(dbPath),
		config.WithLogging(debug, quiet, logFile),
	)
}
