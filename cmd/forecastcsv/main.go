// Command forecastcsv runs the cleaning and forecasting pipeline over a local
// CSV or XLSX export and writes the resulting files to a directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"streamcast/internal/config"
	"streamcast/internal/exporter"
	"streamcast/internal/forecast"
	"streamcast/internal/infrastructure"
	"streamcast/internal/normalizer"
	"streamcast/internal/services"
	"streamcast/internal/validation"
)

var errUsage = errors.New("usage: forecastcsv -in <file> [-out <dir>] [-config <file>] [-variant simple|breakdown] [-xlsx]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("forecastcsv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "input CSV or XLSX file")
	out := fs.String("out", "", "output directory (defaults to paths.output_dir)")
	cfgPath := fs.String("config", "", "path to streamcast.yaml")
	variantName := fs.String("variant", string(exporter.VariantSimple), "simple | breakdown")
	workbook := fs.Bool("xlsx", false, "also write the Excel report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errUsage
	}

	variant, err := exporter.ParseVariant(*variantName)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()
	ctx = infrastructure.EnsureTraceID(ctx)

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return err
	}
	if *out == "" {
		*out = paths.OutputDir
	}

	validator := validation.NewFileValidator(logger)
	if _, err := validator.ValidateInputFile(*in); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(*out); err != nil {
		return err
	}

	models, err := forecast.LoadModelSet(ctx, forecast.ModelPaths(paths.ModelsDir, cfg.Forecast.Models), logger)
	if err != nil {
		return err
	}
	forecaster, err := forecast.NewFromConfig(cfg.Forecast, models, logger)
	if err != nil {
		return err
	}
	svc := services.NewForecastService(
		normalizer.New(cfg.Normalizer.PlaceholderTrackID, normalizer.WithLogger(logger)),
		forecaster,
		logger,
		services.WithPaths(paths),
	)

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := svc.Process(ctx, filepath.Base(*in), f)
	if err != nil {
		return fmt.Errorf("process %s: %w", *in, err)
	}

	artifacts, err := svc.WriteArtifacts(ctx, report, *out, variant, *workbook)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "forecast complete",
		slog.String("upload_id", report.UploadID),
		slog.Int("tracks", len(report.Tracks)),
		slog.Int("forecasts", len(report.Forecasts)),
		slog.Int("warnings", len(report.Warnings)))

	fmt.Fprintf(stdout, "tracks: %d, forecasts: %d\n", len(report.Tracks), len(report.Forecasts))
	for _, w := range report.Warnings {
		fmt.Fprintf(stdout, "warning: %s %s: %s\n", w.Code, w.TrackID, w.Message)
	}
	for _, path := range []string{artifacts.Cleaned, artifacts.Predictions, artifacts.Workbook} {
		if path != "" {
			fmt.Fprintln(stdout, path)
		}
	}
	return nil
}
