package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved absolute directories used by the application
type Paths struct {
	ModelsDir string
	OutputDir string
	LogsDir   string
}

// ResolvePaths turns the configured directories into absolute paths
func (c *Config) ResolvePaths() (*Paths, error) {
	resolve := func(dir string) (string, error) {
		if dir == "" || filepath.IsAbs(dir) {
			return dir, nil
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", dir, err)
		}
		return abs, nil
	}

	models, err := resolve(c.Paths.ModelsDir)
	if err != nil {
		return nil, err
	}
	output, err := resolve(c.Paths.OutputDir)
	if err != nil {
		return nil, err
	}
	logs, err := resolve(c.Paths.LogsDir)
	if err != nil {
		return nil, err
	}

	return &Paths{ModelsDir: models, OutputDir: output, LogsDir: logs}, nil
}

// EnsureDirectories creates the writable directories if missing.
// The models directory is read-only input and must already exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetOutputPath returns the path of a file in the output directory
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// LogPathResolution logs resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Info("Resolved paths",
		slog.String("models_dir", p.ModelsDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("logs_dir", p.LogsDir))
}
