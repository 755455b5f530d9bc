package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	abs := t.TempDir()

	tests := []struct {
		name   string
		config PathsConfig
		want   Paths
	}{
		{
			name:   "relative directories resolve against the working directory",
			config: PathsConfig{ModelsDir: "models", OutputDir: "data/output", LogsDir: "logs"},
			want: Paths{
				ModelsDir: filepath.Join(wd, "models"),
				OutputDir: filepath.Join(wd, "data", "output"),
				LogsDir:   filepath.Join(wd, "logs"),
			},
		},
		{
			name:   "absolute directories are kept",
			config: PathsConfig{ModelsDir: abs, OutputDir: abs, LogsDir: abs},
			want:   Paths{ModelsDir: abs, OutputDir: abs, LogsDir: abs},
		},
		{
			name:   "empty logs directory stays empty",
			config: PathsConfig{ModelsDir: abs, OutputDir: abs},
			want:   Paths{ModelsDir: abs, OutputDir: abs},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Paths = tt.config

			paths, err := cfg.ResolvePaths()
			require.NoError(t, err)
			assert.Equal(t, tt.want, *paths)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	t.Run("models directory is not created", func(t *testing.T) {
		dir := t.TempDir()
		paths := &Paths{
			ModelsDir: filepath.Join(dir, "models"),
			OutputDir: filepath.Join(dir, "out", "nested"),
		}
		require.NoError(t, paths.EnsureDirectories())
		assert.DirExists(t, paths.OutputDir)
		assert.NoDirExists(t, paths.ModelsDir)
	})

	t.Run("blocked by a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0644))

		paths := &Paths{OutputDir: filepath.Join(file, "out")}
		err := paths.EnsureDirectories()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create directory")
	})
}
