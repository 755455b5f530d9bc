package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcast/internal/ingest"
	"streamcast/internal/shared/testutil"
)

func TestFileValidator_ValidateInputFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantFormat    ingest.Format
		wantErr       error
		errorContains string
	}{
		{
			name: "csv file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "streams.csv")
				require.NoError(t, os.WriteFile(path, []byte("date,daily_streams\n"), 0644))
				return path
			},
			wantFormat: ingest.FormatCSV,
		},
		{
			name: "xlsx file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "Streams.XLSX")
				require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
				return path
			},
			wantFormat: ingest.FormatXLSX,
		},
		{
			name: "non-existent file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			wantErr: os.ErrNotExist,
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			errorContains: "is a directory",
		},
		{
			name: "unsupported extension",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "streams.pdf")
				require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
				return path
			},
			wantErr: ingest.ErrUnsupportedFormat,
		},
		{
			name: "excel lock file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "~$streams.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("lock"), 0644))
				return path
			},
			wantErr: ErrTemporaryFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(nil)
			format, err := v.ValidateInputFile(tt.setupFunc(t))

			if tt.wantErr == nil && tt.errorContains == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantFormat, format)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errorContains != "" {
				assert.Contains(t, err.Error(), tt.errorContains)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)

	t.Run("creates nested directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		require.NoError(t, v.ValidateOutputDirectory(dir))
		assert.DirExists(t, dir)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "write probe is removed")
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0644))

		err := v.ValidateOutputDirectory(filepath.Join(file, "sub"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create output directory")
		testutil.AssertLogContains(t, handler, slog.LevelError, "Failed to create output directory")
	})
}
