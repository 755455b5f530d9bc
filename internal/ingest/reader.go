package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyInput is returned when the upload has no header row
	ErrEmptyInput = errors.New("input contains no header row")
	// ErrUnsupportedFormat is returned for file types other than CSV and XLSX
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMalformedInput is returned when the file cannot be parsed as its format
	ErrMalformedInput = errors.New("malformed input")
)

// Format identifies the container format of an upload
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat picks the container format from a file name. Names without an
// extension are treated as CSV.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Read loads an upload into a Frame, choosing the parser from the file name
func Read(filename string, r io.Reader) (*Frame, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

// ReadCSV parses a CSV stream with a mandatory header row.
// Blank lines are skipped and ragged rows are padded to the header width.
func ReadCSV(r io.Reader) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: CSV: %v", ErrMalformedInput, err)
	}

	return frameFromRecords(records)
}

func frameFromRecords(records [][]string) (*Frame, error) {
	var header []string
	var rows [][]string

	for _, record := range records {
		if isBlank(record) {
			continue
		}
		if header == nil {
			header = record
			continue
		}
		rows = append(rows, record)
	}

	if header == nil {
		return nil, ErrEmptyInput
	}

	return NewFrame(header, rows), nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
