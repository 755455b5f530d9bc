package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	isoDate     = "2006-01-02"
	isoDateTime = "2006-01-02 15:04:05"
)

// ReadXLSX parses the first worksheet of an Excel workbook; the first
// non-blank row is the header. Cells are read unformatted, and numeric cells
// carrying a date or time number format are rewritten as ISO dates.
func ReadXLSX(r io.Reader) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: workbook: %v", ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	if err := newDateCells(f).rewrite(sheets[0], rows); err != nil {
		return nil, fmt.Errorf("%w: workbook: %v", ErrMalformedInput, err)
	}

	return frameFromRecords(rows)
}

// dateCells converts date serials to text, caching the date check per style id
type dateCells struct {
	f        *excelize.File
	date1904 bool
	styles   map[int]bool
}

func newDateCells(f *excelize.File) *dateCells {
	d := &dateCells{f: f, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateCells) rewrite(sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, value := range row {
			serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			isDate, err := d.isDateCell(sheet, cell)
			if err != nil {
				return err
			}
			if !isDate {
				continue
			}

			t, err := excelize.ExcelDateToTime(serial, d.date1904)
			if err != nil {
				continue
			}
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
				row[c] = t.Format(isoDate)
			} else {
				row[c] = t.Format(isoDateTime)
			}
		}
	}
	return nil
}

func (d *dateCells) isDateCell(sheet, cell string) (bool, error) {
	idx, err := d.f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, err
	}
	if cached, ok := d.styles[idx]; ok {
		return cached, nil
	}

	style, err := d.f.GetStyle(idx)
	if err != nil {
		return false, err
	}

	var isDate bool
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	} else {
		isDate = isBuiltInDateFormat(style.NumFmt)
	}
	d.styles[idx] = isDate
	return isDate, nil
}

// isBuiltInDateFormat reports whether a built-in number format id renders a date or time
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date or time
// tokens outside of quoted literals, escapes and bracketed sections
func isDateFormatCode(code string) bool {
	inQuote := false
	inBracket := false
	skip := false

	for _, ch := range strings.ToLower(code) {
		switch {
		case skip:
			skip = false
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			inBracket = ch != ']'
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\', ch == '_', ch == '*':
			skip = true
		case ch == 'y', ch == 'm', ch == 'd', ch == 'h', ch == 's':
			return true
		}
	}
	return false
}
