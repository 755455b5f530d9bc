package ingest

// Frame is an untyped table of raw cells: a header row plus data rows of the same width.
// It is the pre-validation shape every source format is read into.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// NewFrame creates a frame, padding or truncating rows to the header width
func NewFrame(columns []string, rows [][]string) *Frame {
	width := len(columns)
	aligned := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) != width {
			fixed := make([]string, width)
			copy(fixed, row)
			row = fixed
		}
		aligned = append(aligned, row)
	}
	return &Frame{Columns: append([]string(nil), columns...), Rows: aligned}
}

// Len returns the number of data rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Index returns the position of the first column with the given name, or -1
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether every named column is present
func (f *Frame) Has(names ...string) bool {
	for _, name := range names {
		if f.Index(name) < 0 {
			return false
		}
	}
	return true
}

// Rename renames columns in place using mapping; unmapped columns are kept.
// When several columns end up with the same name, the first one wins and the
// later duplicates are dropped.
func (f *Frame) Rename(mapping map[string]string) {
	renamed := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		if to, ok := mapping[c]; ok {
			renamed[i] = to
		} else {
			renamed[i] = c
		}
	}

	seen := make(map[string]bool, len(renamed))
	keep := make([]int, 0, len(renamed))
	for i, c := range renamed {
		if seen[c] {
			continue
		}
		seen[c] = true
		keep = append(keep, i)
	}

	f.project(renamed, keep)
}

// Select keeps only the named columns, in the given order. Missing names are ignored.
func (f *Frame) Select(names ...string) {
	keep := make([]int, 0, len(names))
	for _, name := range names {
		if i := f.Index(name); i >= 0 {
			keep = append(keep, i)
		}
	}
	f.project(f.Columns, keep)
}

// AddColumn appends a column whose value is derived from each row.
// An existing column of the same name is overwritten.
func (f *Frame) AddColumn(name string, derive func(row []string) string) {
	values := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		values[r] = derive(row)
	}

	if i := f.Index(name); i >= 0 {
		for r := range f.Rows {
			f.Rows[r][i] = values[r]
		}
		return
	}

	f.Columns = append(f.Columns, name)
	for r := range f.Rows {
		f.Rows[r] = append(f.Rows[r], values[r])
	}
}

// Clone returns a deep copy of the frame
func (f *Frame) Clone() *Frame {
	rows := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		rows[i] = append([]string(nil), row...)
	}
	return &Frame{Columns: append([]string(nil), f.Columns...), Rows: rows}
}

func (f *Frame) project(names []string, keep []int) {
	columns := make([]string, len(keep))
	for j, i := range keep {
		columns[j] = names[i]
	}

	for r, row := range f.Rows {
		projected := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				projected[j] = row[i]
			}
		}
		f.Rows[r] = projected
	}
	f.Columns = columns
}
