package normalizer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoValidData signals that no track had a single positive observation
var ErrNoValidData = errors.New("no valid data")

// SchemaError reports that the canonical columns could not be resolved
type SchemaError struct {
	Found   []string
	Missing []string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("could not find required columns after cleaning (missing: %s). Found: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// NoValidDataError is returned when every track was excluded by the gap filler
type NoValidDataError struct {
	Skipped     []string
	RowsRead    int
	RowsDropped int
}

// Error implements the error interface
func (e *NoValidDataError) Error() string {
	return fmt.Sprintf("no valid data: %d track(s) had no positive stream count (%d of %d rows dropped)",
		len(e.Skipped), e.RowsDropped, e.RowsRead)
}

// Is makes errors.Is(err, ErrNoValidData) match
func (e *NoValidDataError) Is(target error) bool {
	return target == ErrNoValidData
}
