package forecast

import (
	"errors"
	"fmt"

	"streamcast/pkg/contracts/domain"
)

var (
	// ErrInsufficientHistory signals a series shorter than the sequence length.
	// It is an expected outcome for young tracks, not a failure.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrModelUnavailable is returned when a quantile has no loaded model
	ErrModelUnavailable = errors.New("model unavailable")
)

// InsufficientHistoryError reports how many days a track has and needs
type InsufficientHistoryError struct {
	TrackID string
	Have    int
	Need    int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("track %q has %d day(s) of history, %d needed for a prediction", e.TrackID, e.Have, e.Need)
}

// Is makes errors.Is(err, ErrInsufficientHistory) match
func (e *InsufficientHistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// ModelLoadError is returned when a quantile model artifact cannot be loaded.
// It is fatal at startup.
type ModelLoadError struct {
	Label domain.QuantileLabel
	Path  string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load %s model from %s: %v", e.Label, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// ShapeError reports a tensor or layer whose dimensions do not line up
type ShapeError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want %d, got %d", e.What, e.Want, e.Got)
}
