package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"streamcast/internal/ingest"
	"streamcast/pkg/contracts/domain"
)

// nullTokens are the cell values read as missing. Matching is case-sensitive,
// so a title such as "Nat" or "NONE" is kept.
var nullTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

func isNull(value string) bool {
	return nullTokens[strings.TrimSpace(value)]
}

// ParseDate parses a date in any common layout and truncates it to the calendar day.
// Slash dates are read month first; when that is impossible, as in 13/01/2024,
// day and month are swapped.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if isNull(value) {
		return time.Time{}, fmt.Errorf("empty date")
	}

	t, err := dateparse.ParseIn(value, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date %q: %w", value, err)
	}

	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ParseStreams parses a daily stream count. Thousands separators are accepted;
// negative and non-finite values are rejected.
func ParseStreams(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if isNull(value) {
		return 0, fmt.Errorf("empty stream count")
	}

	cleaned := strings.NewReplacer(",", "", " ", "", "_", "").Replace(value)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse stream count %q: %w", value, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("stream count %q is not finite", value)
	}
	if v < 0 {
		return 0, fmt.Errorf("stream count %q is negative", value)
	}

	return v, nil
}

// Coerce converts reconciled rows to CanonicalRows in file order.
// Rows with an unparseable date, a missing stream count or a missing track are dropped.
func Coerce(frame *ingest.Frame) ([]domain.CanonicalRow, int) {
	trackIdx := frame.Index(ColTrackID)
	dateIdx := frame.Index(ColDate)
	streamsIdx := frame.Index(ColDailyStreams)

	rows := make([]domain.CanonicalRow, 0, frame.Len())
	dropped := 0

	for _, raw := range frame.Rows {
		trackID := strings.TrimSpace(raw[trackIdx])
		if isNull(trackID) {
			dropped++
			continue
		}

		date, err := ParseDate(raw[dateIdx])
		if err != nil {
			dropped++
			continue
		}

		streams, err := ParseStreams(raw[streamsIdx])
		if err != nil {
			dropped++
			continue
		}

		rows = append(rows, domain.CanonicalRow{
			TrackID:      trackID,
			Date:         date,
			DailyStreams: streams,
		})
	}

	return rows, dropped
}
