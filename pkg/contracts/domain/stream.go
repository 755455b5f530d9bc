package domain

import (
	"time"
)

// DateLayout is the calendar-date format used on every exported artifact
const DateLayout = "2006-01-02"

// CanonicalRow is one reconciled observation: a track's stream count on a calendar day
type CanonicalRow struct {
	TrackID      string    `json:"track_id" validate:"required"`
	Date         time.Time `json:"date" validate:"required"`
	DailyStreams float64   `json:"daily_streams" validate:"min=0"`
}

// SeriesDay is a CanonicalRow placed on a track's contiguous daily grid
type SeriesDay struct {
	CanonicalRow
	Day          int  `json:"day"`
	Interpolated bool `json:"interpolated"`
}

// TrackSeries is the gap-free daily series of one track, ordered by date.
// Days[0] is the first observed positive day and is never interpolated.
type TrackSeries struct {
	TrackID string      `json:"track_id"`
	Days    []SeriesDay `json:"days"`
}

// Len returns the number of days in the series
func (s TrackSeries) Len() int {
	return len(s.Days)
}

// FirstDate returns the anchor date of the series
func (s TrackSeries) FirstDate() time.Time {
	if len(s.Days) == 0 {
		return time.Time{}
	}
	return s.Days[0].Date
}

// LastDate returns the last available date of the series
func (s TrackSeries) LastDate() time.Time {
	if len(s.Days) == 0 {
		return time.Time{}
	}
	return s.Days[len(s.Days)-1].Date
}

// Streams returns the daily stream counts in date order
func (s TrackSeries) Streams() []float64 {
	values := make([]float64, len(s.Days))
	for i, d := range s.Days {
		values[i] = d.DailyStreams
	}
	return values
}

// Total returns the cumulative streams of the whole series
func (s TrackSeries) Total() float64 {
	total := 0.0
	for _, d := range s.Days {
		total += d.DailyStreams
	}
	return total
}

// TrackSummary describes a normalized track in a report
type TrackSummary struct {
	TrackID      string    `json:"track_id"`
	Days         int       `json:"days"`
	FirstDate    time.Time `json:"first_date"`
	LastDate     time.Time `json:"last_date"`
	Interpolated int       `json:"interpolated_days"`
	CurrentTotal float64   `json:"current_total"`
}

// Summarize builds the report summary for a series
func (s TrackSeries) Summarize() TrackSummary {
	interpolated := 0
	for _, d := range s.Days {
		if d.Interpolated {
			interpolated++
		}
	}
	return TrackSummary{
		TrackID:      s.TrackID,
		Days:         s.Len(),
		FirstDate:    s.FirstDate(),
		LastDate:     s.LastDate(),
		Interpolated: interpolated,
		CurrentTotal: s.Total(),
	}
}
