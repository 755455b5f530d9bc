package normalizer

import (
	"sort"
	"time"

	"streamcast/pkg/contracts/domain"
)

const secondsPerDay = 24 * 60 * 60

// dayNumber maps a UTC midnight to a day count since the Unix epoch
func dayNumber(t time.Time) int64 {
	return t.Unix() / secondsPerDay
}

// observation is one deduplicated (date, value) pair of a track
type observation struct {
	day   int64
	date  time.Time
	value float64
}

// dedupe collapses rows of one track to one observation per date.
// Rows are taken in file order, so the last row for a date wins.
// The result is sorted by date.
func dedupe(rows []domain.CanonicalRow) []observation {
	byDay := make(map[int64]observation, len(rows))
	for _, r := range rows {
		d := dayNumber(r.Date)
		byDay[d] = observation{day: d, date: r.Date, value: r.DailyStreams}
	}

	obs := make([]observation, 0, len(byDay))
	for _, o := range byDay {
		obs = append(obs, o)
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].day < obs[j].day })
	return obs
}

// FillTrack builds the contiguous daily grid of one track.
//
// The grid runs from the first date with a strictly positive count through the
// last date present. Observed values are joined by date, the anchor day keeps its
// observed value, and every other missing day is linearly interpolated between
// its nearest observed neighbours. ok is false when the track has no positive
// observation at all.
func FillTrack(trackID string, rows []domain.CanonicalRow) (series domain.TrackSeries, ok bool) {
	obs := dedupe(rows)

	anchor := -1
	for i, o := range obs {
		if o.value > 0 {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return domain.TrackSeries{TrackID: trackID}, false
	}

	first := obs[anchor]
	last := obs[len(obs)-1]
	size := int(last.day-first.day) + 1

	values := make([]float64, size)
	known := make([]bool, size)
	for _, o := range obs[anchor:] {
		i := int(o.day - first.day)
		values[i] = o.value
		known[i] = true
	}

	// The anchor is never the product of interpolation
	values[0] = first.value
	known[0] = true

	interpolated := interpolateLinear(values, known)

	days := make([]domain.SeriesDay, size)
	for i := range days {
		days[i] = domain.SeriesDay{
			CanonicalRow: domain.CanonicalRow{
				TrackID:      trackID,
				Date:         first.date.AddDate(0, 0, i),
				DailyStreams: values[i],
			},
			Day:          i + 1,
			Interpolated: interpolated[i],
		}
	}

	return domain.TrackSeries{TrackID: trackID, Days: days}, true
}

// interpolateLinear fills unknown positions in place from their nearest known
// neighbours: v[i] = v[a] + (i-a)/(b-a)*(v[b]-v[a]). Positions after the last
// known value take that value. Leading unknowns are left untouched.
// It returns which positions were filled.
func interpolateLinear(values []float64, known []bool) []bool {
	filled := make([]bool, len(values))

	prev := -1
	for i := range values {
		if !known[i] {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				frac := float64(j-prev) / span
				values[j] = values[prev] + frac*(values[i]-values[prev])
				filled[j] = true
			}
		}
		prev = i
	}

	if prev >= 0 {
		for j := prev + 1; j < len(values); j++ {
			values[j] = values[prev]
			filled[j] = true
		}
	}

	return filled
}
