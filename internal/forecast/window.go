package forecast

import (
	"streamcast/pkg/contracts/domain"
)

// BuildWindow derives the features of a series and returns its last seqLen days, oldest first.
// A series shorter than seqLen yields an *InsufficientHistoryError.
func BuildWindow(series domain.TrackSeries, seqLen int, epsilon float64) (domain.PredictionWindow, error) {
	if series.Len() < seqLen {
		return domain.PredictionWindow{}, &InsufficientHistoryError{
			TrackID: series.TrackID,
			Have:    series.Len(),
			Need:    seqLen,
		}
	}

	features := DeriveFeatures(series, epsilon)
	tail := make([]domain.FeatureVector, seqLen)
	copy(tail, features[len(features)-seqLen:])

	return domain.PredictionWindow{
		TrackID:      series.TrackID,
		Vectors:      tail,
		CurrentTotal: tail[seqLen-1].CumulativeStreams,
		EndDate:      series.LastDate(),
	}, nil
}
