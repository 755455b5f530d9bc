// Package forecast predicts future cumulative streams of a track from its
// normalized daily series.
//
// A prediction derives nine features per day, takes the last SequenceLength
// days as a window, standardizes it and feeds it to three quantile models
// (P10, P50, P90). Each model returns one log1p growth value per horizon in
// domain.Horizons; the forecaster applies expm1 and adds the current cumulative
// total.
//
// Models are loaded once with LoadModelSet and shared read-only between calls.
// The bundled DenseModel evaluates a JSON artifact describing a dense network;
// any other backend can be plugged in through the Model interface.
package forecast
