// Package normalizer turns raw stream-count tables into gap-free daily series per track.
//
// Normalization runs in three stages:
//
// Schema reconciliation: headers are standardized (trimmed, lowercased, spaces to
// underscores) and an ordered cascade of SchemaRule values reshapes known source
// formats into the canonical track_id, date, daily_streams columns. The built-in
// cascade handles distributor exports, the column alias table and single-track
// uploads. New formats are added by appending a rule.
//
// Coercion: dates are parsed with a flexible parser and stream counts as
// non-negative numbers. Rows with a missing track, date or count are dropped.
//
// Gap filling: each track becomes a contiguous calendar from its first positive
// observation to its last date. Missing days are linearly interpolated and days
// are numbered from 1. Duplicate dates keep the last row in file order.
//
// Example usage:
//
//	n := normalizer.New(cfg.Normalizer.PlaceholderTrackID, normalizer.WithLogger(logger))
//	result, err := n.Normalize(ctx, frame)
//	var schemaErr *normalizer.SchemaError
//	if errors.As(err, &schemaErr) {
//		// report schemaErr.Found to the user
//	}
package normalizer
