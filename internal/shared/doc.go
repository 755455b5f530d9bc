// Package shared holds helpers used across Streamcast packages that belong to
// no single layer.
//
// The testutil subpackage provides BufferedSlogHandler, a slog.Handler that
// captures records so tests can assert on structured log output:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := services.NewForecastService(n, f, logger)
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelWarn, "track skipped")
package shared
