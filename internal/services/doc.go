// Package services implements the business logic layer of the forecasting service.
// It sits between the HTTP handlers and the domain packages so the pipeline can be
// driven identically from the server and from the batch CLI.
//
// # Available Services
//
//   - ForecastService: reads an upload, normalizes it, forecasts each track and
//     writes the cleaned, predictions and workbook artifacts
//   - HealthService: liveness, readiness (models loaded, output directory) and version
//
// # Error Handling
//
// Process returns typed errors from the domain packages unchanged so the HTTP
// layer can map them with errors.Is/As:
//
//   - *normalizer.SchemaError when the columns cannot be reconciled
//   - *normalizer.NoValidDataError when every track was excluded
//   - ingest.ErrEmptyInput, ingest.ErrUnsupportedFormat, ingest.ErrMalformedInput
//   - forecast.ErrModelUnavailable when no forecaster is configured
//
// Short histories and per-track forecast failures are not errors. They are
// attached to the report as warnings and the remaining tracks are still forecast.
package services
