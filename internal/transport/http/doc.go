// Package http implements the HTTP handlers of the forecasting service.
// Handlers stay thin: they parse the multipart upload, call the service layer
// and encode the result as JSON, CSV or XLSX.
//
// # Routes
//
//	POST /api/forecast                   JSON report
//	POST /api/forecast/cleaned.csv       cleaned daily series
//	POST /api/forecast/predictions.csv   predictions, ?variant=simple|breakdown
//	POST /api/forecast/report.xlsx       workbook with Summary, Cleaned and Predictions sheets
//	GET  /api/health                     liveness and runtime snapshot
//	GET  /api/health/ready               models loaded and output directory present
//	GET  /api/version                    build and model information
//
// Every upload route reads the multipart field "file". The file part is
// streamed into the pipeline without being buffered to disk.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details and are produced by
// internal/errors.ErrorHandler:
//
//	{
//	    "type": "/errors/schema",
//	    "title": "Unrecognized Columns",
//	    "status": 422,
//	    "detail": "could not find required columns ...",
//	    "instance": "/api/forecast",
//	    "trace_id": "..."
//	}
package http
