// Package exporter renders normalized series and forecasts as downloadable files.
//
// Every export is built as a Table of typed cells first:
//
// CleanedTable: the gap-filled daily rows (track_id, date, daily_streams, day).
//
// PredictionsTable: one row per horizon, in the simple layout (one total per
// quantile) or the breakdown layout (streams so far, growth and total per quantile).
// Values are truncated to whole streams.
//
// SummaryTable: per-track summaries and report warnings.
//
// Tables are written as CSV by CSVWriter or combined into an XLSX workbook by
// WriteWorkbook.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths, logger)
//	_, err := writer.WriteFile(config.CleanedCSVName, exporter.CleanedTable(report.Series), exporter.WriteOptions{})
//
//	table := exporter.PredictionsTable(report.Forecasts, exporter.VariantBreakdown)
//	err = writer.Write(w, table, exporter.WriteOptions{})
package exporter
