package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"streamcast/pkg/contracts/domain"
)

// ReportTables returns the tables exported for a report, in sheet order
func ReportTables(report *domain.Report, variant Variant) []Table {
	tables := []Table{SummaryTable(report), CleanedTable(report.Series)}
	if report.HasForecasts() {
		tables = append(tables, PredictionsTable(report.Forecasts, variant))
	}
	return tables
}

// WriteWorkbook writes one sheet per table to out as an XLSX workbook
func WriteWorkbook(out io.Writer, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("workbook needs at least one table")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateFormat := "yyyy-mm-dd"
	dates, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, table := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, table.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", table.Name, err)
		}
		if err := writeSheet(f, table, header, dates); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", table.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, table Table, headerStyle, dateStyle int) error {
	headers := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(table.Name, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(table.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(table.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for c, v := range row {
			cells[c] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(table.Name, cell, &cells); err != nil {
			return err
		}
		for c, v := range row {
			if _, ok := v.(time.Time); !ok {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(table.Name, name, name, dateStyle); err != nil {
				return err
			}
		}
	}
	return nil
}
