package reporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"osint-automater/internal/models"
)

const (
	sheetSummary = "Summary"
	sheetResults = "Results"
	sheetHits    = "Hits"
)

// GenerateExcelReport generates an Excel report with summary, full result and hit sheets
func GenerateExcelReport(report *models.Report, filename string) error {
	if filename == "" {
		return fmt.Errorf("Excel filename cannot be empty")
	}

	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for Excel file: %w", err)
		}
	}

	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func buildWorkbook(report *models.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	sheets := []struct {
		name string
		fn   func(*excelize.File, string, *models.Report) error
	}{
		{sheetSummary, writeSummarySheet},
		{sheetResults, writeResultsSheet},
		{sheetHits, writeHitsSheet},
	}

	for i, sheet := range sheets {
		if i == 0 {
			// the default sheet is renamed rather than deleted so the workbook is never empty
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}
		if err := sheet.fn(f, sheet.name, report); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", sheet.name, err)
		}
	}

	if idx, err := f.GetSheetIndex(sheetSummary); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// writeHeader writes a bold header row and returns the next free row
func writeHeader(f *excelize.File, sheet string, headers []string) (int, error) {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return 0, err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return 0, err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return 0, err
	}
	return 2, nil
}

// writeRows writes rows starting at row
func writeRows(f *excelize.File, sheet string, row int, rows [][]any) error {
	for _, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
	}
	return nil
}

// writeSummarySheet writes per-target counts
func writeSummarySheet(f *excelize.File, sheet string, report *models.Report) error {
	row, err := writeHeader(f, sheet, []string{"Target", "Type", "Sources", "Records", "Hits"})
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(report.Targets))
	for _, t := range report.Targets {
		rows = append(rows, []any{t.Target, string(t.TargetType), len(t.Sources), len(t.Records), t.Hits})
	}
	if err := writeRows(f, sheet, row, rows); err != nil {
		return err
	}

	f.SetColWidth(sheet, "A", "A", 40)
	return nil
}

// writeResultsSheet writes every record, matching the CSV layout
func writeResultsSheet(f *excelize.File, sheet string, report *models.Report) error {
	row, err := writeHeader(f, sheet, csvHeader)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(report.Records))
	for _, rec := range report.Records {
		rows = append(rows, []any{rec.Target, string(rec.TargetType), rec.Source, rec.Result})
	}
	if err := writeRows(f, sheet, row, rows); err != nil {
		return err
	}

	f.SetColWidth(sheet, "A", "A", 40)
	f.SetColWidth(sheet, "C", "C", 30)
	f.SetColWidth(sheet, "D", "D", 80)
	return nil
}

// writeHitsSheet writes only records carrying a value
func writeHitsSheet(f *excelize.File, sheet string, report *models.Report) error {
	row, err := writeHeader(f, sheet, []string{"Target", "Type", "Source", "Label", "Result"})
	if err != nil {
		return err
	}

	var rows [][]any
	for _, rec := range report.Records {
		if rec.HasResult() {
			rows = append(rows, []any{rec.Target, string(rec.TargetType), rec.Source, rec.ReportLabel, rec.Result})
		}
	}
	if err := writeRows(f, sheet, row, rows); err != nil {
		return err
	}

	f.SetColWidth(sheet, "A", "A", 40)
	f.SetColWidth(sheet, "E", "E", 80)
	return nil
}
