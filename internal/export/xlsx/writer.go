// Package xlsx exports the tables of a full-document analysis as an Excel
// workbook, one sheet per page.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"seikin/internal/domain"
)

// Write renders the tables of every successful page result into w as an
// .xlsx workbook. Pages without tables and failed pages are skipped; an
// analysis with no tables at all still yields a valid workbook with a
// single summary sheet.
func Write(w io.Writer, analysis *domain.FullAnalysis) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	writeSummary(f, summary, analysis)

	for i := range analysis.Results {
		res := &analysis.Results[i]
		if !res.Success || res.Data == nil || len(res.Data.Tables) == 0 {
			continue
		}
		sheet := fmt.Sprintf("Page %d", res.PageNumber)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}
		if err := writeTables(f, sheet, res.Data.Tables); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, sheet string, analysis *domain.FullAnalysis) {
	meta := analysis.Metadata
	rows := [][]interface{}{
		{"Source File", meta.SourceFile},
		{"File ID", meta.FileID},
		{"Total Pages", meta.TotalPages},
		{"Processed Pages", meta.ProcessedPages},
		{"Error Pages", meta.ErrorPages},
		{"Processed At", meta.ProcessedAt},
		{"Model", meta.GeminiModel},
	}
	for i, row := range rows {
		_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row)
	}
}

func writeTables(f *excelize.File, sheet string, tables []domain.Table) error {
	row := 1
	for _, table := range tables {
		title := table.TableTitle
		if title == "" {
			title = table.TableID
		}
		if title != "" {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetCellValue(sheet, cell, title); err != nil {
				return fmt.Errorf("writing table title: %w", err)
			}
			row++
		}

		header := make([]interface{}, len(table.Headers))
		for i, h := range table.Headers {
			header[i] = h
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &header); err != nil {
			return fmt.Errorf("writing table header: %w", err)
		}
		row++

		for _, r := range table.Rows {
			cells := make([]interface{}, len(table.Headers))
			for i, h := range table.Headers {
				cells[i] = r[h]
			}
			start, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, start, &cells); err != nil {
				return fmt.Errorf("writing table row: %w", err)
			}
			row++
		}

		// blank row between tables
		row++
	}
	return nil
}
