// Package report renders stored analyses into downloadable documents.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/wpaudit/backend/analyzer"
)

// ExportXLSX writes a two-sheet workbook: the deduplicated issue list
// and a summary of the scores and counts.
func ExportXLSX(w io.Writer, result *analyzer.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const issuesSheet = "Issues"
	if err := f.SetSheetName("Sheet1", issuesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"ID", "Severity", "Category", "Title", "Description", "Location", "Impact", "Recommendation"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(issuesSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for row, issue := range result.Issues {
		values := []interface{}{
			issue.ID, issue.Severity, issue.Category, issue.Title,
			issue.Description, issue.Location.URL, issue.Impact, issue.Recommendation,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(issuesSheet, cell, v); err != nil {
				return fmt.Errorf("write issue row: %w", err)
			}
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"URL", result.URL},
		{"Analyzed At", result.AnalyzedAt.Format("2006-01-02 15:04:05")},
		{"Overall Score", result.Score.Overall},
		{"Critical Issues", result.Summary.Critical},
		{"Warnings", result.Summary.Warning},
		{"Info", result.Summary.Info},
		{"Pages Analyzed", len(result.PagesAnalyzed)},
		{"Lighthouse Performance", result.Lighthouse.Performance},
		{"Lighthouse Accessibility", result.Lighthouse.Accessibility},
		{"Lighthouse SEO", result.Lighthouse.SEO},
	}
	for row, pair := range summary {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+1)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return fmt.Errorf("write summary row: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
