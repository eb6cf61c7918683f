package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wpaudit/backend/analyzer"
)

func TestExportXLSX(t *testing.T) {
	result := &analyzer.AnalysisResult{
		URL:        "https://example.com",
		AnalyzedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Score:      analyzer.ScoreCard{Overall: 81},
		Summary:    analyzer.Summary{Critical: 1, Warning: 2, Info: 1},
		Lighthouse: analyzer.LighthouseMetrics{Performance: 88, Accessibility: 95, SEO: 90},
		Issues: []analyzer.SEOIssue{
			{
				ID: "global-no-ssl", Severity: analyzer.SeverityCritical, Category: "technical",
				Title: "No SSL Certificate", Description: "Served over plain HTTP.",
				Location:       analyzer.IssueLocation{Type: analyzer.LocationGlobal, URL: "https://example.com"},
				Impact:         10,
				Recommendation: "Install a TLS certificate.",
			},
			{
				ID: "homepage-missing-h1", Severity: analyzer.SeverityCritical, Category: "headings",
				Title:    "Missing H1 Heading",
				Location: analyzer.IssueLocation{Type: analyzer.LocationHomepage, URL: "https://example.com"},
				Impact:   9,
			},
		},
		PagesAnalyzed: []analyzer.PageAnalysis{{URL: "https://example.com", Type: analyzer.LocationHomepage}},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Issues", "Summary"}, f.GetSheetList())

	header, err := f.GetCellValue("Issues", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)

	firstID, err := f.GetCellValue("Issues", "A2")
	require.NoError(t, err)
	assert.Equal(t, "global-no-ssl", firstID)

	secondTitle, err := f.GetCellValue("Issues", "D3")
	require.NoError(t, err)
	assert.Equal(t, "Missing H1 Heading", secondTitle)

	url, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)

	score, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "81", score)
}
