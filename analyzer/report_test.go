package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScoreBlendsRuleAndLighthouse(t *testing.T) {
	// No issues: 100*0.7 plus the lighthouse average*0.3.
	lh := LighthouseMetrics{Performance: 90, SEO: 90, Accessibility: 90}
	assert.Equal(t, 97, computeScore(nil, lh))

	// One critical impact-10 issue deducts 25 points from the rule score.
	issues := []SEOIssue{{Severity: SeverityCritical, Impact: 10}}
	// 75*0.7 + 90*0.3 = 79.5, rounded.
	assert.Equal(t, 80, computeScore(issues, lh))
}

func TestComputeScoreSeverityMultipliers(t *testing.T) {
	lh := LighthouseMetrics{}

	critical := computeScore([]SEOIssue{{Severity: SeverityCritical, Impact: 4}}, lh)
	warning := computeScore([]SEOIssue{{Severity: SeverityWarning, Impact: 4}}, lh)
	info := computeScore([]SEOIssue{{Severity: SeverityInfo, Impact: 4}}, lh)

	assert.Less(t, critical, warning)
	assert.Less(t, warning, info)
}

func TestComputeScoreClampsToRange(t *testing.T) {
	var pile []SEOIssue
	for i := 0; i < 50; i++ {
		pile = append(pile, SEOIssue{Severity: SeverityCritical, Impact: 10})
	}
	assert.Equal(t, 0, computeScore(pile, LighthouseMetrics{}))
	assert.Equal(t, 100, computeScore(nil, LighthouseMetrics{Performance: 100, SEO: 100, Accessibility: 100}))
}

func TestComputeScoreMonotonic(t *testing.T) {
	lh := LighthouseMetrics{Performance: 80, SEO: 80, Accessibility: 80}
	issues := []SEOIssue{{Severity: SeverityWarning, Impact: 5}}
	withMore := append(issues, SEOIssue{Severity: SeverityInfo, Impact: 3})

	assert.LessOrEqual(t, computeScore(withMore, lh), computeScore(issues, lh))
}

func TestDedupeIssuesFirstOccurrenceWins(t *testing.T) {
	issues := []SEOIssue{
		{ID: "a", Category: "meta-tags", Title: "Missing Page Title", Location: IssueLocation{URL: "https://example.com"}, Severity: SeverityCritical},
		{ID: "b", Category: "meta-tags", Title: "Missing Page Title", Location: IssueLocation{URL: "https://example.com"}, Severity: SeverityInfo},
		{ID: "c", Category: "meta-tags", Title: "Missing Page Title", Location: IssueLocation{URL: "https://example.com/other"}},
	}

	deduped := dedupeIssues(issues)
	require.Len(t, deduped, 2)
	assert.Equal(t, "a", deduped[0].ID)
	assert.Equal(t, SeverityCritical, deduped[0].Severity)
	assert.Equal(t, "c", deduped[1].ID)

	// Deduplication is idempotent.
	assert.Equal(t, deduped, dedupeIssues(deduped))
}

func TestSummarize(t *testing.T) {
	issues := []SEOIssue{
		{Severity: SeverityCritical, Category: "technical"},
		{Severity: SeverityWarning, Category: "meta-tags"},
		{Severity: SeverityWarning, Category: "meta-tags"},
		{Severity: SeverityInfo, Category: "schema"},
	}

	summary := summarize(issues)
	assert.Equal(t, 1, summary.Critical)
	assert.Equal(t, 2, summary.Warning)
	assert.Equal(t, 1, summary.Info)
	assert.Equal(t, 2, summary.ByCategory["meta-tags"])
	assert.Equal(t, 1, summary.ByCategory["technical"])
}
