package analyzer

import "math"

// Score weighting constants. The rule score carries 70% of the final
// blend, the Lighthouse category average 30%.
const (
	ruleScoreWeight       = 0.7
	lighthouseScoreWeight = 0.3
)

func severityMultiplier(severity string) float64 {
	switch severity {
	case SeverityCritical:
		return 2.5
	case SeverityWarning:
		return 1.5
	default:
		return 1.0
	}
}

// computeScore blends the rule-based deductions with the Lighthouse
// average of performance, SEO and accessibility, clamped to [0, 100].
func computeScore(issues []SEOIssue, lh LighthouseMetrics) int {
	ruleScore := 100.0
	for _, issue := range issues {
		ruleScore -= float64(issue.Impact) * severityMultiplier(issue.Severity)
	}

	lighthouseAvg := float64(lh.Performance+lh.SEO+lh.Accessibility) / 3.0
	final := ruleScore*ruleScoreWeight + lighthouseAvg*lighthouseScoreWeight

	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	return int(math.Round(final))
}

// dedupeIssues drops later duplicates keyed by category, title and
// location URL. First occurrence wins.
func dedupeIssues(issues []SEOIssue) []SEOIssue {
	seen := make(map[string]bool, len(issues))
	deduped := make([]SEOIssue, 0, len(issues))
	for _, issue := range issues {
		key := issue.Category + "|" + issue.Title + "|" + issue.Location.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, issue)
	}
	return deduped
}

func summarize(issues []SEOIssue) Summary {
	summary := Summary{ByCategory: make(map[string]int)}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			summary.Critical++
		case SeverityWarning:
			summary.Warning++
		default:
			summary.Info++
		}
		summary.ByCategory[issue.Category]++
	}
	return summary
}

func issueCountsBySeverity(issues []SEOIssue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}
