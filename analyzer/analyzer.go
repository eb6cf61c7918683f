// Package analyzer implements the WordPress SEO audit pipeline: detect
// the platform, sample the site's pages, run the rule catalogues, pull
// Lighthouse metrics, merge LLM advice and assemble a scored report.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "WPAudit/1.0"

// Deep-analysis cap for discovered pages beyond the homepage.
const maxDeepPages = 5

// FetchedPage is one rendered page.
type FetchedPage struct {
	URL      string
	HTML     string
	LoadTime time.Duration
}

// Fetcher renders pages. The browser-backed implementation is created
// per analysis request and passed in explicitly so concurrent analyses
// never share a browser instance.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*FetchedPage, error)
}

// Advisor is the LLM advisory collaborator. Callers treat any error as
// "no advice"; advisory failures never abort the pipeline.
type Advisor interface {
	Advise(ctx context.Context, signals SiteSignals) (Advice, error)
}

// Analyzer runs SEO audits. It is safe for concurrent use: all
// per-request state lives in the arguments and return values.
type Analyzer struct {
	client  *http.Client
	auditor PerformanceAuditor
	advisor Advisor
}

// New creates an Analyzer wired to the given collaborators.
func New(auditor PerformanceAuditor, advisor Advisor) *Analyzer {
	return &Analyzer{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		auditor: auditor,
		advisor: advisor,
	}
}

// AnalyzeSite runs the full pipeline against one site. Stages run
// strictly in order; browser fetch of the homepage and WordPress
// detection are the only fatal steps, everything after degrades in
// place. The progress callback is invoked synchronously at each stage
// boundary.
func (a *Analyzer) AnalyzeSite(ctx context.Context, fetcher Fetcher, siteURL string, progress ProgressFunc) (*AnalysisResult, error) {
	report := func(stage string, pct int, msg string) {
		if progress != nil {
			progress(stage, pct, msg)
		}
	}
	siteURL = strings.TrimSuffix(siteURL, "/")
	start := time.Now()

	report(StageInitializing, 5, "Starting analysis")

	report(StageDetecting, 15, "Fetching homepage and detecting WordPress")
	home, err := fetcher.Fetch(ctx, siteURL)
	if err != nil {
		return nil, fmt.Errorf("fetch homepage: %w", err)
	}
	homeDoc, err := goquery.NewDocumentFromReader(strings.NewReader(home.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}
	wp, err := a.detectWordPress(ctx, homeDoc, home.HTML, siteURL)
	if err != nil {
		return nil, err
	}

	report(StageCrawling, 30, "Discovering site pages")
	pages := a.discoverPages(ctx, siteURL, strings.TrimSpace(homeDoc.Find("title").First().Text()), wp)

	report(StageLighthouse, 45, "Running performance audit")
	lighthouse := a.auditor.Audit(ctx, siteURL)

	report(StageAnalyzing, 60, "Analyzing page content")
	var issues []SEOIssue
	homeFacts := extractPageFacts(homeDoc, siteURL, LocationHomepage)
	issues = append(issues, runPageRules(homeFacts)...)
	pages[0].WordCount = homeFacts.WordCount
	pages[0].LoadTime = home.LoadTime.Milliseconds()

	analyzed := 0
	for i := 1; i < len(pages) && analyzed < maxDeepPages; i++ {
		pageIssues, facts, loadTime, err := a.analyzePage(ctx, fetcher, &pages[i])
		if err != nil {
			log.Printf("Page analysis failed for %s: %v", pages[i].URL, err)
			continue
		}
		issues = append(issues, pageIssues...)
		pages[i].WordCount = facts.WordCount
		pages[i].LoadTime = loadTime.Milliseconds()
		analyzed++
	}

	report(StageTechnical, 75, "Running site-level and technical checks")
	issues = append(issues, siteIssues(wp, siteURL)...)
	issues = append(issues, a.technicalIssues(ctx, siteURL)...)

	report(StageAI, 85, "Requesting AI recommendations")
	recommendations := []string{}
	if a.advisor != nil {
		advice, err := a.advisor.Advise(ctx, SiteSignals{
			URL:         siteURL,
			WordPress:   wp,
			Lighthouse:  lighthouse,
			IssueCounts: issueCountsBySeverity(issues),
		})
		if err != nil {
			log.Printf("Advisory step degraded: %v", err)
		} else {
			issues = append(issues, advice.AdditionalIssues...)
			recommendations = append(recommendations, advice.Recommendations...)
		}
	}

	report(StageScoring, 95, "Scoring and assembling report")
	issues = dedupeIssues(issues)

	result := &AnalysisResult{
		URL:             siteURL,
		AnalyzedAt:      time.Now(),
		WordPress:       wp,
		Lighthouse:      lighthouse,
		Score:           ScoreCard{Overall: computeScore(issues, lighthouse)},
		Issues:          issues,
		PagesAnalyzed:   pages,
		Recommendations: recommendations,
		Summary:         summarize(issues),
	}

	report(StageComplete, 100, fmt.Sprintf("Analysis finished in %s", time.Since(start).Round(time.Millisecond)))
	return result, nil
}

// analyzePage fetches and rules-checks one discovered page. Errors are
// reported to the caller, who logs and moves on; one broken page never
// stops the rest.
func (a *Analyzer) analyzePage(ctx context.Context, fetcher Fetcher, page *PageAnalysis) ([]SEOIssue, *pageFacts, time.Duration, error) {
	fetched, err := fetcher.Fetch(ctx, page.URL)
	if err != nil {
		return nil, nil, 0, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fetched.HTML))
	if err != nil {
		return nil, nil, 0, fmt.Errorf("parse page: %w", err)
	}
	facts := extractPageFacts(doc, page.URL, page.Type)
	return runPageRules(facts), facts, fetched.LoadTime, nil
}
