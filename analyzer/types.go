package analyzer

import "time"

// Issue severities, ordered from most to least serious.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Location types for issues.
const (
	LocationHomepage = "homepage"
	LocationPost     = "post"
	LocationPage     = "page"
	LocationGlobal   = "global"
)

// IssueLocation identifies which page or scope an issue applies to.
type IssueLocation struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// SEOIssue represents one detected problem. Issues are immutable once
// created; duplicates are dropped during report assembly.
type SEOIssue struct {
	ID             string        `json:"id"`
	Severity       string        `json:"severity"`
	Category       string        `json:"category"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Location       IssueLocation `json:"location"`
	Impact         int           `json:"impact"`
	Recommendation string        `json:"recommendation"`
}

// WordPressInfo holds site-wide facts gathered once per analysis.
type WordPressInfo struct {
	IsWordPress        bool     `json:"isWordPress"`
	Version            string   `json:"version,omitempty"`
	Theme              string   `json:"theme,omitempty"`
	ActivePlugins      []string `json:"activePlugins"`
	RESTAPIEnabled     bool     `json:"restApiEnabled"`
	XMLRPCEnabled      bool     `json:"xmlrpcEnabled"`
	DebugMode          bool     `json:"debugMode"`
	PermalinkStructure string   `json:"permalinkStructure,omitempty"`
}

// PageAnalysis summarizes one discovered page or post. Score and
// IssueCount are reserved fields and are not computed per page.
type PageAnalysis struct {
	URL        string `json:"url"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Score      int    `json:"score"`
	IssueCount int    `json:"issueCount"`
	WordCount  int    `json:"wordCount,omitempty"`
	LoadTime   int64  `json:"loadTime,omitempty"`
}

// LighthouseMetrics holds normalized 0-100 category scores plus raw
// timing metrics. A zero value means the audit was unavailable.
type LighthouseMetrics struct {
	Performance   int     `json:"performance"`
	Accessibility int     `json:"accessibility"`
	BestPractices int     `json:"bestPractices"`
	SEO           int     `json:"seo"`
	PWA           int     `json:"pwa"`
	FCP           float64 `json:"fcp"`
	LCP           float64 `json:"lcp"`
	CLS           float64 `json:"cls"`
	TTI           float64 `json:"tti"`
}

// ScoreCard carries the blended overall score.
type ScoreCard struct {
	Overall int `json:"overall"`
}

// Summary holds issue counts by severity and category.
type Summary struct {
	Critical   int            `json:"critical"`
	Warning    int            `json:"warning"`
	Info       int            `json:"info"`
	ByCategory map[string]int `json:"byCategory"`
}

// AnalysisResult is the complete report returned to the caller.
type AnalysisResult struct {
	URL             string            `json:"url"`
	AnalyzedAt      time.Time         `json:"analyzedAt"`
	WordPress       WordPressInfo     `json:"wordpress"`
	Lighthouse      LighthouseMetrics `json:"lighthouse"`
	Score           ScoreCard         `json:"score"`
	Issues          []SEOIssue        `json:"issues"`
	PagesAnalyzed   []PageAnalysis    `json:"pagesAnalyzed"`
	Recommendations []string          `json:"recommendations"`
	Summary         Summary           `json:"summary"`
}

// Pipeline stages, in the order they run. Transitions are strictly
// forward; a fatal error moves to StageFailed.
const (
	StageInitializing = "initializing"
	StageDetecting    = "detecting"
	StageCrawling     = "crawling"
	StageLighthouse   = "lighthouse"
	StageAnalyzing    = "analyzing"
	StageTechnical    = "technical"
	StageAI           = "ai"
	StageScoring      = "scoring"
	StageComplete     = "complete"
	StageFailed       = "failed"
)

// ProgressFunc receives a stage update after each pipeline step.
type ProgressFunc func(stage string, progress int, message string)

// Advice is the result of the LLM advisory step. Both slices are empty
// when the advisor is disabled or fails.
type Advice struct {
	AdditionalIssues []SEOIssue `json:"additionalIssues"`
	Recommendations  []string   `json:"recommendations"`
}

// SiteSignals is the compact summary handed to the advisor. It carries
// aggregate counts rather than the full issue list.
type SiteSignals struct {
	URL         string
	WordPress   WordPressInfo
	Lighthouse  LighthouseMetrics
	IssueCounts map[string]int
}
