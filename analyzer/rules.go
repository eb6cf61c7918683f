package analyzer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageFacts holds everything the page-level rules look at, extracted
// once per page so each rule stays a pure predicate.
type pageFacts struct {
	URL      string
	Type     string
	Title    string
	TitleLen int

	HasMetaDesc bool
	MetaDescLen int

	MissingOG []string

	H1Count          int
	ImagesMissingAlt int
	WordCount        int
	SchemaBlocks     int

	// Computed for diagnostics but intentionally not turned into an
	// issue; pending product decision.
	ExternalLinks         int
	ExternalLinksNofollow int
}

// pageRule is one entry in the page-level rule catalogue. Severity and
// impact are fixed design constants.
type pageRule struct {
	slug           string
	severity       string
	category       string
	impact         int
	title          string
	match          func(f *pageFacts) bool
	describe       func(f *pageFacts) string
	recommendation string
}

var pageRules = []pageRule{
	{
		slug: "missing-title", severity: SeverityCritical, category: "meta-tags", impact: 10,
		title: "Missing Page Title",
		match: func(f *pageFacts) bool { return f.TitleLen == 0 },
		describe: func(f *pageFacts) string {
			return "The page has no <title> tag, which search engines rely on to understand and display the page."
		},
		recommendation: "Add a descriptive title tag of 30-60 characters.",
	},
	{
		slug: "short-title", severity: SeverityWarning, category: "meta-tags", impact: 5,
		title: "Title Too Short",
		match: func(f *pageFacts) bool { return f.TitleLen > 0 && f.TitleLen < 30 },
		describe: func(f *pageFacts) string {
			return fmt.Sprintf("The title is only %d characters long. Short titles waste valuable keyword space.", f.TitleLen)
		},
		recommendation: "Expand the title to 30-60 characters including primary keywords.",
	},
	{
		slug: "long-title", severity: SeverityWarning, category: "meta-tags", impact: 3,
		title: "Title Too Long",
		match: func(f *pageFacts) bool { return f.TitleLen > 60 },
		describe: func(f *pageFacts) string {
			return fmt.Sprintf("The title is %d characters long and will be truncated in search results.", f.TitleLen)
		},
		recommendation: "Shorten the title to 60 characters or fewer.",
	},
	{
		slug: "missing-meta-description", severity: SeverityCritical, category: "meta-tags", impact: 8,
		title: "Missing Meta Description",
		match: func(f *pageFacts) bool { return !f.HasMetaDesc },
		describe: func(f *pageFacts) string {
			return "The page has no meta description, so search engines will pick an arbitrary snippet."
		},
		recommendation: "Add a meta description of 120-160 characters summarizing the page.",
	},
	{
		slug: "short-meta-description", severity: SeverityWarning, category: "meta-tags", impact: 4,
		title: "Meta Description Too Short",
		match: func(f *pageFacts) bool { return f.HasMetaDesc && f.MetaDescLen < 120 },
		describe: func(f *pageFacts) string {
			return fmt.Sprintf("The meta description is only %d characters long.", f.MetaDescLen)
		},
		recommendation: "Expand the meta description to 120-160 characters.",
	},
	{
		slug: "incomplete-open-graph", severity: SeverityInfo, category: "meta-tags", impact: 3,
		title: "Incomplete Open Graph Tags",
		match: func(f *pageFacts) bool { return len(f.MissingOG) > 0 },
		describe: func(f *pageFacts) string {
			return fmt.Sprintf("Missing Open Graph tags: %s. Shared links will preview poorly on social platforms.", strings.Join(f.MissingOG, ", "))
		},
		recommendation: "Add og:title, og:description and og:image meta tags.",
	},
	{
		slug: "missing-h1", severity: SeverityCritical, category: "headings", impact: 9,
		title: "Missing H1 Heading",
		match: func(f *pageFacts) bool { return f.H1Count == 0 },
		describe: func(f *pageFacts) string {
			return "The page has no H1 heading, the strongest on-page signal of the page topic."
		},
		recommendation: "Add exactly one H1 heading containing the primary keyword.",
	},
	{
		slug: "multiple-h1", severity: SeverityWarning, category: "headings", impact: 6,
		title: "Multiple H1 Headings",
		match: func(f *pageFacts) bool { return f.H1Count > 1 },
		describe: func(f *pageFacts) string {
			return fmt.Sprintf("Found %d H1 headings. Multiple H1s dilute the topical focus of the page.", f.H1Count)
		},
		recommendation: "Keep a single H1 and demote the rest to H2/H3.",
	},
	{
		slug: "images-missing-alt", severity: SeverityWarning, category: "images", impact: 5,
		title: "Images Missing Alt Text",
		match: func(f *pageFacts) bool { return f.ImagesMissingAlt > 0 },
		describe: func(f *pageFacts) string {
			return fmt.Sprintf("%d image(s) have no alt attribute, hurting accessibility and image search visibility.", f.ImagesMissingAlt)
		},
		recommendation: "Add descriptive alt text to every content image.",
	},
	{
		slug: "thin-content", severity: SeverityWarning, category: "content", impact: 6,
		title: "Thin Content",
		match: func(f *pageFacts) bool { return f.WordCount < 300 && f.Type != LocationHomepage },
		describe: func(f *pageFacts) string {
			return fmt.Sprintf("The page has only %d words. Pages under 300 words rarely rank well.", f.WordCount)
		},
		recommendation: "Expand the content to at least 300 words of useful text.",
	},
	{
		slug: "no-schema-markup", severity: SeverityInfo, category: "schema", impact: 4,
		title: "No Schema Markup",
		match: func(f *pageFacts) bool { return f.SchemaBlocks == 0 },
		describe: func(f *pageFacts) string {
			return "No ld+json structured data found. Schema markup helps search engines understand the content."
		},
		recommendation: "Add JSON-LD structured data, e.g. via an SEO plugin.",
	},
}

// extractPageFacts inspects a parsed document once and collects the
// inputs the rule catalogue needs.
func extractPageFacts(doc *goquery.Document, pageURL, pageType string) *pageFacts {
	f := &pageFacts{URL: pageURL, Type: pageType}

	f.Title = strings.TrimSpace(doc.Find("title").First().Text())
	f.TitleLen = len(f.Title)

	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok && strings.TrimSpace(desc) != "" {
		f.HasMetaDesc = true
		f.MetaDescLen = len(desc)
	}

	for _, tag := range []string{"og:title", "og:description", "og:image"} {
		sel := fmt.Sprintf("meta[property='%s']", tag)
		if content, ok := doc.Find(sel).Attr("content"); !ok || strings.TrimSpace(content) == "" {
			f.MissingOG = append(f.MissingOG, tag)
		}
	}

	f.H1Count = doc.Find("h1").Length()

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			f.ImagesMissingAlt++
		}
	})

	f.WordCount = len(strings.Fields(doc.Find("body").Text()))
	f.SchemaBlocks = doc.Find("script[type='application/ld+json']").Length()

	base, _ := url.Parse(pageURL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, err := url.Parse(strings.TrimSpace(href))
		if err != nil || !strings.HasPrefix(link.Scheme, "http") {
			return
		}
		if base != nil && link.Host != "" && link.Host != base.Host {
			f.ExternalLinks++
			if rel, _ := s.Attr("rel"); strings.Contains(rel, "nofollow") {
				f.ExternalLinksNofollow++
			}
		}
	})

	return f
}

// runPageRules applies the full catalogue to one page's facts. Issue IDs
// are unique per page type; the URL-aware dedup key in report assembly
// separates same-type issues across pages.
func runPageRules(f *pageFacts) []SEOIssue {
	var issues []SEOIssue
	for _, r := range pageRules {
		if !r.match(f) {
			continue
		}
		name := f.Title
		if name == "" {
			name = f.URL
		}
		issues = append(issues, SEOIssue{
			ID:          fmt.Sprintf("%s-%s", f.Type, r.slug),
			Severity:    r.severity,
			Category:    r.category,
			Title:       r.title,
			Description: r.describe(f),
			Location: IssueLocation{
				Type: f.Type,
				URL:  f.URL,
				Name: name,
			},
			Impact:         r.impact,
			Recommendation: r.recommendation,
		})
	}
	return issues
}
