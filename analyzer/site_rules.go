package analyzer

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/temoto/robotstxt"
)

// Recognized SEO plugin slug fragments.
var seoPluginSlugs = []string{"yoast", "rank-math", "all-in-one-seo", "seopress"}

func globalIssue(slug, severity, category string, impact int, siteURL, title, description, recommendation string) SEOIssue {
	return SEOIssue{
		ID:          "global-" + slug,
		Severity:    severity,
		Category:    category,
		Title:       title,
		Description: description,
		Location: IssueLocation{
			Type: LocationGlobal,
			URL:  siteURL,
			Name: "Site",
		},
		Impact:         impact,
		Recommendation: recommendation,
	}
}

// siteIssues applies WordPress-specific checks to the detected facts,
// independent of any single page.
func siteIssues(wp WordPressInfo, siteURL string) []SEOIssue {
	var issues []SEOIssue

	if outdatedVersion(wp.Version) {
		issues = append(issues, globalIssue("outdated-wordpress", SeverityCritical, "technical", 9, siteURL,
			"Outdated WordPress Version",
			fmt.Sprintf("The site runs WordPress %s. Older cores miss security patches and SEO improvements.", wp.Version),
			"Update WordPress core to the latest release."))
	}

	if wp.XMLRPCEnabled {
		issues = append(issues, globalIssue("xmlrpc-enabled", SeverityWarning, "technical", 5, siteURL,
			"XML-RPC Enabled",
			"xmlrpc.php responds, leaving the site open to brute-force amplification and pingback abuse.",
			"Disable XML-RPC unless a legacy client depends on it."))
	}

	if wp.DebugMode {
		issues = append(issues, globalIssue("debug-mode", SeverityCritical, "technical", 8, siteURL,
			"Debug Mode Enabled",
			"WP_DEBUG output is visible on the site, which leaks internals and can break rendering for crawlers.",
			"Set WP_DEBUG to false in wp-config.php on production."))
	}

	if wp.PermalinkStructure == "plain" {
		issues = append(issues, globalIssue("plain-permalinks", SeverityWarning, "technical", 7, siteURL,
			"Plain Permalink Structure",
			"URLs use query-string post IDs instead of readable slugs, giving search engines no keyword signal.",
			"Switch the permalink structure to Post name under Settings > Permalinks."))
	}

	if !hasSEOPlugin(wp.ActivePlugins) {
		issues = append(issues, globalIssue("no-seo-plugin", SeverityWarning, "technical", 6, siteURL,
			"No SEO Plugin Detected",
			"None of the common SEO plugins (Yoast, Rank Math, All in One SEO, SEOPress) appear to be active.",
			"Install an SEO plugin to manage titles, sitemaps and schema centrally."))
	}

	return issues
}

// outdatedVersion reports whether a detected core version predates 6.4.
// Unknown or unparsable versions are not flagged.
func outdatedVersion(version string) bool {
	if version == "" {
		return false
	}
	parts := strings.Split(version, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	if major < 6 {
		return true
	}
	if major > 6 {
		return false
	}
	minor := 0
	if len(parts) > 1 {
		if m, err := strconv.Atoi(parts[1]); err == nil {
			minor = m
		}
	}
	return minor < 4
}

func hasSEOPlugin(plugins []string) bool {
	for _, p := range plugins {
		for _, slug := range seoPluginSlugs {
			if strings.Contains(p, slug) {
				return true
			}
		}
	}
	return false
}

// technicalIssues runs the domain-agnostic checks: SSL, robots.txt and
// sitemap presence. Probe failures degrade to "not found" findings,
// never to a fatal error.
func (a *Analyzer) technicalIssues(ctx context.Context, siteURL string) []SEOIssue {
	var issues []SEOIssue

	if !strings.HasPrefix(siteURL, "https://") {
		issues = append(issues, globalIssue("no-ssl", SeverityCritical, "technical", 10, siteURL,
			"No SSL Certificate",
			"The site is served over plain HTTP. Search engines demote insecure sites and browsers warn visitors.",
			"Install a TLS certificate and redirect all HTTP traffic to HTTPS."))
	}

	issues = append(issues, a.robotsIssues(ctx, siteURL)...)

	if !a.urlReturnsOK(ctx, strings.TrimSuffix(siteURL, "/")+"/sitemap.xml") {
		issues = append(issues, globalIssue("missing-sitemap", SeverityWarning, "technical", 7, siteURL,
			"Missing XML Sitemap",
			"No sitemap.xml was found, so search engines must discover every page by crawling links.",
			"Generate an XML sitemap and submit it in Search Console."))
	}

	return issues
}

func (a *Analyzer) robotsIssues(ctx context.Context, siteURL string) []SEOIssue {
	body, ok := a.fetchBody(ctx, strings.TrimSuffix(siteURL, "/")+"/robots.txt")
	if !ok {
		return []SEOIssue{globalIssue("missing-robots", SeverityInfo, "technical", 2, siteURL,
			"No robots.txt",
			"The site has no robots.txt. Crawlers fall back to crawling everything, including admin paths.",
			"Add a robots.txt that points at the sitemap and excludes non-content paths.")}
	}

	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		log.Printf("robots.txt parse failed: %v", err)
		return nil
	}
	if group := robots.FindGroup("*"); group != nil && !group.Test("/") {
		return []SEOIssue{globalIssue("robots-blocking", SeverityCritical, "technical", 10, siteURL,
			"Search Engines Blocked by robots.txt",
			"robots.txt disallows the entire site for all user agents. No pages can be indexed.",
			"Remove the global Disallow rule from robots.txt.")}
	}
	return nil
}

func (a *Analyzer) fetchBody(ctx context.Context, target string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, false
	}
	return body, true
}

func (a *Analyzer) urlReturnsOK(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
