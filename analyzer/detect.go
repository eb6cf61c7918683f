package analyzer

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// ErrNotWordPress aborts the analysis when the target cannot be
// classified as a WordPress site.
var ErrNotWordPress = errors.New("site does not appear to be running WordPress")

var (
	generatorVersionRe = regexp.MustCompile(`WordPress\s+(\d+(?:\.\d+)*)`)
	themeRe            = regexp.MustCompile(`wp-content/themes/([a-zA-Z0-9_-]+)`)
	pluginRe           = regexp.MustCompile(`wp-content/plugins/([a-zA-Z0-9_-]+)`)
	plainPermalinkRe   = regexp.MustCompile(`(?:^|[?&])(?:p|page_id)=\d+`)
	datePermalinkRe    = regexp.MustCompile(`/(?:19|20)\d{2}/\d{1,2}/\d{1,2}/`)
	slugPermalinkRe    = regexp.MustCompile(`^/[a-z0-9]+(?:-[a-z0-9]+)*/?$`)
)

// detectWordPress classifies the site from the rendered homepage and a
// pair of endpoint probes. At least two independent HTML signals are
// required before the site counts as WordPress; a single wp-content
// path can be a coincidence on non-WordPress stacks.
func (a *Analyzer) detectWordPress(ctx context.Context, doc *goquery.Document, html, siteURL string) (WordPressInfo, error) {
	info := WordPressInfo{ActivePlugins: []string{}}

	generator, _ := doc.Find("meta[name='generator']").Attr("content")
	bodyClass, _ := doc.Find("body").Attr("class")

	signals := 0
	if strings.Contains(html, "/wp-content/") || strings.Contains(html, "/wp-includes/") {
		signals++
	}
	if strings.Contains(generator, "WordPress") {
		signals++
	}
	if strings.Contains(html, "admin-ajax.php") || strings.Contains(html, "wp-emoji") {
		signals++
	}
	if strings.Contains(bodyClass, "wp-") || strings.Contains(bodyClass, "wordpress") {
		signals++
	}
	if signals < 2 {
		return info, ErrNotWordPress
	}
	info.IsWordPress = true

	if m := generatorVersionRe.FindStringSubmatch(generator); m != nil {
		info.Version = m[1]
	}
	if m := themeRe.FindStringSubmatch(html); m != nil {
		info.Theme = m[1]
	}
	seen := make(map[string]bool)
	for _, m := range pluginRe.FindAllStringSubmatch(html, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			info.ActivePlugins = append(info.ActivePlugins, m[1])
		}
	}
	sort.Strings(info.ActivePlugins)

	info.DebugMode = strings.Contains(html, "WP_DEBUG") || strings.Contains(html, "wp-content/debug.log")
	info.RESTAPIEnabled = a.probeEndpoint(ctx, siteURL, "/wp-json/")
	info.XMLRPCEnabled = a.probeEndpoint(ctx, siteURL, "/xmlrpc.php")
	info.PermalinkStructure = inferPermalinkStructure(doc, siteURL)

	return info, nil
}

// probeEndpoint reports whether an endpoint exists. Any non-5xx status
// counts as present: 401/403 still mean the endpoint is there.
func (a *Analyzer) probeEndpoint(ctx context.Context, siteURL, path string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(siteURL, "/")+path, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		log.Printf("Probe %s failed: %v", path, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}

// inferPermalinkStructure samples same-site anchors on the homepage.
// First recognized pattern wins; an empty string means undetermined.
func inferPermalinkStructure(doc *goquery.Document, siteURL string) string {
	base, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	baseDomain, err := publicsuffix.EffectiveTLDPlusOne(base.Hostname())
	if err != nil {
		baseDomain = base.Hostname()
	}

	structure := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		link, err := base.Parse(strings.TrimSpace(href))
		if err != nil || link.Hostname() == "" {
			return true
		}
		linkDomain, err := publicsuffix.EffectiveTLDPlusOne(link.Hostname())
		if err != nil {
			linkDomain = link.Hostname()
		}
		if linkDomain != baseDomain {
			return true
		}

		switch {
		case plainPermalinkRe.MatchString(link.RawQuery) || plainPermalinkRe.MatchString("?"+link.RawQuery):
			structure = "plain"
		case datePermalinkRe.MatchString(link.Path):
			structure = "day-and-name"
		case slugPermalinkRe.MatchString(link.Path) && link.Path != "/":
			structure = "post-name"
		default:
			return true
		}
		return false
	})

	return structure
}
