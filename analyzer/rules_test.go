package analyzer

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factsFromHTML(t *testing.T, html, pageURL, pageType string) *pageFacts {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return extractPageFacts(doc, pageURL, pageType)
}

func findIssue(issues []SEOIssue, id string) *SEOIssue {
	for i := range issues {
		if issues[i].ID == id {
			return &issues[i]
		}
	}
	return nil
}

const cleanPageHTML = `<!DOCTYPE html>
<html>
<head>
<title>A Complete Guide to Growing Garden Tomatoes</title>
<meta name="description" content="Learn how to grow healthy garden tomatoes from seed to harvest, including soil preparation, watering schedules and pest control tips.">
<meta property="og:title" content="A Complete Guide to Growing Garden Tomatoes">
<meta property="og:description" content="From seed to harvest.">
<meta property="og:image" content="https://example.com/tomatoes.jpg">
<script type="application/ld+json">{"@type":"Article"}</script>
</head>
<body>
<h1>Growing Garden Tomatoes</h1>
<img src="plant.jpg" alt="A tomato seedling in a pot">
<p>Some article text.</p>
</body>
</html>`

func TestCleanHomepageProducesNoIssues(t *testing.T) {
	facts := factsFromHTML(t, cleanPageHTML, "https://example.com", LocationHomepage)
	issues := runPageRules(facts)
	assert.Empty(t, issues)
}

func TestMissingTitle(t *testing.T) {
	html := `<html><head>
<meta name="description" content="` + strings.Repeat("d", 130) + `">
<meta property="og:title" content="x"><meta property="og:description" content="x"><meta property="og:image" content="x">
<script type="application/ld+json">{}</script>
</head><body><h1>Heading</h1></body></html>`

	issues := runPageRules(factsFromHTML(t, html, "https://example.com", LocationHomepage))

	missing := findIssue(issues, "homepage-missing-title")
	require.NotNil(t, missing)
	assert.Equal(t, SeverityCritical, missing.Severity)
	assert.Equal(t, 10, missing.Impact)
	assert.Equal(t, "meta-tags", missing.Category)

	// An absent title must not also count as too short or too long.
	assert.Nil(t, findIssue(issues, "homepage-short-title"))
	assert.Nil(t, findIssue(issues, "homepage-long-title"))
}

func TestTitleLengthBounds(t *testing.T) {
	short := factsFromHTML(t, "<html><head><title>Tiny</title></head><body></body></html>",
		"https://example.com/p", LocationPost)
	issues := runPageRules(short)
	require.NotNil(t, findIssue(issues, "post-short-title"))
	assert.Nil(t, findIssue(issues, "post-missing-title"))

	long := factsFromHTML(t,
		"<html><head><title>"+strings.Repeat("word ", 15)+"</title></head><body></body></html>",
		"https://example.com/p", LocationPost)
	issues = runPageRules(long)
	require.NotNil(t, findIssue(issues, "post-long-title"))
	assert.Nil(t, findIssue(issues, "post-short-title"))
}

func TestMetaDescriptionRules(t *testing.T) {
	issues := runPageRules(factsFromHTML(t,
		"<html><head><title>t</title></head><body></body></html>",
		"https://example.com", LocationHomepage))
	missing := findIssue(issues, "homepage-missing-meta-description")
	require.NotNil(t, missing)
	assert.Equal(t, SeverityCritical, missing.Severity)
	assert.Nil(t, findIssue(issues, "homepage-short-meta-description"))

	issues = runPageRules(factsFromHTML(t,
		`<html><head><title>t</title><meta name="description" content="too short"></head><body></body></html>`,
		"https://example.com", LocationHomepage))
	assert.Nil(t, findIssue(issues, "homepage-missing-meta-description"))
	require.NotNil(t, findIssue(issues, "homepage-short-meta-description"))
}

func TestThinContentExemptsHomepage(t *testing.T) {
	html := "<html><head><title>t</title></head><body><p>just a few words here</p></body></html>"

	homeIssues := runPageRules(factsFromHTML(t, html, "https://example.com", LocationHomepage))
	assert.Nil(t, findIssue(homeIssues, "homepage-thin-content"))

	postIssues := runPageRules(factsFromHTML(t, html, "https://example.com/post", LocationPost))
	thin := findIssue(postIssues, "post-thin-content")
	require.NotNil(t, thin)
	assert.Equal(t, SeverityWarning, thin.Severity)
	assert.Equal(t, 6, thin.Impact)
}

func TestHeadingRules(t *testing.T) {
	issues := runPageRules(factsFromHTML(t,
		"<html><head><title>t</title></head><body><h2>only h2</h2></body></html>",
		"https://example.com", LocationHomepage))
	require.NotNil(t, findIssue(issues, "homepage-missing-h1"))

	issues = runPageRules(factsFromHTML(t,
		"<html><head><title>t</title></head><body><h1>a</h1><h1>b</h1><h1>c</h1></body></html>",
		"https://example.com", LocationHomepage))
	multiple := findIssue(issues, "homepage-multiple-h1")
	require.NotNil(t, multiple)
	assert.Contains(t, multiple.Description, "3 H1")
	assert.Nil(t, findIssue(issues, "homepage-missing-h1"))
}

func TestImagesMissingAltCountsEmptyAlt(t *testing.T) {
	html := `<html><head><title>t</title></head><body>
<img src="a.jpg">
<img src="b.jpg" alt="">
<img src="c.jpg" alt="described image">
</body></html>`

	facts := factsFromHTML(t, html, "https://example.com", LocationHomepage)
	assert.Equal(t, 2, facts.ImagesMissingAlt)

	issue := findIssue(runPageRules(facts), "homepage-images-missing-alt")
	require.NotNil(t, issue)
	assert.Contains(t, issue.Description, "2 image(s)")
}

func TestExternalLinkFactsAreNotIssues(t *testing.T) {
	html := `<html><head><title>t</title></head><body>
<a href="https://other.example.org/page" rel="nofollow">out</a>
<a href="https://another.example.net/">out2</a>
<a href="/internal">in</a>
</body></html>`

	facts := factsFromHTML(t, html, "https://example.com", LocationHomepage)
	assert.Equal(t, 2, facts.ExternalLinks)
	assert.Equal(t, 1, facts.ExternalLinksNofollow)

	for _, issue := range runPageRules(facts) {
		assert.NotContains(t, issue.ID, "nofollow")
	}
}

func TestIssueLocationUsesTitleThenURL(t *testing.T) {
	issues := runPageRules(factsFromHTML(t,
		"<html><head></head><body></body></html>", "https://example.com/x", LocationPage))
	require.NotEmpty(t, issues)
	assert.Equal(t, "https://example.com/x", issues[0].Location.Name)
	assert.Equal(t, LocationPage, issues[0].Location.Type)
}
