package analyzer

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"strings"
)

const (
	maxRESTItems    = 10
	maxSitemapPages = 20
)

type wpRESTItem struct {
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

type xmlSitemap struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// discoverPages returns the homepage plus a bounded sample of further
// pages: up to ten posts and ten pages from the REST API when it is
// available, otherwise up to twenty URLs from sitemap.xml. Discovery
// failures only shrink the sample, they never abort the analysis.
func (a *Analyzer) discoverPages(ctx context.Context, siteURL, homeTitle string, wp WordPressInfo) []PageAnalysis {
	pages := []PageAnalysis{{URL: siteURL, Type: LocationHomepage, Title: homeTitle}}

	if wp.RESTAPIEnabled {
		for _, col := range []struct {
			endpoint string
			pageType string
		}{
			{"/wp-json/wp/v2/posts", LocationPost},
			{"/wp-json/wp/v2/pages", LocationPage},
		} {
			items, err := a.fetchRESTCollection(ctx, siteURL, col.endpoint)
			if err != nil {
				log.Printf("REST discovery via %s failed: %v", col.endpoint, err)
				continue
			}
			for _, it := range items {
				if it.Link == "" {
					continue
				}
				pages = append(pages, PageAnalysis{
					URL:   it.Link,
					Type:  col.pageType,
					Title: strings.TrimSpace(it.Title.Rendered),
				})
			}
		}
	}

	if len(pages) == 1 {
		pages = append(pages, a.fetchSitemapPages(ctx, siteURL)...)
	}

	return pages
}

func (a *Analyzer) fetchRESTCollection(ctx context.Context, siteURL, endpoint string) ([]wpRESTItem, error) {
	reqURL := fmt.Sprintf("%s%s?per_page=%d", strings.TrimSuffix(siteURL, "/"), endpoint, maxRESTItems)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var items []wpRESTItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if len(items) > maxRESTItems {
		items = items[:maxRESTItems]
	}
	return items, nil
}

// fetchSitemapPages parses sitemap.xml as a fallback when the REST API
// yields nothing. A missing or malformed sitemap means no extra pages.
func (a *Analyzer) fetchSitemapPages(ctx context.Context, siteURL string) []PageAnalysis {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(siteURL, "/")+"/sitemap.xml", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		log.Printf("Sitemap discovery failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Sitemap discovery: status %d", resp.StatusCode)
		return nil
	}

	var sitemap xmlSitemap
	if err := xml.NewDecoder(resp.Body).Decode(&sitemap); err != nil {
		log.Printf("Sitemap parse failed: %v", err)
		return nil
	}

	var pages []PageAnalysis
	for _, u := range sitemap.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" || strings.TrimSuffix(loc, "/") == strings.TrimSuffix(siteURL, "/") {
			continue
		}
		pages = append(pages, PageAnalysis{URL: loc, Type: LocationPage, Title: loc})
		if len(pages) >= maxSitemapPages {
			break
		}
	}
	return pages
}
