package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverPagesViaRESTAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/posts":
			assert.Equal(t, "10", r.URL.Query().Get("per_page"))
			fmt.Fprint(w, `[
				{"link":"https://example.com/first-post/","title":{"rendered":"First Post"}},
				{"link":"https://example.com/second-post/","title":{"rendered":"Second Post"}}
			]`)
		case "/wp-json/wp/v2/pages":
			fmt.Fprint(w, `[{"link":"https://example.com/about/","title":{"rendered":"About"}}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := New(stubAuditor{}, nil)
	pages := a.discoverPages(context.Background(), srv.URL, "Home", WordPressInfo{RESTAPIEnabled: true})

	require.Len(t, pages, 4)
	assert.Equal(t, srv.URL, pages[0].URL, "homepage always comes first")
	assert.Equal(t, LocationHomepage, pages[0].Type)
	assert.Equal(t, "Home", pages[0].Title)

	assert.Equal(t, LocationPost, pages[1].Type)
	assert.Equal(t, "First Post", pages[1].Title)
	assert.Equal(t, LocationPage, pages[3].Type)
	assert.Equal(t, "About", pages[3].Title)
}

func TestDiscoverPagesCapsRESTItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "[")
		for i := 0; i < 15; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"link":"https://example.com/post-%d/","title":{"rendered":"Post %d"}}`, i, i)
		}
		fmt.Fprint(w, "]")
	}))
	defer srv.Close()

	a := New(stubAuditor{}, nil)
	pages := a.discoverPages(context.Background(), srv.URL, "Home", WordPressInfo{RESTAPIEnabled: true})

	// Homepage plus at most ten posts even when the API over-delivers.
	assert.Len(t, pages, 1+maxRESTItems)
}

func TestDiscoverPagesSitemapFallback(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap.xml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/</loc></url>
  <url><loc>%s/services/</loc></url>
  <url><loc>%s/contact/</loc></url>
</urlset>`, srvURL, srvURL, srvURL)
	}))
	defer srv.Close()
	srvURL = srv.URL

	a := New(stubAuditor{}, nil)
	pages := a.discoverPages(context.Background(), srv.URL, "Home", WordPressInfo{RESTAPIEnabled: false})

	// The homepage entry from the sitemap is skipped, not duplicated.
	require.Len(t, pages, 3)
	assert.Equal(t, srv.URL, pages[0].URL)
	assert.Equal(t, srv.URL+"/services/", pages[1].URL)
	assert.Equal(t, srv.URL+"/contact/", pages[2].URL)
}

func TestDiscoverPagesSurvivesBrokenEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(stubAuditor{}, nil)
	pages := a.discoverPages(context.Background(), srv.URL, "Home", WordPressInfo{RESTAPIEnabled: true})

	require.Len(t, pages, 1)
	assert.Equal(t, LocationHomepage, pages[0].Type)
}
