package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const pagespeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// PerformanceAuditor produces normalized Lighthouse-style metrics for a
// URL. Implementations must degrade to the zero value instead of
// failing the analysis.
type PerformanceAuditor interface {
	Audit(ctx context.Context, targetURL string) LighthouseMetrics
}

// PageSpeedAuditor runs a Lighthouse audit through the Google PageSpeed
// Insights v5 API, restricted to the five standard categories.
type PageSpeedAuditor struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewPageSpeedAuditor(apiKey string) *PageSpeedAuditor {
	return &PageSpeedAuditor{
		apiKey:   apiKey,
		endpoint: pagespeedEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type psiResponse struct {
	LighthouseResult *struct {
		Categories map[string]struct {
			Score float64 `json:"score"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

// Audit fetches category scores and core web vitals. Every failure path
// returns all-zero metrics; a broken performance audit must never sink
// the rest of the report.
func (p *PageSpeedAuditor) Audit(ctx context.Context, targetURL string) LighthouseMetrics {
	var metrics LighthouseMetrics

	apiURL := fmt.Sprintf(
		"%s?url=%s&category=performance&category=accessibility&category=best-practices&category=seo&category=pwa",
		p.endpoint, url.QueryEscape(targetURL),
	)
	if p.apiKey != "" {
		apiURL += "&key=" + p.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return metrics
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("PageSpeed audit failed: %v", err)
		return metrics
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("PageSpeed audit: status %d", resp.StatusCode)
		return metrics
	}

	var psi psiResponse
	if err := json.NewDecoder(resp.Body).Decode(&psi); err != nil {
		log.Printf("PageSpeed audit: decode failed: %v", err)
		return metrics
	}
	if psi.LighthouseResult == nil {
		return metrics
	}

	categoryScore := func(name string) int {
		if cat, ok := psi.LighthouseResult.Categories[name]; ok {
			return int(cat.Score * 100)
		}
		return 0
	}
	metrics.Performance = categoryScore("performance")
	metrics.Accessibility = categoryScore("accessibility")
	metrics.BestPractices = categoryScore("best-practices")
	metrics.SEO = categoryScore("seo")
	metrics.PWA = categoryScore("pwa")

	auditValue := func(name string) float64 {
		if a, ok := psi.LighthouseResult.Audits[name]; ok {
			return a.NumericValue
		}
		return 0
	}
	metrics.FCP = auditValue("first-contentful-paint")
	metrics.LCP = auditValue("largest-contentful-paint")
	metrics.CLS = auditValue("cumulative-layout-shift")
	metrics.TTI = auditValue("interactive")

	return metrics
}
