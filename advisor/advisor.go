// Package advisor calls an OpenAI-compatible chat-completions endpoint
// for additional SEO findings. It is strictly advisory: every failure
// mode surfaces as an error the pipeline logs and ignores.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wpaudit/backend/analyzer"
)

// Client talks to the configured LLM endpoint.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	enabled  bool
	client   *http.Client
}

func New(endpoint, model, apiKey string, enabled bool) *Client {
	return &Client{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		enabled:  enabled && apiKey != "",
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Advise sends a compact signal summary and parses the structured JSON
// reply. A disabled client returns empty advice without error.
func (c *Client) Advise(ctx context.Context, signals analyzer.SiteSignals) (analyzer.Advice, error) {
	var advice analyzer.Advice
	if !c.enabled {
		return advice, nil
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: buildPrompt(signals)}},
		Temperature: 0.3,
	})
	if err != nil {
		return advice, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return advice, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return advice, fmt.Errorf("advisory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return advice, fmt.Errorf("advisory endpoint returned %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1024*1024)).Decode(&chat); err != nil {
		return advice, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return advice, fmt.Errorf("advisory response contained no choices")
	}

	content := stripFences(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &advice); err != nil {
		return analyzer.Advice{}, fmt.Errorf("parse advice JSON: %w", err)
	}

	sanitize(&advice, signals.URL)
	return advice, nil
}

// stripFences removes an optional markdown code-fence wrapper.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// sanitize normalizes model output into well-formed issues: clamped
// impact, known severity, global location and a stable id.
func sanitize(advice *analyzer.Advice, siteURL string) {
	if advice.Recommendations == nil {
		advice.Recommendations = []string{}
	}
	if advice.AdditionalIssues == nil {
		advice.AdditionalIssues = []analyzer.SEOIssue{}
	}
	for i := range advice.AdditionalIssues {
		issue := &advice.AdditionalIssues[i]
		switch issue.Severity {
		case analyzer.SeverityCritical, analyzer.SeverityWarning, analyzer.SeverityInfo:
		default:
			issue.Severity = analyzer.SeverityInfo
		}
		if issue.Impact < 1 {
			issue.Impact = 1
		}
		if issue.Impact > 10 {
			issue.Impact = 10
		}
		if issue.Category == "" {
			issue.Category = "technical"
		}
		if issue.Location.URL == "" {
			issue.Location = analyzer.IssueLocation{Type: analyzer.LocationGlobal, URL: siteURL, Name: "Site"}
		}
		if issue.ID == "" {
			issue.ID = "ai-" + slugify(issue.Title)
		}
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func buildPrompt(s analyzer.SiteSignals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an SEO auditor reviewing a WordPress site.\n\n")
	fmt.Fprintf(&b, "Site: %s\n", s.URL)
	if s.WordPress.Version != "" {
		fmt.Fprintf(&b, "WordPress version: %s\n", s.WordPress.Version)
	}
	if s.WordPress.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", s.WordPress.Theme)
	}
	fmt.Fprintf(&b, "Plugins detected: %d\n", len(s.WordPress.ActivePlugins))
	fmt.Fprintf(&b, "REST API: %t, XML-RPC: %t, Debug mode: %t\n",
		s.WordPress.RESTAPIEnabled, s.WordPress.XMLRPCEnabled, s.WordPress.DebugMode)
	fmt.Fprintf(&b, "Lighthouse scores: performance %d, accessibility %d, best practices %d, seo %d\n",
		s.Lighthouse.Performance, s.Lighthouse.Accessibility, s.Lighthouse.BestPractices, s.Lighthouse.SEO)
	fmt.Fprintf(&b, "Issues found so far: %d critical, %d warning, %d info\n\n",
		s.IssueCounts[analyzer.SeverityCritical], s.IssueCounts[analyzer.SeverityWarning], s.IssueCounts[analyzer.SeverityInfo])
	b.WriteString(`Return JSON only, no markdown fences, in this shape:
{
  "additionalIssues": [
    {"severity": "critical|warning|info", "category": "string", "title": "string",
     "description": "string", "impact": 1, "recommendation": "string"}
  ],
  "recommendations": ["short prioritized action", "..."]
}
Limit additionalIssues to findings not implied by the counts above and
recommendations to at most five entries, highest impact first.`)
	return b.String()
}
