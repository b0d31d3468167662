package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DuckDuckGoURL is the instant-answer API endpoint used by WebSearch.
const DuckDuckGoURL = "https://api.duckduckgo.com/"

const maxRelatedTopics = 5

// WebSearch queries the DuckDuckGo instant-answer API.
//
// Input:
//   - query: search terms
//
// Output:
//   - query: the query as sent
//   - summary: human-readable digest of abstract, answer, definition and topics
//   - results: []map{"text", "url"} from direct results and related topics
//   - pages: []map{"url", "markdown"} or {"url", "error"}, only with WithPageFetch
type WebSearch struct {
	client    *http.Client
	baseURL   string
	userAgent string
	fetcher   Tool
	fetchN    int
}

// WebSearchOption configures a WebSearch.
type WebSearchOption func(*WebSearch)

// WithSearchURL points the tool at another endpoint (tests, proxies).
func WithSearchURL(u string) WebSearchOption {
	return func(w *WebSearch) { w.baseURL = u }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) WebSearchOption {
	return func(w *WebSearch) { w.client = c }
}

// WithPageFetch fetches the first n result pages through fetcher and adds
// them to the output under "pages". Fetch failures are reported per page.
func WithPageFetch(fetcher Tool, n int) WebSearchOption {
	return func(w *WebSearch) {
		w.fetcher = fetcher
		w.fetchN = n
	}
}

// NewWebSearch creates a DuckDuckGo search tool.
func NewWebSearch(opts ...WebSearchOption) *WebSearch {
	w := &WebSearch{
		client:    &http.Client{},
		baseURL:   DuckDuckGoURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns "web_search".
func (w *WebSearch) Name() string {
	return "web_search"
}

type ddgTopic struct {
	FirstURL string `json:"FirstURL"`
	Text     string `json:"Text"`
}

type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	Definition    string     `json:"Definition"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
	Results       []ddgTopic `json:"Results"`
}

// Call runs input["query"] against the search API.
func (w *WebSearch) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, err := stringParam(input, "query")
	if err != nil {
		return nil, err
	}

	ddg, err := w.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for _, r := range append(ddg.Results, ddg.RelatedTopics...) {
		if r.Text == "" {
			continue
		}
		results = append(results, map[string]interface{}{
			"text": r.Text,
			"url":  absoluteURL(r.FirstURL),
		})
	}

	out := map[string]interface{}{
		"query":   query,
		"summary": summarize(ddg),
		"results": results,
	}
	if w.fetcher != nil && w.fetchN > 0 {
		out["pages"] = w.fetchPages(ctx, ddg, results)
	}
	return out, nil
}

func (w *WebSearch) fetch(ctx context.Context, query string) (*ddgResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var ddg ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&ddg); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &ddg, nil
}

func (w *WebSearch) fetchPages(ctx context.Context, ddg *ddgResponse, results []map[string]interface{}) []map[string]interface{} {
	var urls []string
	if ddg.AbstractURL != "" {
		urls = append(urls, ddg.AbstractURL)
	}
	for _, r := range results {
		urls = append(urls, r["url"].(string))
	}

	var pages []map[string]interface{}
	for _, u := range urls {
		if len(pages) == w.fetchN {
			break
		}
		if u == "" {
			continue
		}
		page, err := w.fetcher.Call(ctx, map[string]interface{}{"url": u})
		if err != nil {
			pages = append(pages, map[string]interface{}{"url": u, "error": err.Error()})
			continue
		}
		pages = append(pages, map[string]interface{}{"url": u, "markdown": page["markdown"]})
	}
	return pages
}

func summarize(ddg *ddgResponse) string {
	var parts []string
	if ddg.AbstractText != "" {
		parts = append(parts, "Abstract: "+ddg.AbstractText)
		if ddg.AbstractURL != "" {
			parts = append(parts, "Source: "+ddg.AbstractURL)
		}
	}
	if ddg.Answer != "" {
		parts = append(parts, "Answer: "+ddg.Answer)
	}
	if ddg.Definition != "" {
		parts = append(parts, "Definition: "+ddg.Definition)
	}

	var topics []string
	for _, t := range ddg.RelatedTopics {
		if t.Text == "" {
			continue
		}
		topics = append(topics, "- "+t.Text)
		if len(topics) == maxRelatedTopics {
			break
		}
	}
	if len(topics) > 0 {
		parts = append(parts, "Related topics:\n"+strings.Join(topics, "\n"))
	}

	if len(parts) == 0 {
		return "No results found for this query."
	}
	return strings.Join(parts, "\n\n")
}

// absoluteURL resolves the relative paths the API sometimes returns.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "/") {
		return "https://duckduckgo.com" + u
	}
	return u
}
