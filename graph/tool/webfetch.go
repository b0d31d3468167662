package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	// DefaultUserAgent is sent with outgoing tool requests.
	DefaultUserAgent = "raggraph/1.0 (+https://github.com/dshills/raggraph-go)"

	// MaxBodySize caps how much of a fetched page is read.
	MaxBodySize = 5 << 20
)

// WebFetch downloads a page and converts its HTML to Markdown so it can be
// placed in a prompt.
//
// Input:
//   - url: page to fetch; a missing scheme defaults to https
//
// Output:
//   - url: final URL after redirects
//   - status_code: HTTP status
//   - markdown: page content as Markdown
type WebFetch struct {
	client    *http.Client
	userAgent string
}

// NewWebFetch creates a fetch tool. Timeouts come from the call context.
func NewWebFetch() *WebFetch {
	return &WebFetch{client: &http.Client{}, userAgent: DefaultUserAgent}
}

// Name returns "web_fetch".
func (w *WebFetch) Name() string {
	return "web_fetch"
}

// Call fetches input["url"].
func (w *WebFetch) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	rawURL, err := stringParam(input, "url")
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	return map[string]interface{}{
		"url":         resp.Request.URL.String(),
		"status_code": resp.StatusCode,
		"markdown":    strings.TrimSpace(markdown),
	}, nil
}
