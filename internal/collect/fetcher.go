// Package collect discovers candidate articles from external news sources
// and fetches article bodies through ordered extraction rules.
//
// Two collector variants exist: FeedCollector for RSS/Atom feeds and
// PageCollector for HTML listing pages. Both are bounded to a fixed number
// of articles per sweep and isolate per-entry failures.
package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultMaxArticles = 10

// NewHTTPClient returns the HTTP client shared by all collectors: bounded
// timeout and browser-like headers injected on every request.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base: http.DefaultTransport,
		},
	}
}

// userAgentTransport wraps an http.RoundTripper to inject browser-like
// headers on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	// Use a browser-like User-Agent to avoid bot detection on some sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return t.base.RoundTrip(req)
}

// fetchHTML GETs the given URL and returns the response body. Non-2xx
// responses are errors. The context bounds the whole request.
func fetchHTML(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %q: %w", pageURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %q: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body from %q: %w", pageURL, err)
	}

	return string(body), nil
}

// resolveURL makes href absolute against base. Absolute hrefs pass through
// unchanged; unparseable values return the empty string.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
