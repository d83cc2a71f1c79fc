package collect

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/watchkeeper/watchkeeper/internal/models"
)

// PageCollector collects candidate articles by scraping an HTML listing page
// for article links using the source's configured link selector.
type PageCollector struct {
	source      models.Source
	client      *http.Client
	rules       []ExtractionRule
	maxArticles int
}

var _ Collector = (*PageCollector)(nil)

// Collect fetches the listing page and extracts up to maxArticles article
// links. Relative links are resolved against the source endpoint. Entries
// without a title or usable href are skipped; a page with no matching links
// returns an empty slice, not an error.
func (c *PageCollector) Collect(ctx context.Context) ([]models.ArticleStub, error) {
	html, err := fetchHTML(ctx, c.client, c.source.Endpoint)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	selector := c.source.LinkSelector
	if selector == "" {
		selector = "a[href]"
	}

	var stubs []models.ArticleStub
	seen := make(map[string]bool)

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(stubs) >= c.maxArticles {
			return false
		}

		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}

		link := resolveURL(c.source.Endpoint, href)
		if link == "" || seen[link] {
			return true
		}

		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return true
		}

		seen[link] = true
		stubs = append(stubs, models.ArticleStub{
			Title:      title,
			URL:        link,
			SourceName: c.source.Name,
		})
		return true
	})

	if len(stubs) == 0 {
		slog.Warn("no article links found on page", "source", c.source.Name, "url", c.source.Endpoint)
	}

	return stubs, nil
}

// FetchBody retrieves one article's body text through the source's
// extraction rules.
func (c *PageCollector) FetchBody(ctx context.Context, articleURL string) (string, error) {
	return extractBody(ctx, c.client, articleURL, c.rules)
}
