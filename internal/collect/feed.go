package collect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"
	"github.com/watchkeeper/watchkeeper/internal/models"
)

// FeedCollector collects candidate articles from an RSS/Atom feed.
type FeedCollector struct {
	source      models.Source
	client      *http.Client
	rules       []ExtractionRule
	maxArticles int
}

var _ Collector = (*FeedCollector)(nil)

// Collect parses the source's feed and returns up to maxArticles stubs.
// A feed with zero entries returns an empty slice, not an error. Entries
// without a link are skipped.
func (c *FeedCollector) Collect(ctx context.Context) ([]models.ArticleStub, error) {
	fp := gofeed.NewParser()
	fp.Client = c.client

	feed, err := fp.ParseURLWithContext(c.source.Endpoint, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", c.source.Endpoint, err)
	}

	if len(feed.Items) == 0 {
		slog.Warn("no entries found in feed", "source", c.source.Name, "url", c.source.Endpoint)
		return nil, nil
	}

	var stubs []models.ArticleStub
	for _, item := range feed.Items {
		if len(stubs) >= c.maxArticles {
			break
		}
		if item.Link == "" {
			continue
		}

		link := resolveURL(c.source.Endpoint, item.Link)
		if link == "" {
			continue
		}

		stubs = append(stubs, models.ArticleStub{
			Title:       item.Title,
			URL:         link,
			PublishedAt: item.Published,
			SourceName:  c.source.Name,
		})
	}

	return stubs, nil
}

// FetchBody retrieves one article's body text through the source's
// extraction rules.
func (c *FeedCollector) FetchBody(ctx context.Context, articleURL string) (string, error) {
	return extractBody(ctx, c.client, articleURL, c.rules)
}
