package collect

import (
	"context"
	"net/http"
	"time"

	"github.com/watchkeeper/watchkeeper/internal/models"
)

// Collector is the per-source capability interface consumed by the
// orchestrator. Implementations must treat an empty source (feed or page
// with no entries) as a successful empty result, and skip individual
// malformed entries rather than failing the call.
type Collector interface {
	// Collect returns up to a fixed maximum of candidate articles.
	Collect(ctx context.Context) ([]models.ArticleStub, error)
	// FetchBody retrieves the body text of one article by trying the
	// source's extraction rules in order. It returns an error when the
	// fetch fails or no rule yields content.
	FetchBody(ctx context.Context, articleURL string) (string, error)
}

// Registry maps sources onto concrete collectors. It owns the shared HTTP
// client so all collectors reuse connections and carry the same timeout.
type Registry struct {
	client      *http.Client
	maxArticles int
}

// NewRegistry creates a Registry whose collectors fetch with the given
// timeout and are bounded to maxArticles candidates per source.
func NewRegistry(timeout time.Duration, maxArticles int) *Registry {
	if maxArticles <= 0 {
		maxArticles = defaultMaxArticles
	}
	return &Registry{
		client:      NewHTTPClient(timeout),
		maxArticles: maxArticles,
	}
}

// For returns the collector matching the source's kind. Unknown kinds fall
// back to the feed collector, the more forgiving of the two.
func (r *Registry) For(src models.Source) Collector {
	rules := RulesForSelectors(src.ContentSelectors)

	switch src.Kind {
	case models.KindPage:
		return &PageCollector{
			source:      src,
			client:      r.client,
			rules:       rules,
			maxArticles: r.maxArticles,
		}
	default:
		return &FeedCollector{
			source:      src,
			client:      r.client,
			rules:       rules,
			maxArticles: r.maxArticles,
		}
	}
}
