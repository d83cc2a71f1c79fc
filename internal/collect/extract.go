package collect

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxBodyWords = 5000

// RuleKind selects the mechanism an extraction rule uses.
type RuleKind string

const (
	// RuleSelector extracts the text of all elements matching a CSS selector.
	RuleSelector RuleKind = "selector"
	// RuleReadability extracts the main readable text of the whole page.
	RuleReadability RuleKind = "readability"
)

// ExtractionRule is one declarative step in an ordered body-extraction list.
// Rules are tried in order; the first one yielding non-empty text wins.
type ExtractionRule struct {
	Kind     RuleKind
	Selector string // used by RuleSelector
}

// RulesForSelectors builds the ordered rule list for a source: one selector
// rule per configured CSS selector, then a readability rule as the last
// resort.
func RulesForSelectors(selectors []string) []ExtractionRule {
	rules := make([]ExtractionRule, 0, len(selectors)+1)
	for _, sel := range selectors {
		rules = append(rules, ExtractionRule{Kind: RuleSelector, Selector: sel})
	}
	rules = append(rules, ExtractionRule{Kind: RuleReadability})
	return rules
}

// extractBody fetches articleURL and applies the rules in order, returning
// the first non-empty extracted text. The page is fetched once and shared
// across rules. All failure modes (fetch error, non-2xx, every rule empty)
// return an error.
func extractBody(ctx context.Context, client *http.Client, articleURL string, rules []ExtractionRule) (string, error) {
	page, err := fetchHTML(ctx, client, articleURL)
	if err != nil {
		return "", err
	}

	for _, rule := range rules {
		var (
			text string
			err  error
		)
		switch rule.Kind {
		case RuleSelector:
			text, err = extractBySelector(page, rule.Selector)
		case RuleReadability:
			text, err = extractReadable(page, articleURL)
		}
		if err != nil {
			continue
		}
		if text != "" {
			return truncateWords(text, maxBodyWords), nil
		}
	}

	return "", &NoContentError{URL: articleURL}
}

// NoContentError reports that every extraction rule came up empty.
type NoContentError struct {
	URL string
}

func (e *NoContentError) Error() string {
	return "no extraction rule produced content for " + e.URL
}

// extractBySelector concatenates the text of all elements matching the CSS
// selector in the given HTML document.
func extractBySelector(html, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	})

	return strings.TrimSpace(b.String()), nil
}

// extractReadable runs go-readability over the already-fetched page and
// returns its main readable text content.
func extractReadable(html, articleURL string) (string, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
