package collect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRulesForSelectors(t *testing.T) {
	rules := RulesForSelectors([]string{".body", "article"})

	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}
	if rules[0].Kind != RuleSelector || rules[0].Selector != ".body" {
		t.Errorf("rules[0] = %+v, want selector .body", rules[0])
	}
	if rules[1].Kind != RuleSelector || rules[1].Selector != "article" {
		t.Errorf("rules[1] = %+v, want selector article", rules[1])
	}
	// Readability is always the last resort.
	if rules[2].Kind != RuleReadability {
		t.Errorf("rules[2] = %+v, want readability", rules[2])
	}
}

func TestRulesForSelectors_NoSelectors(t *testing.T) {
	rules := RulesForSelectors(nil)
	if len(rules) != 1 || rules[0].Kind != RuleReadability {
		t.Fatalf("got %+v, want a single readability rule", rules)
	}
}

func TestExtractBySelector(t *testing.T) {
	html := `<html><body>
		<div class="body"><p>First paragraph.</p></div>
		<div class="body"><p>Second paragraph.</p></div>
		<div class="sidebar">Ignore me</div>
	</body></html>`

	got, err := extractBySelector(html, ".body")
	if err != nil {
		t.Fatalf("extractBySelector error: %v", err)
	}
	if !strings.Contains(got, "First paragraph.") || !strings.Contains(got, "Second paragraph.") {
		t.Errorf("extracted %q, want both paragraphs", got)
	}
	if strings.Contains(got, "Ignore me") {
		t.Errorf("extracted %q, sidebar should be excluded", got)
	}
}

func TestExtractBody_FirstNonEmptyRuleWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="empty"></div>
			<div class="content">Actual article text here.</div>
		</body></html>`))
	}))
	defer srv.Close()

	rules := []ExtractionRule{
		{Kind: RuleSelector, Selector: ".missing"},
		{Kind: RuleSelector, Selector: ".empty"},
		{Kind: RuleSelector, Selector: ".content"},
	}

	got, err := extractBody(context.Background(), srv.Client(), srv.URL, rules)
	if err != nil {
		t.Fatalf("extractBody error: %v", err)
	}
	if got != "Actual article text here." {
		t.Errorf("extractBody = %q, want article text", got)
	}
}

func TestExtractBody_NoRuleMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>text</p></body></html>`))
	}))
	defer srv.Close()

	rules := []ExtractionRule{
		{Kind: RuleSelector, Selector: ".nothing"},
	}

	_, err := extractBody(context.Background(), srv.Client(), srv.URL, rules)
	var noContent *NoContentError
	if !errors.As(err, &noContent) {
		t.Fatalf("extractBody error = %v, want NoContentError", err)
	}
}

func TestExtractBody_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	rules := []ExtractionRule{{Kind: RuleSelector, Selector: ".content"}}

	_, err := extractBody(context.Background(), srv.Client(), srv.URL, rules)
	if err == nil {
		t.Fatal("extractBody succeeded on HTTP 404, want error")
	}
}

func TestExtractBody_CanceledContext(t *testing.T) {
	requested := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rules := []ExtractionRule{{Kind: RuleSelector, Selector: ".content"}}
	_, err := extractBody(ctx, srv.Client(), srv.URL, rules)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("extractBody error = %v, want context.Canceled", err)
	}
	if requested {
		t.Error("request was sent despite a canceled context")
	}
}

func TestExtractBody_ReadabilityUsesFetchedPage(t *testing.T) {
	article := strings.Repeat("Crowds gathered in the city center as transport ground to a halt. ", 10)
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(`<html><head><title>City disruption</title></head><body>
			<article><p>` + article + `</p></article>
		</body></html>`))
	}))
	defer srv.Close()

	rules := []ExtractionRule{
		{Kind: RuleSelector, Selector: ".missing"},
		{Kind: RuleReadability},
	}

	got, err := extractBody(context.Background(), srv.Client(), srv.URL, rules)
	if err != nil {
		t.Fatalf("extractBody error: %v", err)
	}
	if !strings.Contains(got, "Crowds gathered") {
		t.Errorf("extracted %q, want the article text", got)
	}
	if fetches != 1 {
		t.Errorf("page fetched %d times, want 1", fetches)
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWords int
		want     string
	}{
		{"shorter than limit", "one two three", 5, "one two three"},
		{"exactly at limit", "one two three", 3, "one two three"},
		{"truncated", "one two three four five", 3, "one two three"},
		{"empty", "", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateWords(tt.input, tt.maxWords); got != tt.want {
				t.Errorf("truncateWords(%q, %d) = %q, want %q", tt.input, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"absolute passthrough", "https://news.example/world/", "https://other.example/a", "https://other.example/a"},
		{"relative path", "https://news.example/world/", "/articles/1", "https://news.example/articles/1"},
		{"relative without slash", "https://news.example/world/", "articles/1", "https://news.example/world/articles/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveURL(tt.base, tt.href); got != tt.want {
				t.Errorf("resolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestFetchHTML_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := fetchHTML(context.Background(), srv.Client(), srv.URL)
	if err == nil {
		t.Fatal("fetchHTML succeeded on HTTP 403, want error")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q does not mention the status code", err)
	}
}
