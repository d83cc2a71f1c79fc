package analysis

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/watchkeeper/watchkeeper/internal/models"
)

// fallbackConfidence marks degraded output. Keyword matching is a blunt
// instrument compared to the model.
const fallbackConfidence = 0.3

// fallbackRelevance is neutral: keyword matching cannot judge relevance.
const fallbackRelevance = 50

// FallbackAnalysis produces a deterministic keyword-based assessment used
// whenever the model is unreachable, times out, or returns unparseable
// output. It never fails and performs no network calls.
func FallbackAnalysis(text string) models.Assessment {
	textLower := strings.ToLower(text)

	category, _ := TopCategory(textLower)
	totalHits := TotalHits(textLower)

	wordCount := len(strings.Fields(text))
	if wordCount < 1 {
		wordCount = 1
	}
	density := float64(totalHits) / float64(wordCount)
	severity := clampInt(int(math.Round(density*100)), 1, 10)

	summary := leadingSentences(text, 3)
	title := summary
	if len(title) > 100 {
		title = truncateRunes(title, 100) + "..."
	}

	return models.Assessment{
		Title:       title,
		Description: summary,
		Category:    category,
		Severity:    severity,
		Confidence:  fallbackConfidence,
		Relevance:   fallbackRelevance,
		Status:      models.StatusMonitoring,
		Degraded:    true,
	}
}

// leadingSentences returns the first n sentences of text, joined by a space.
// Sentence boundaries are ., ! or ? followed by whitespace.
func leadingSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes) && len(sentences) < n; i++ {
		switch runes[i] {
		case '.', '!', '?':
			// Consume any run of terminal punctuation.
			end := i + 1
			for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
				end++
			}
			if end >= len(runes) || runes[end] == ' ' || runes[end] == '\n' || runes[end] == '\t' {
				sentence := strings.TrimSpace(string(runes[start:end]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = end
				i = end - 1
			}
		}
	}

	if len(sentences) < n {
		if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
			sentences = append(sentences, rest)
		}
	}

	return strings.Join(sentences, " ")
}

// clampInt clamps v into [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat clamps v into [lo, hi].
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// containsKeyword reports whether the lowercased text contains the keyword.
// Multi-word keywords match as plain substrings, the same way single words do.
func containsKeyword(textLower, keyword string) bool {
	return strings.Contains(textLower, keyword)
}

// truncateRunes cuts s to at most max bytes without splitting a UTF-8 rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
