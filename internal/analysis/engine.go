// Package analysis turns article text into structured threat assessments.
//
// The Engine dispatches prompts to a local Ollama inference service behind a
// global throttle: the service is a single shared resource that cannot serve
// overlapping requests without starving itself, so every call reserves the
// next dispatch slot and waits out its turn. Every failure mode degrades to
// a deterministic keyword fallback; Analyze never returns an error.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/watchkeeper/watchkeeper/internal/models"
)

// Options configures an Engine.
type Options struct {
	BaseURL  string        // Ollama base URL, e.g. http://localhost:11434
	Model    string        // model name, e.g. llama3.2:3b
	Timeout  time.Duration // per-request bound
	Throttle time.Duration // minimum spacing between dispatches
}

// Engine analyzes article text with a local LLM, degrading to keyword
// analysis when the model is unavailable.
type Engine struct {
	baseURL  string
	model    string
	client   *http.Client
	throttle time.Duration

	mu sync.Mutex
	// earliestNextDispatch is the global throttle state: no request may be
	// sent before this instant. Guarded by mu; callers reserve a slot under
	// the lock and sleep out their wait outside it.
	earliestNextDispatch time.Time
}

// NewEngine creates an Engine for the given Ollama endpoint.
func NewEngine(opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	return &Engine{
		baseURL:  opts.BaseURL,
		model:    opts.Model,
		client:   &http.Client{Timeout: opts.Timeout},
		throttle: opts.Throttle,
	}
}

// waitTurn blocks until this caller's reserved dispatch slot arrives. Each
// caller advances earliestNextDispatch by the throttle interval under the
// lock, so concurrent callers serialize into a queue with at least one
// throttle interval between consecutive dispatches.
func (e *Engine) waitTurn(ctx context.Context) {
	e.mu.Lock()
	now := time.Now()
	slot := e.earliestNextDispatch
	if slot.Before(now) {
		slot = now
	}
	e.earliestNextDispatch = slot.Add(e.throttle)
	e.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return
	}

	slog.Debug("throttling model request", "wait", wait.String())
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// generateRequest is the request body for Ollama's /api/generate.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// generateResponse is the response body from Ollama's /api/generate.
type generateResponse struct {
	Response string `json:"response"`
}

// generate sends one prompt to the model and returns the raw response text.
// Low temperature keeps the structured output deterministic.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	e.waitTurn(ctx)

	reqBody := generateRequest{
		Model:  e.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.1,
			NumPredict:  1024,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("model API error: HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	return apiResp.Response, nil
}

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	bracePattern      = regexp.MustCompile(`(?s)(\{.*\})`)
)

// extractPayload pulls a JSON object out of model response text. It prefers
// an explicitly fenced ```json block, then falls back to the first
// brace-delimited substring.
func extractPayload(response string) (string, bool) {
	if m := fencedJSONPattern.FindStringSubmatch(response); m != nil {
		return m[1], true
	}
	if m := bracePattern.FindStringSubmatch(response); m != nil {
		return m[1], true
	}
	return "", false
}

// assessmentPayload mirrors the JSON schema the analysis prompt declares.
type assessmentPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Severity    *int     `json:"severity"`
	Confidence  *float64 `json:"confidence_score"`
	Relevance   *int     `json:"relevance"`
	Status      string   `json:"status"`
	Country     string   `json:"country"`
	City        string   `json:"city"`
}

// Analyze assesses one article for threats. It never returns an error: any
// transport failure, timeout, or unparseable model output yields a degraded
// keyword-based assessment instead.
func (e *Engine) Analyze(ctx context.Context, text, sourceName, articleURL string) models.Assessment {
	prompt := analysisPrompt(text, sourceName)

	response, err := e.generate(ctx, prompt)
	if err != nil {
		slog.Warn("model analysis failed, using keyword fallback",
			"source", sourceName, "url", articleURL, "error", err)
		return FallbackAnalysis(text)
	}

	payload, ok := extractPayload(response)
	if !ok {
		slog.Warn("no JSON payload in model response, using keyword fallback",
			"source", sourceName, "url", articleURL)
		return FallbackAnalysis(text)
	}

	var parsed assessmentPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		slog.Warn("unparseable model payload, using keyword fallback",
			"source", sourceName, "url", articleURL, "error", err)
		return FallbackAnalysis(text)
	}

	return sanitize(parsed)
}

// sanitize converts a raw model payload into an Assessment with every field
// forced into its valid range. Unknown categories and statuses fall back to
// defaults rather than propagating.
func sanitize(p assessmentPayload) models.Assessment {
	a := models.Assessment{
		Title:       p.Title,
		Description: p.Description,
		Country:     p.Country,
		City:        p.City,
	}

	if cat := models.Category(p.Category); cat.Valid() {
		a.Category = cat
	}
	if st := models.Status(p.Status); st.Valid() {
		a.Status = st
	}
	if p.Severity != nil {
		a.Severity = clampInt(*p.Severity, 1, 10)
	}
	if p.Confidence != nil {
		a.Confidence = clampFloat(*p.Confidence, 0, 1)
	}
	if p.Relevance != nil {
		a.Relevance = clampInt(*p.Relevance, 0, 100)
	}

	return a
}

// geoPayload mirrors the JSON schema the geolocation prompt declares.
type geoPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Geolocate resolves approximate coordinates for a country and optional
// city. It follows the same model-then-fallback shape as Analyze; the
// fallback is simply no coordinates.
func (e *Engine) Geolocate(ctx context.Context, country, city string) (lat, lon *float64) {
	if country == "" {
		return nil, nil
	}

	location := country
	if city != "" {
		location = city + ", " + country
	}

	response, err := e.generate(ctx, geolocationPrompt(location))
	if err != nil {
		slog.Warn("geolocation failed", "location", location, "error", err)
		return nil, nil
	}

	payload, ok := extractPayload(response)
	if !ok {
		return nil, nil
	}

	var parsed geoPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		slog.Warn("unparseable geolocation payload", "location", location, "error", err)
		return nil, nil
	}

	if parsed.Latitude == nil || parsed.Longitude == nil {
		return nil, nil
	}
	if *parsed.Latitude < -90 || *parsed.Latitude > 90 || *parsed.Longitude < -180 || *parsed.Longitude > 180 {
		return nil, nil
	}

	return parsed.Latitude, parsed.Longitude
}
