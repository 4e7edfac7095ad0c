package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/logger"
	"go.uber.org/zap"
)

// ErrNoStructuredData means the page carried no Recipe-typed JSON-LD markup.
// Recoverable by switching to the photo import path, never auto-retried.
var ErrNoStructuredData = errors.New("no structured recipe data found on this page")

// Many recipe sites reject non-browser clients, so the fetch identifies
// itself as desktop Chrome.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxBodyBytes = 2 * 1024 * 1024

var jsonLDScriptRe = regexp.MustCompile(`(?s)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)

// Scraper extracts schema.org Recipe metadata from web pages. No AI
// involved; pure parsing.
type Scraper struct {
	client *http.Client
}

// New creates a Scraper with a default HTTP client.
func New() *Scraper {
	return &Scraper{client: &http.Client{Timeout: 20 * time.Second}}
}

// Scrape fetches the URL and extracts the first Recipe-typed JSON-LD entry.
func (s *Scraper) Scrape(ctx context.Context, url string) (*ai.RecipeDraft, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Get().Error("failed to fetch URL", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("URL returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read URL body: %w", err)
	}

	draft, err := ExtractFromHTML(string(body))
	if err != nil {
		return nil, err
	}
	draft.SourceURL = url
	return draft, nil
}

// ExtractFromHTML scans the HTML for JSON-LD script blocks and returns the
// first Recipe found in any of them.
func ExtractFromHTML(html string) (*ai.RecipeDraft, error) {
	matches := jsonLDScriptRe.FindAllStringSubmatch(html, -1)

	for _, match := range matches {
		if len(match) < 2 {
			continue
		}

		var raw interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &raw); err != nil {
			continue
		}

		// A block may hold a single object, an array of objects, or a
		// @graph wrapper; flatten all three into one candidate list.
		for _, candidate := range flattenJSONLD(raw) {
			obj, ok := candidate.(map[string]interface{})
			if !ok {
				continue
			}
			if isRecipeType(obj["@type"]) {
				return draftFromJSONLD(obj), nil
			}
		}
	}

	return nil, ErrNoStructuredData
}

// flattenJSONLD normalizes a decoded JSON-LD payload into a flat entry list.
func flattenJSONLD(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		if graph, ok := v["@graph"].([]interface{}); ok {
			return graph
		}
		return []interface{}{v}
	}
	return nil
}

// isRecipeType checks if the @type field declares (or includes) Recipe.
func isRecipeType(typeField interface{}) bool {
	switch v := typeField.(type) {
	case string:
		return v == "Recipe"
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

// draftFromJSONLD maps a Recipe-typed JSON-LD object onto a draft.
func draftFromJSONLD(obj map[string]interface{}) *ai.RecipeDraft {
	title, _ := obj["name"].(string)

	return &ai.RecipeDraft{
		Title:        title,
		Ingredients:  parseIngredients(obj["recipeIngredient"]),
		Instructions: parseInstructions(obj["recipeInstructions"]),
		ImageURL:     parseImage(obj["image"]),
	}
}

// parseIngredients returns the ingredient list, defaulting to empty when
// absent. A missing ingredient list is never a scrape failure.
func parseIngredients(field interface{}) []string {
	items, ok := field.([]interface{})
	if !ok {
		return []string{}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			result = append(result, s)
		}
	}
	return result
}

// parseInstructions flattens instruction entries, which may be plain strings
// or HowToStep-like objects with a text or name field. Empty results are
// dropped.
func parseInstructions(field interface{}) []string {
	var result []string

	appendStep := func(item interface{}) {
		switch step := item.(type) {
		case string:
			if step != "" {
				result = append(result, step)
			}
		case map[string]interface{}:
			if text, ok := step["text"].(string); ok && text != "" {
				result = append(result, text)
			} else if name, ok := step["name"].(string); ok && name != "" {
				result = append(result, name)
			}
		}
	}

	switch v := field.(type) {
	case []interface{}:
		for _, item := range v {
			appendStep(item)
		}
	default:
		appendStep(v)
	}

	if result == nil {
		return []string{}
	}
	return result
}

// parseImage normalizes the image field: a string, an array (first entry),
// or an object with a url field.
func parseImage(field interface{}) string {
	switch v := field.(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			return parseImage(v[0])
		}
	case map[string]interface{}:
		if u, ok := v["url"].(string); ok {
			return u
		}
	}
	return ""
}
