package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/souschef-app/souschef-api/internal/config"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/util"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	geminiVisionModel = "gemini-2.5-flash"
	geminiVoiceModel  = "gemini-2.5-flash-lite"

	// Attempt cap for overloaded responses: first try plus two retries,
	// with delays of 1s then 2s between them.
	maxExtractionAttempts = 3

	fallbackMaxOutputTokens = 2048
)

// Base delay between overload retries. Variable so tests can shorten it.
var extractionBackoffBase = 1 * time.Second

// GeminiProvider implements VisionProvider and VoiceProvider using the
// Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	prompts *config.Prompts
}

// NewGeminiProvider creates a new GeminiProvider with the given API key and
// prompt configuration.
func NewGeminiProvider(ctx context.Context, apiKey string, prompts *config.Prompts, opts ...option.ClientOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	// All HTTP traffic goes through overloadTransport so overloaded
	// responses reach generateWithRetry unretried.
	hc := &http.Client{
		Transport: &overloadTransport{apiKey: apiKey, base: http.DefaultTransport},
	}
	clientOpts := append([]option.ClientOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(hc),
	}, opts...)

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, prompts: prompts}, nil
}

// overloadedBody replaces the upstream error body when a 503 is rewritten.
// The 429 code must appear in the body as well as the status line; error
// classification downstream reads the body code.
const overloadedBody = `{"error": {"code": 429, "message": "model overloaded", "status": "RESOURCE_EXHAUSTED"}}`

// overloadTransport injects the API key and rewrites HTTP 503 responses to
// 429 before the client's generated call layer sees them. That layer carries
// its own retry-on-503 schedule (up to a 600s call timeout) which would
// multiply upstream requests underneath every attempt; 429 is never retried
// there, so each GenerateContent call maps to exactly one upstream request
// and the attempt cap in generateWithRetry holds. 429 still classifies as
// overloaded.
type overloadTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *overloadTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("x-goog-api-key", t.apiKey)

	resp, err := t.base.RoundTrip(clone)
	if err != nil || resp.StatusCode != http.StatusServiceUnavailable {
		return resp, err
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resp.StatusCode = http.StatusTooManyRequests
	resp.Status = "429 Too Many Requests"
	resp.Body = io.NopCloser(strings.NewReader(overloadedBody))
	resp.ContentLength = int64(len(overloadedBody))
	resp.Header.Set("Content-Type", "application/json")
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	return resp, nil
}

// Close releases the underlying client connection.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// ExtractRecipe runs cookbook-page extraction. All pages go out as inline
// JPEG parts in a single request; if the endpoint rejects the inline payload
// and signed URLs are available, the request is re-issued once referencing
// the pages by URL with deterministic generation settings.
func (p *GeminiProvider) ExtractRecipe(ctx context.Context, req ExtractionRequest) (*RecipeDraft, error) {
	if len(req.Pages) == 0 {
		return nil, errors.New("no pages provided")
	}

	prompt := p.prompts.Extraction.Inline

	parts := make([]genai.Part, 0, len(req.Pages)+1)
	parts = append(parts, genai.Text(prompt))
	for _, page := range req.Pages {
		parts = append(parts, genai.ImageData("jpeg", page))
	}

	model := p.client.GenerativeModel(geminiVisionModel)
	resp, err := p.generateWithRetry(ctx, model, parts)

	var rejected *TransportRejectedError
	if errors.As(err, &rejected) && len(req.SignedURLs) > 0 {
		logger.Get().Warn("inline image payload rejected, falling back to signed URLs",
			zap.Int("pages", len(req.Pages)), zap.Error(err))
		resp, err = p.extractViaSignedURLs(ctx, prompt, req.SignedURLs)
	}
	if err != nil {
		return nil, err
	}

	return parseRecipeDraft(resp)
}

// extractViaSignedURLs is the degraded strategy: page URLs embedded in the
// prompt text, temperature 0 and a capped output length so the JSON comes
// back complete, and a JSON response MIME type. Issued exactly once.
func (p *GeminiProvider) extractViaSignedURLs(ctx context.Context, prompt string, urls []string) (*genai.GenerateContentResponse, error) {
	model := p.client.GenerativeModel(geminiVisionModel)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(fallbackMaxOutputTokens)
	model.ResponseMIMEType = "application/json"

	parts := make([]genai.Part, 0, len(urls)+1)
	parts = append(parts, genai.Text(prompt))
	for _, u := range urls {
		ref, err := config.RenderPrompt(p.prompts.Extraction.SignedURL, map[string]interface{}{
			"URL": u,
		})
		if err != nil {
			return nil, fmt.Errorf("render signed-url prompt: %w", err)
		}
		parts = append(parts, genai.Text(ref))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	return resp, nil
}

// generateWithRetry issues the request, retrying only overloaded responses.
// Delay before attempt n+1 is extractionBackoffBase << n.
func (p *GeminiProvider) generateWithRetry(ctx context.Context, model *genai.GenerativeModel, parts []genai.Part) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt < maxExtractionAttempts; attempt++ {
		resp, err := model.GenerateContent(ctx, parts...)
		if err == nil {
			return resp, nil
		}

		classified := classifyGeminiError(err)
		var overloaded *UpstreamOverloadedError
		if !errors.As(classified, &overloaded) {
			return nil, classified
		}

		lastErr = classified
		if attempt == maxExtractionAttempts-1 {
			break
		}

		wait := extractionBackoffBase << attempt
		logger.Get().Warn("gemini overloaded, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("wait", wait), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, fmt.Errorf("gemini: exhausted %d attempts: %w", maxExtractionAttempts, lastErr)
}

// InterpretVoice sends the audio clip with the step/recipe context and
// parses the structured reply. Voice turns are interactive, so there is no
// retry here; any failure is final for the turn.
func (p *GeminiProvider) InterpretVoice(ctx context.Context, req VoiceRequest) (*VoiceTurn, error) {
	if len(req.Audio) == 0 {
		return nil, errors.New("audio data is empty")
	}

	prompt, err := config.RenderPrompt(p.prompts.Voice.Interpret, map[string]interface{}{
		"CurrentStep":   req.CurrentStep,
		"RecipeContext": req.RecipeContext,
	})
	if err != nil {
		return nil, fmt.Errorf("render voice prompt: %w", err)
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "audio/m4a"
	}

	model := p.client.GenerativeModel(geminiVoiceModel)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: req.Audio},
	)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	jsonStr, err := util.ExtractJSONObject(text)
	if err != nil {
		return nil, &MalformedResponseError{Reason: err.Error()}
	}

	var raw struct {
		Action string `json:"action"`
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, &MalformedResponseError{Reason: "voice response is not valid JSON: " + err.Error()}
	}

	return &VoiceTurn{
		Action: ParseVoiceAction(raw.Action),
		Answer: raw.Answer,
	}, nil
}

// responseText pulls the first text part out of a Gemini response. Absence
// of candidates or a non-text part is a malformed response.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &MalformedResponseError{Reason: "no candidates in response"}
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", &MalformedResponseError{Reason: "response part is not text"}
	}
	if string(text) == "" {
		return "", &MalformedResponseError{Reason: "empty text in response"}
	}

	return string(text), nil
}

// parseRecipeDraft validates raw extraction output into a RecipeDraft.
// The model may wrap the JSON in prose or code fences; the unreadable
// sentinel is a terminal failure, not a parse error.
func parseRecipeDraft(resp *genai.GenerateContentResponse) (*RecipeDraft, error) {
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	jsonStr, err := util.ExtractJSONObject(text)
	if err != nil {
		return nil, &MalformedResponseError{Reason: err.Error()}
	}

	var sentinel struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &sentinel); err == nil && sentinel.Error == "unreadable" {
		return nil, ErrUnreadableContent
	}

	var draft RecipeDraft
	if err := json.Unmarshal([]byte(jsonStr), &draft); err != nil {
		return nil, &MalformedResponseError{Reason: "extraction response is not valid JSON: " + err.Error()}
	}

	draft.ApplyDefaults()
	return &draft, nil
}
