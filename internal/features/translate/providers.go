package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	googleTranslateURL = "https://translation.googleapis.com/language/translate/v2"
	defaultGeminiModel = "gemini-2.0-flash"
)

// Result is one translated text.
type Result struct {
	Text   string
	Source string
}

// Translator turns texts into target. source may be empty for
// auto-detection. Results are in input order.
type Translator interface {
	Name() string
	Translate(ctx context.Context, texts []string, target, source string) ([]Result, error)
}

// =============================================================================
// Google Cloud Translation v2 (REST)
// =============================================================================

type GoogleTranslator struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewGoogleTranslator(apiKey string, timeout time.Duration) *GoogleTranslator {
	return &GoogleTranslator{
		apiKey:     apiKey,
		endpoint:   googleTranslateURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *GoogleTranslator) Name() string { return "google" }

type googleRequest struct {
	Q      []string `json:"q"`
	Target string   `json:"target"`
	Source string   `json:"source,omitempty"`
	Format string   `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GoogleTranslator) Translate(ctx context.Context, texts []string, target, source string) ([]Result, error) {
	payload, err := json.Marshal(googleRequest{Q: texts, Target: target, Source: source, Format: "text"})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// Keyed by header so transport errors, which quote the URL, never carry it.
	req.Header.Set("X-Goog-Api-Key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}
	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("google translate: status %d: %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("google translate: %d %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google translate: status %d", resp.StatusCode)
	}
	if len(parsed.Data.Translations) != len(texts) {
		return nil, fmt.Errorf("google translate: got %d translations for %d texts", len(parsed.Data.Translations), len(texts))
	}

	out := make([]Result, len(texts))
	for i, t := range parsed.Data.Translations {
		src := t.DetectedSourceLanguage
		if src == "" {
			src = source
		}
		out[i] = Result{Text: t.TranslatedText, Source: src}
	}
	return out, nil
}

// =============================================================================
// Gemini (genai) fallback
// =============================================================================

// generator is the slice of genai.Models the fallback needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiTranslator struct {
	models generator
	model  string
}

func NewGeminiTranslator(ctx context.Context, apiKey, model string) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiTranslator(client.Models, model), nil
}

func newGeminiTranslator(models generator, model string) *GeminiTranslator {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiTranslator{models: models, model: model}
}

func (g *GeminiTranslator) Name() string { return "gemini" }

func (g *GeminiTranslator) Translate(ctx context.Context, texts []string, target, source string) ([]Result, error) {
	input, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}

	from := "the detected source language"
	if source != "" {
		from = source
	}
	prompt := fmt.Sprintf(
		"Translate each string in this JSON array from %s into the language with BCP-47 code %q. "+
			"Keep emoji, hashtags, URLs and line breaks. Reply with only a JSON array of the same length.\n\n%s",
		from, target, input)

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini translate: %w", err)
	}

	var translated []string
	if err := json.Unmarshal([]byte(stripFence(resp.Text())), &translated); err != nil {
		return nil, fmt.Errorf("gemini translate: malformed reply: %w", err)
	}
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("gemini translate: got %d translations for %d texts", len(translated), len(texts))
	}

	out := make([]Result, len(texts))
	for i, t := range translated {
		out[i] = Result{Text: t, Source: source}
	}
	return out, nil
}

// stripFence drops a ```json fence some model replies still carry.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
