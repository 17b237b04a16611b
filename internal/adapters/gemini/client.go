// Package gemini wraps the Gemini API client shared by the PDF parser and the categorizer.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Generator is the part of *genai.Models used here; tests substitute a fake.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenerator creates a Gemini API client authenticated with apiKey.
func NewGenerator(ctx context.Context, apiKey string) (Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client.Models, nil
}

// GenerateJSON sends parts as one user turn and returns the JSON payload of the answer
// with any Markdown fences removed.
func GenerateJSON(ctx context.Context, gen Generator, model string, parts ...*genai.Part) (string, error) {
	if model == "" {
		model = DefaultModel
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := gen.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("gemini: empty response from model")
	}
	return CleanJSON(raw), nil
}

// CleanJSON strips ```json fences and any prose around the outermost JSON value.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(s, closer); end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}
