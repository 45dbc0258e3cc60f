// Package llm adapts the google genai client to the TextCompleter port.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	genai "google.golang.org/genai"

	"github.com/oselabs/sleuth/internal/domain"
)

// Gemini is a thin wrapper around the official genai client.
type Gemini struct {
	cli    *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini builds the adapter. A missing API key is a fatal configuration
// error: the task could never attempt work, and degrading silently would
// mask the misconfiguration as a transient incident.
func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key: %w", domain.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{cli: cli, model: model, logger: logger}, nil
}

func (g *Gemini) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	full := systemPrompt + "\n\n" + userPrompt
	g.logger.Debug("llm request", "model", g.model, "bytes", len(full))

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return "", domain.NewBackendError("gemini", "generate", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", domain.NewBackendError("gemini", "generate", domain.ErrMalformedAnswer)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
