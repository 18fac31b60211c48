// Package llm adapts a text-completion backend into the quality evaluator
// and follow-up generator the conversation engine consumes.
package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// Completer is a raw text-completion backend: one prompt in, one text out.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// GeminiCompleter implements Completer over the Gemini API.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
}

// NewGeminiCompleter creates a Completer backed by Gemini. The API key is
// read from GEMINI_API_KEY; with FATHOM_GCP_PROJECT and FATHOM_GCP_LOCATION
// set, Vertex AI is used instead.
func NewGeminiCompleter(ctx context.Context, modelName string) (*GeminiCompleter, error) {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	cfg := &genai.ClientConfig{}
	if project := os.Getenv("FATHOM_GCP_PROJECT"); project != "" {
		cfg.Project = project
		cfg.Location = os.Getenv("FATHOM_GCP_LOCATION")
		cfg.Backend = genai.BackendVertexAI
	} else {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		cfg.Backend = genai.BackendGeminiAPI
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY must be set (or FATHOM_GCP_PROJECT for Vertex AI)")
		}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiCompleter{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete implements Completer.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(maxTokens),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}

	return text, nil
}
