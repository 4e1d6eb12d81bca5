package inference

import (
	"cmp"
	"context"
	"fmt"

	"google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGemini creates a provider for the Gemini API.
func NewGemini(ctx context.Context, apiKey string, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{
		client: client,
		apiKey: apiKey,
		model:  cmp.Or(model, "gemini-2.5-flash"),
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Generate sends the prompts to Gemini and returns the concatenated text parts.
func (g *Gemini) Generate(ctx context.Context, req Request) (Response, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(Budget(req)),
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.JSON || req.Schema != nil {
		config.ResponseMIMEType = "application/json"
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return Response{}, Wrap(g.Name(), err)
	}

	text := result.Text()
	if text == "" {
		return Response{}, Wrap(g.Name(), ErrEmptyCompletion)
	}
	return Response{Content: text, Model: g.model}, nil
}
