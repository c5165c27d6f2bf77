package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiClient describes images with Google's Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGeminiClient creates a Gemini client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiClient, error) {
	return NewGeminiClientWithBaseURL(ctx, apiKey, model, maxTokens, "")
}

// NewGeminiClientWithBaseURL creates a Gemini client that talks to baseURL
// instead of the public endpoint. Useful for testing.
func NewGeminiClientWithBaseURL(ctx context.Context, apiKey, model string, maxTokens int, baseURL string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, maxTokens: maxTokens}, nil
}

// Describe sends the instruction followed by the image as inline data.
func (g *GeminiClient) Describe(ctx context.Context, image []byte, mediaType, instruction string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(instruction),
		{InlineData: &genai.Blob{Data: image, MIMEType: mediaType}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	var genCfg *genai.GenerateContentConfig
	if g.maxTokens > 0 {
		genCfg = &genai.GenerateContentConfig{
			MaxOutputTokens: int32(g.maxTokens),
			// Thinking tokens count against the output budget
			ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini")
	}

	if result.UsageMetadata != nil {
		log.Info().
			Str("model", g.model).
			Int32("inputTokens", result.UsageMetadata.PromptTokenCount).
			Int32("outputTokens", result.UsageMetadata.CandidatesTokenCount).
			Msg("vision llm call")
	}

	return result.Text(), nil
}
