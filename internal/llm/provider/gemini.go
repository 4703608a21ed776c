package provider

import (
	"context"
	"fmt"
	"math"
	"os"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// ContentGenerator is the subset of genai.Models the provider uses
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements Provider on the Gemini API. Tool calling is not
// wired, so it always answers in text.
type GeminiProvider struct {
	models ContentGenerator
	model  string
}

// GeminiConfig configures a Gemini provider
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGeminiProvider creates a provider backed by the Google Gen AI SDK
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewGeminiProviderWithModels(client.Models, cfg.Model), nil
}

// NewGeminiProviderWithModels creates a provider over a custom generator (useful for testing)
func NewGeminiProviderWithModels(models ContentGenerator, model string) *GeminiProvider {
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiProvider{models: models, model: model}
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// SupportsTools returns false
func (p *GeminiProvider) SupportsTools() bool {
	return false
}

// GenerateText creates a completion
func (p *GeminiProvider) GenerateText(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 && req.MaxTokens <= math.MaxInt32 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	resp, err := p.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	var content string
	if c := resp.Candidates[0].Content; c != nil {
		for _, part := range c.Parts {
			content += part.Text
		}
	}

	out := &Response{Content: content}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// GenerateWithTools ignores the tools and generates text
func (p *GeminiProvider) GenerateWithTools(ctx context.Context, req Request) (*Response, error) {
	req.Tools = nil
	return p.GenerateText(ctx, req)
}
