package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func TestGeminiGenerateText(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Restock "}, {Text: "BAG-3300"}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 4,
			TotalTokenCount:      16,
		},
	}}
	p := NewGeminiProviderWithModels(gen, "")

	resp, err := p.GenerateText(context.Background(), Request{
		SystemPrompt: "be brief",
		Messages: []Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "what should I restock?"},
		},
		Temperature: 0.2,
		MaxTokens:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Restock BAG-3300", resp.Content)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	assert.Equal(t, geminiDefaultModel, gen.model)
	require.Len(t, gen.contents, 3)
	assert.Equal(t, "model", gen.contents[1].Role)
	assert.Equal(t, "be brief", gen.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(100), gen.config.MaxOutputTokens)
	require.NotNil(t, gen.config.Temperature)
	assert.InDelta(t, 0.2, *gen.config.Temperature, 1e-6)
}

func TestGeminiErrors(t *testing.T) {
	_, err := NewGeminiProviderWithModels(&fakeGenerator{err: errors.New("quota")}, "").
		GenerateText(context.Background(), UserPrompt("hi"))
	assert.ErrorContains(t, err, "gemini generate content")

	_, err = NewGeminiProviderWithModels(&fakeGenerator{resp: &genai.GenerateContentResponse{}}, "").
		GenerateText(context.Background(), UserPrompt("hi"))
	assert.ErrorContains(t, err, "no candidates")
}

func TestGeminiIgnoresTools(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "ok"}}}}},
	}}
	p := NewGeminiProviderWithModels(gen, "gemini-1.5-flash")
	assert.False(t, p.SupportsTools())

	resp, err := p.GenerateWithTools(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Tools:    []Tool{{Name: "sales_report"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Empty(t, resp.ToolCalls)
	assert.Equal(t, "gemini-1.5-flash", gen.model)
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
