package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini 2.5 Flash pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30
	geminiOutputPricePerMillion = 2.50
)

// GeminiClient is the Gemini backend for multimodal completion.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-based backend using the given API key.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete implements Client. URL images are passed as file references,
// inline bytes as blobs. Gemini has no per-image detail knob; the detail
// hint only affects the OpenAI-compatible backend.
func (g *GeminiClient) Complete(ctx context.Context, p Prompt) (*Result, error) {
	parts := []*genai.Part{genai.NewPartFromText(p.Text)}
	for _, img := range p.Images {
		mime := img.MIME
		if mime == "" {
			mime = "image/jpeg"
		}
		if img.URL != "" {
			parts = append(parts, genai.NewPartFromURI(img.URL, mime))
			continue
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: mime},
		})
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, &APIError{Kind: KindTerminal, Msg: "response contains no content"}
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = tokenCost(usage.InputTokens, usage.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.model).
		Int("imageCount", len(p.Images)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("vision llm call")

	return &Result{Text: result.Text(), Usage: usage}, nil
}

// classifyGeminiError maps SDK failures onto the shared error taxonomy
// using the embedded HTTP status when available.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Kind: classifyStatus(apiErr.Code), Status: apiErr.Code, Msg: apiErr.Message, Err: err}
	}
	return &APIError{Kind: KindRetryable, Msg: "transport failure", Err: err}
}
