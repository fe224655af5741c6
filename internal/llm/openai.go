package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o"
)

// GPT-4o pricing (per million tokens)
const (
	openaiInputPricePerMillion  = 2.50
	openaiOutputPricePerMillion = 10.00
)

// chatMessage and friends mirror the chat-completions wire format.
type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	httpClient *resty.Client
	model      string
}

// OpenAIOpts configures the client; zero values use the public API
// defaults.
type OpenAIOpts struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewOpenAIClient creates a chat-completions backend.
func NewOpenAIClient(opts OpenAIOpts) *OpenAIClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(opts.APIKey)

	return &OpenAIClient{httpClient: httpClient, model: model}
}

// Complete implements Client over the chat-completions API. Images are
// passed as image_url parts, inline bytes as data URLs, with the prompt's
// detail hint on every image.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (*Result, error) {
	parts := []chatContentPart{{Type: "text", Text: p.Text}}
	for _, img := range p.Images {
		url := img.URL
		if url == "" && len(img.Data) > 0 {
			mime := img.MIME
			if mime == "" {
				mime = "image/jpeg"
			}
			url = fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data))
		}
		parts = append(parts, chatContentPart{
			Type:     "image_url",
			ImageURL: &chatImageURL{URL: url, Detail: string(p.Detail)},
		})
	}

	body := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: parts}},
	}

	var parsed chatResponse
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/chat/completions")
	if err != nil {
		return nil, &APIError{Kind: KindRetryable, Msg: "transport failure", Err: err}
	}

	if res.IsError() {
		msg := res.Status()
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, &APIError{Kind: classifyStatus(res.StatusCode()), Status: res.StatusCode(), Msg: msg}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, &APIError{Kind: KindTerminal, Status: res.StatusCode(), Msg: "response contains no content"}
	}

	usage := Usage{
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		TotalTokens:  parsed.Usage.TotalTokens,
		CostUSD:      tokenCost(parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens, openaiInputPricePerMillion, openaiOutputPricePerMillion),
	}

	log.Info().
		Str("model", c.model).
		Int("imageCount", len(p.Images)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("vision llm call")

	return &Result{Text: parsed.Choices[0].Message.Content, Usage: usage}, nil
}

func tokenCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
