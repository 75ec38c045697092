package openaigw

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	gw "github.com/rvalette/mealmind/api/services/mealplan/gateway"
)

// Client is the go-openai backed implementation of the completion gateway.
// It works against any OpenAI-compatible endpoint (OpenRouter in production).
type Client struct {
	api *openai.Client
}

// New returns a CompletionGateway for the given key and base URL.
func New(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{api: openai.NewClientWithConfig(cfg)}
}

func (c *Client) Complete(ctx context.Context, req gw.CompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
