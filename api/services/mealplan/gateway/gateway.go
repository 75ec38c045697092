package gateway

import "context"

// CompletionRequest carries one prompt-completion call's parameters.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// CompletionGateway abstracts the chat-completion API. Complete returns the
// raw assistant text; an empty string with a nil error means the service
// produced no content.
type CompletionGateway interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
