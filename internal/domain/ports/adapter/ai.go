package adapter

import "context"

// Message is one turn of an LLM prompt.
type Message struct {
	Role    string `json:"role"` // system|user|assistant
	Content string `json:"content"`
}

// Usage is the token accounting a provider reports for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the LLM port the generator talks to. An empty model
// selects the provider's default.
type AIServiceAdapter interface {
	// ListModels doubles as the provider health check.
	ListModels(ctx context.Context) ([]string, error)
	Chat(ctx context.Context, model string, messages []Message) (string, error)
	ChatWithUsage(ctx context.Context, model string, messages []Message) (string, Usage, error)
}
