package llmprovider

import "context"

// Provider defines the interface for LLM completion providers.
type Provider interface {
	// GenerateContent sends a generation request and returns a response.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider name (e.g. "openai", "deepseek").
	Name() string

	// Model returns the model being used.
	Model() string
}

// Request is a normalized text-completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Message is one conversation message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Response is a normalized completion response.
type Response struct {
	Text         string
	ProviderName string
	ModelName    string
	Usage        Usage
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
