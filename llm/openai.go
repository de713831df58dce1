package llm

import "context"

// openAIProvider implements Provider for the OpenAI API.
//
// Supported chat models:
//
//	gpt-4o        — default, strong general reasoning
//	gpt-4o-mini   — cheaper, faster
//	gpt-4.1       — long-context
//
// API key: set via config, OPENAI_API_KEY env var, or the server's
// VEILIX_CHAT_API_KEY env var.
type openAIProvider struct {
	base openAICompatClient
}

// NewOpenAI creates a provider for OpenAI.
func NewOpenAI(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &openAIProvider{base: newOpenAICompatClient(cfg)}
}

func (p *openAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}
