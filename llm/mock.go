package llm

import (
	"context"
	"fmt"
)

// mockProvider is a deterministic offline provider. It answers without any
// network access, so keyless deployments and tests keep a working chat
// loop.
type mockProvider struct {
	model string
}

// NewMock creates the offline mock provider.
func NewMock(cfg Config) Provider {
	model := cfg.Model
	if model == "" {
		model = "mock"
	}
	return &mockProvider{model: model}
}

func (p *mockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lastUser string
	hasContext := false
	for i := len(req.Messages) - 1; i >= 0; i-- {
		m := req.Messages[i]
		if m.Role == "user" && lastUser == "" {
			lastUser = m.Content
		}
		if m.Role == "system" && m.Content != "" {
			hasContext = true
		}
	}

	reply := "No language model is configured; this is the built-in mock provider."
	if lastUser != "" {
		reply += fmt.Sprintf(" You asked: %q.", lastUser)
	}
	if hasContext {
		reply += " The session's graph context was received."
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	return &ChatResponse{
		Content:      reply,
		Model:        model,
		FinishReason: "stop",
	}, nil
}
