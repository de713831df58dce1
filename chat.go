package veilix

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aditinnerkar/veilix-app/graph"
	"github.com/aditinnerkar/veilix-app/llm"
)

// ChatResult is the engine's answer to one chat turn.
type ChatResult struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

// chatInstructions frames every conversation. The session's graph dump is
// appended so the model answers from the diagram rather than from prior
// knowledge.
const chatInstructions = `You are an assistant answering questions about a piping and instrumentation diagram (P&ID). The diagram has been converted to a property graph, listed below. Components are nodes; pipes and other process connections are edges. Answer using only what the graph contains, and say so plainly when the graph does not hold the answer.`

// Chat answers a question about a session's graph. The provider sees the
// graph dump as system context plus the most recent history, and both
// sides of the exchange are persisted.
func (e *engine) Chat(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	g, err := e.sessionGraph(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history, err := e.store.RecentMessages(ctx, sessionID, e.cfg.MaxHistoryMessages)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: e.systemPrompt(g)})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: message})

	resp, err := e.provider.Chat(ctx, llm.ChatRequest{
		Model:    e.cfg.Chat.Model,
		Messages: msgs,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatFailed, err)
	}

	// History is best-effort: a failed write loses context for later
	// turns but must not lose the answer we already have.
	if err := e.store.AddMessage(ctx, sessionID, "user", message); err != nil {
		slog.Warn("chat: storing user message failed", "session", sessionID, "error", err)
	}
	if err := e.store.AddMessage(ctx, sessionID, "assistant", resp.Content); err != nil {
		slog.Warn("chat: storing assistant message failed", "session", sessionID, "error", err)
	}
	if err := e.store.TouchSession(ctx, sessionID); err != nil {
		slog.Warn("chat: touching session failed", "session", sessionID, "error", err)
	}

	return &ChatResult{Reply: resp.Content, Model: resp.Model}, nil
}

// systemPrompt assembles the chat instructions plus the session's graph
// dump, truncated to the configured context budget.
func (e *engine) systemPrompt(g *graph.Graph) string {
	return chatInstructions + "\n\n" + truncateContext(g.Text(), e.cfg.MaxContextChars)
}

// truncateContext cuts text to limit characters on a word or line
// boundary so the dump does not end mid-token.
func truncateContext(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := strings.LastIndexAny(text[:limit], " \n")
	if cut <= 0 {
		cut = limit
	}
	return text[:cut]
}
