package veilix

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aditinnerkar/veilix-app/graph"
)

func TestTruncateContext(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"fits", "short graph dump", 100, "short graph dump"},
		{"no limit", "anything at all", 0, "anything at all"},
		{"cuts at word boundary", "alpha beta gamma delta", 12, "alpha beta"},
		{"cuts at newline", "line one\nline two\nline three", 10, "line one"},
		{"no boundary inside limit", "unbroken", 4, "unbr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateContext(tt.text, tt.limit)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if len(got) > len(tt.text) {
				t.Errorf("truncation grew the text: %d > %d", len(got), len(tt.text))
			}
		})
	}
}

func TestSystemPromptIncludesGraph(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.Node{ID: "node_1", Type: "Vessel", Label: "Feed Tank"})
	g.AddNode(graph.Node{ID: "node_2", Type: "Pump", Label: "Feed Pump"})
	g.AddEdge(graph.Edge{ID: "flow_1", Source: "node_1", Target: "node_2", Type: "pipe"})

	e := &engine{cfg: DefaultConfig()}
	prompt := e.systemPrompt(g)

	if !strings.Contains(prompt, "P&ID") {
		t.Error("prompt missing the role instructions")
	}
	for _, want := range []string{"Feed Tank", "Feed Pump", "node_1 -- node_2 [pipe]"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing graph content %q", want)
		}
	}
}

func TestSystemPromptTruncatesLargeGraph(t *testing.T) {
	g := graph.New()
	for i := 0; i < 200; i++ {
		g.AddNode(graph.Node{ID: fmt.Sprintf("node_%d", i), Type: "Vessel", Label: strings.Repeat("x", 40)})
	}

	cfg := DefaultConfig()
	cfg.MaxContextChars = 500
	e := &engine{cfg: cfg}

	prompt := e.systemPrompt(g)
	if len(prompt) > len(chatInstructions)+2+500 {
		t.Errorf("prompt not truncated: %d chars", len(prompt))
	}
}
