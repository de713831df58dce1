//go:build integration && cgo

package veilix

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	ollamaURL   = "http://localhost:11434"
	chatModel   = "qwen3:8b"
	testTimeout = 5 * time.Minute
)

// shared holds the engine and session set up once for all tests.
var shared struct {
	once   sync.Once
	eng    Engine
	sessID string
	err    error
}

func ollamaAvailable() bool {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(ollamaURL + "/api/tags")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// warmModel sends a tiny request to force Ollama to load the model into memory.
func warmModel(model string) error {
	body := fmt.Sprintf(`{"model":%q,"messages":[{"role":"user","content":"hi"}],"stream":false,"options":{"num_predict":1}}`, model)
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(ollamaURL+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// setupShared creates the shared engine and session once.
func setupShared(t *testing.T) {
	t.Helper()
	shared.once.Do(func() {
		if !ollamaAvailable() {
			shared.err = fmt.Errorf("ollama not available")
			return
		}

		t.Log("Warming up chat model...")
		if err := warmModel(chatModel); err != nil {
			shared.err = fmt.Errorf("warming chat model: %w", err)
			return
		}

		dir, err := os.MkdirTemp("", "veilix-integration-*")
		if err != nil {
			shared.err = err
			return
		}

		cfg := Config{
			DBPath:  filepath.Join(dir, "integration_test.db"),
			DataDir: filepath.Join(dir, "data"),
			Chat: LLMConfig{
				Provider: "ollama",
				Model:    chatModel,
				BaseURL:  ollamaURL,
			},
		}
		eng, err := New(cfg)
		if err != nil {
			shared.err = fmt.Errorf("creating engine: %w", err)
			return
		}
		shared.eng = eng

		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		t.Log("Creating test session...")
		sess, err := eng.CreateSession(ctx, "plant.xml", strings.NewReader(testDocument))
		if err != nil {
			shared.err = fmt.Errorf("creating session: %w", err)
			eng.Close()
			return
		}
		shared.sessID = sess.ID
		t.Logf("Session created: %s (%d components, %d connections)",
			sess.ID, sess.NodeCount, sess.EdgeCount)
	})
}

func skipOrSetup(t *testing.T) {
	t.Helper()
	setupShared(t)
	if shared.err != nil {
		t.Skipf("shared setup failed: %v", shared.err)
	}
}

// --- Engine creation test ---

func TestIntegrationEngineNew(t *testing.T) {
	if !ollamaAvailable() {
		t.Skip("Ollama not reachable")
	}

	dir := t.TempDir()
	cfg := Config{
		DBPath:  filepath.Join(dir, "test.db"),
		DataDir: filepath.Join(dir, "data"),
		Chat: LLMConfig{
			Provider: "ollama",
			Model:    chatModel,
			BaseURL:  ollamaURL,
		},
	}

	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer eng.Close()

	sessions, err := eng.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected 0 sessions in fresh DB, got %d", len(sessions))
	}
}

// --- Chat tests ---

func TestIntegrationChatComponentCount(t *testing.T) {
	skipOrSetup(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	res, err := shared.eng.Chat(ctx, shared.sessID,
		"How many components does the diagram contain?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Reply == "" {
		t.Fatal("Chat returned empty reply")
	}
	if res.Model == "" {
		t.Error("expected Model to be set")
	}

	lower := strings.ToLower(res.Reply)
	if !strings.Contains(lower, "3") && !strings.Contains(lower, "three") {
		t.Errorf("answer should mention the three components, got: %s", res.Reply)
	}

	t.Logf("Answer: %s", res.Reply)
}

func TestIntegrationChatComponentNames(t *testing.T) {
	skipOrSetup(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	res, err := shared.eng.Chat(ctx, shared.sessID,
		"What are the components in this diagram called?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	lower := strings.ToLower(res.Reply)
	hasTank := strings.Contains(lower, "feed tank") || strings.Contains(lower, "t-100")
	hasPump := strings.Contains(lower, "feed pump") || strings.Contains(lower, "p-100")
	if !hasTank || !hasPump {
		t.Errorf("answer should name the tank and the pump, got: %s", res.Reply)
	}

	t.Logf("Answer: %s", res.Reply)
}

func TestIntegrationChatConnectivity(t *testing.T) {
	skipOrSetup(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	res, err := shared.eng.Chat(ctx, shared.sessID,
		"Which components is the feed pump directly connected to?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	lower := strings.ToLower(res.Reply)
	hasTank := strings.Contains(lower, "tank") || strings.Contains(lower, "t-100")
	hasValve := strings.Contains(lower, "valve") || strings.Contains(lower, "v-100")
	if !hasTank || !hasValve {
		t.Errorf("answer should mention both neighbours of the pump, got: %s", res.Reply)
	}

	t.Logf("Answer: %s", res.Reply)
}

func TestIntegrationChatFollowUp(t *testing.T) {
	skipOrSetup(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	first, err := shared.eng.Chat(ctx, shared.sessID,
		"Which single component in the diagram is a pump? Answer with its tag name only.")
	if err != nil {
		t.Fatalf("first Chat: %v", err)
	}
	t.Logf("First answer: %s", first.Reply)

	// The follow-up only makes sense if the history reached the model.
	second, err := shared.eng.Chat(ctx, shared.sessID,
		"What type does the graph record for that component?")
	if err != nil {
		t.Fatalf("follow-up Chat: %v", err)
	}
	if second.Reply == "" {
		t.Fatal("empty follow-up reply")
	}

	t.Logf("Follow-up answer: %s", second.Reply)
}
