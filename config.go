package veilix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Veilix engine.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Defaults to "veilix.db" in the working directory.
	DBPath string `json:"db_path" yaml:"db_path"`

	// DataDir is the directory where uploaded documents and exported
	// GraphML files are kept, one pair per session.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Chat configures the LLM provider used to answer questions about
	// extracted graphs.
	Chat LLMConfig `json:"chat" yaml:"chat"`

	// SessionTTLHours is how long an idle session survives before the
	// cleanup sweep removes it.
	SessionTTLHours int `json:"session_ttl_hours" yaml:"session_ttl_hours"`

	// CleanupIntervalMinutes is how often the expiry sweep runs.
	CleanupIntervalMinutes int `json:"cleanup_interval_minutes" yaml:"cleanup_interval_minutes"`

	// MaxHistoryMessages is the number of prior chat messages replayed
	// to the model on each turn.
	MaxHistoryMessages int `json:"max_history_messages" yaml:"max_history_messages"`

	// MaxContextChars caps the graph dump embedded in the chat system
	// prompt so large diagrams fit the model's context window.
	MaxContextChars int `json:"max_context_chars" yaml:"max_context_chars"`

	// MaxUploadMB caps the size of uploaded documents.
	MaxUploadMB int `json:"max_upload_mb" yaml:"max_upload_mb"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // ollama, lmstudio, openrouter, openai, groq, xai, gemini, custom, mock
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with sensible defaults for a single-host
// deployment.
func DefaultConfig() Config {
	return Config{
		DBPath:  "veilix.db",
		DataDir: "veilix_data",
		Chat: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		SessionTTLHours:        24,
		CleanupIntervalMinutes: 60,
		MaxHistoryMessages:     6,
		MaxContextChars:        50000,
		MaxUploadMB:            20,
	}
}

// LoadConfig reads a configuration file, YAML or JSON by extension, on top
// of the defaults. Fields absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}

// applyDefaults fills zero values with the defaults. The chat model is
// left alone so each provider can supply its own default model.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = def.Chat.Provider
	}
	if c.SessionTTLHours == 0 {
		c.SessionTTLHours = def.SessionTTLHours
	}
	if c.CleanupIntervalMinutes == 0 {
		c.CleanupIntervalMinutes = def.CleanupIntervalMinutes
	}
	if c.MaxHistoryMessages == 0 {
		c.MaxHistoryMessages = def.MaxHistoryMessages
	}
	if c.MaxContextChars == 0 {
		c.MaxContextChars = def.MaxContextChars
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = def.MaxUploadMB
	}
}

// validate rejects values no deployment can mean.
func (c *Config) validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"session_ttl_hours", c.SessionTTLHours},
		{"cleanup_interval_minutes", c.CleanupIntervalMinutes},
		{"max_history_messages", c.MaxHistoryMessages},
		{"max_context_chars", c.MaxContextChars},
		{"max_upload_mb", c.MaxUploadMB},
	}
	for _, ch := range checks {
		if ch.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, ch.name)
		}
	}
	return nil
}

// sessionTTL returns the idle lifetime of a session.
func (c Config) sessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// cleanupInterval returns how often the expiry sweep runs.
func (c Config) cleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}
