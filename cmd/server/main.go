package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	veilix "github.com/aditinnerkar/veilix-app"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addrFlag := flag.String("addr", "", "Listen address (default :8080)")
	dbFlag := flag.String("db", "", "SQLite database path")
	dataFlag := flag.String("data", "", "Session data directory")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := veilix.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = veilix.LoadConfig(*configPath)
		if err != nil {
			slog.Error("loading config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	// Override from environment variables.
	if v := os.Getenv("VEILIX_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("VEILIX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("VEILIX_CHAT_PROVIDER"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := os.Getenv("VEILIX_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("VEILIX_CHAT_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("VEILIX_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}

	// Fallback: check well-known provider env vars for API keys.
	if cfg.Chat.APIKey == "" {
		switch cfg.Chat.Provider {
		case "openai":
			cfg.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.Chat.APIKey = os.Getenv("GROQ_API_KEY")
		case "openrouter":
			cfg.Chat.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}

	// Flags win over environment and file.
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}
	if *dataFlag != "" {
		cfg.DataDir = *dataFlag
	}
	addr := *addrFlag
	if addr == "" {
		addr = os.Getenv("VEILIX_ADDR")
	}
	if addr == "" {
		addr = ":8080"
	}

	token := os.Getenv("VEILIX_TOKEN")
	corsOrigins := os.Getenv("VEILIX_CORS_ORIGINS")

	engine, err := veilix.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h := newHandler(engine, int64(cfg.MaxUploadMB)<<20)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /sessions", h.handleCreateSession)
	mux.HandleFunc("GET /sessions", h.handleListSessions)
	mux.HandleFunc("GET /sessions/{id}", h.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", h.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/chat", h.handleChat)
	mux.HandleFunc("GET /sessions/{id}/graph", h.handleGraph)
	mux.HandleFunc("GET /sessions/{id}/analysis/components", h.handleAnalyzeComponents)
	mux.HandleFunc("GET /sessions/{id}/analysis/flows", h.handleAnalyzeFlows)
	mux.HandleFunc("GET /sessions/{id}/graphml", h.handleGraphML)
	mux.HandleFunc("GET /sessions/{id}/inventory", h.handleInventory)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(token, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // chat calls can outlive any fixed write deadline
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", addr, "provider", cfg.Chat.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
