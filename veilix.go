// Package veilix turns P&ID interchange documents into queryable property
// graphs. Each uploaded document becomes a session: the graph is extracted,
// exported to GraphML, and kept available for chat, analysis, and
// spreadsheet reporting until the session expires or is deleted.
package veilix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aditinnerkar/veilix-app/dexpi"
	"github.com/aditinnerkar/veilix-app/export"
	"github.com/aditinnerkar/veilix-app/graph"
	"github.com/aditinnerkar/veilix-app/llm"
	"github.com/aditinnerkar/veilix-app/store"
	"github.com/google/uuid"
)

// Engine is the main entry point for the extraction and chat service.
type Engine interface {
	// CreateSession extracts a graph from an uploaded document, exports
	// it to GraphML, and registers a new session around it.
	CreateSession(ctx context.Context, filename string, r io.Reader) (*Session, error)

	// Session returns a single session's summary.
	Session(ctx context.Context, id string) (*Session, error)

	// ListSessions returns all live sessions.
	ListSessions(ctx context.Context) ([]Session, error)

	// DeleteSession removes a session, its chat history, and its files.
	DeleteSession(ctx context.Context, id string) error

	// Chat answers a question about a session's graph.
	Chat(ctx context.Context, sessionID, message string) (*ChatResult, error)

	// GraphData returns the full graph plus summary statistics.
	GraphData(ctx context.Context, sessionID string) (*GraphData, error)

	// AnalyzeComponents summarises the component population of a graph.
	AnalyzeComponents(ctx context.Context, sessionID string) (*ComponentReport, error)

	// AnalyzeFlows summarises the connections of a graph.
	AnalyzeFlows(ctx context.Context, sessionID string) (*FlowReport, error)

	// GraphMLPath returns the path of the session's GraphML file,
	// regenerating it if it is missing.
	GraphMLPath(ctx context.Context, sessionID string) (string, error)

	// WriteInventory writes the session's component inventory workbook.
	WriteInventory(ctx context.Context, sessionID string, w io.Writer) error

	// Close stops the expiry sweep and shuts down the engine.
	Close() error
}

// Session is the public view of a stored session.
type Session struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
	CreatedAt  string `json:"created_at"`
	LastActive string `json:"last_active"`
}

// GraphData carries the full graph of a session plus summary statistics.
type GraphData struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
	Stats GraphStats   `json:"stats"`
}

// GraphStats summarises a session's graph.
type GraphStats struct {
	Nodes               int     `json:"nodes"`
	Edges               int     `json:"edges"`
	Density             float64 `json:"density"`
	ConnectedComponents int     `json:"connected_components"`
}

// ComponentReport summarises the component population of a graph.
type ComponentReport struct {
	Total         int               `json:"total"`
	Types         []graph.TypeCount `json:"types"`
	Components    []graph.Node      `json:"components"`
	MostConnected []graph.Degree    `json:"most_connected"`
	Summary       string            `json:"summary"`
}

// FlowReport summarises the connections of a graph.
type FlowReport struct {
	Total   int               `json:"total"`
	Types   []graph.TypeCount `json:"types"`
	Flows   []graph.Edge      `json:"flows"`
	Summary string            `json:"summary"`
}

// topConnectedCount is how many high-degree components a component
// report lists.
const topConnectedCount = 5

// Option configures the engine beyond its Config.
type Option func(*engine)

// WithLoader routes extraction through an external DEXPI loader before
// the built-in strategies.
func WithLoader(l dexpi.Loader) Option {
	return func(e *engine) { e.loader = l }
}

// WithProvider replaces the configured chat provider. Used mainly by
// tests to inject a deterministic provider.
func WithProvider(p llm.Provider) Option {
	return func(e *engine) { e.provider = p }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	store    *store.Store
	provider llm.Provider
	loader   dexpi.Loader

	mu     sync.Mutex
	graphs map[string]*graph.Graph

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a new Veilix engine with the given configuration.
func New(cfg Config, opts ...Option) (Engine, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		s.Close()
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	e := &engine{
		cfg:    cfg,
		store:  s,
		graphs: make(map[string]*graph.Graph),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(e)
	}

	if e.provider == nil {
		p, err := chatProvider(cfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating chat provider: %w", err)
		}
		e.provider = p
	}

	e.wg.Add(1)
	go e.sweep()

	return e, nil
}

// keyRequired lists providers that cannot work without an API key.
var keyRequired = map[string]bool{
	"openai":     true,
	"openrouter": true,
	"groq":       true,
	"xai":        true,
	"gemini":     true,
}

// chatProvider builds the configured provider, substituting the built-in
// mock when a hosted provider has no API key so the service still starts.
func chatProvider(cfg Config) (llm.Provider, error) {
	c := llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	}
	if keyRequired[c.Provider] && c.APIKey == "" {
		slog.Warn("chat: provider needs an API key and none is configured, using mock provider",
			"provider", c.Provider)
		c.Provider = "mock"
	}
	return llm.NewProvider(c)
}

// CreateSession runs the upload through extraction and export, then
// persists the session.
func (e *engine) CreateSession(ctx context.Context, filename string, r io.Reader) (*Session, error) {
	maxBytes := int64(e.cfg.MaxUploadMB) << 20
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrUploadTooLarge, e.cfg.MaxUploadMB)
	}

	g, err := e.extract(data)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "document.xml"
	}

	if err := os.WriteFile(e.xmlPath(id), data, 0644); err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}
	if err := export.ExportGraphML(e.graphmlPath(id), g); err != nil {
		e.removeFiles(id)
		return nil, fmt.Errorf("%w: %v", ErrExportFailure, err)
	}

	if err := e.store.CreateSession(ctx, store.Session{
		ID:          id,
		Filename:    name,
		Status:      "ready",
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		GraphMLPath: e.graphmlPath(id),
	}); err != nil {
		e.removeFiles(id)
		return nil, fmt.Errorf("storing session: %w", err)
	}

	e.mu.Lock()
	e.graphs[id] = g
	e.mu.Unlock()

	slog.Info("session: created", "session", id, "file", name,
		"components", g.NodeCount(), "connections", g.EdgeCount())

	return e.Session(ctx, id)
}

// Session returns a single session's summary.
func (e *engine) Session(ctx context.Context, id string) (*Session, error) {
	sess, err := e.session(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSession(sess), nil
}

// ListSessions returns all live sessions.
func (e *engine) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := e.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]Session, len(rows))
	for i := range rows {
		sessions[i] = *toSession(&rows[i])
	}
	return sessions, nil
}

// DeleteSession removes a session, its messages, and its on-disk files.
func (e *engine) DeleteSession(ctx context.Context, id string) error {
	if _, err := e.session(ctx, id); err != nil {
		return err
	}
	if err := e.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	e.removeFiles(id)

	e.mu.Lock()
	delete(e.graphs, id)
	e.mu.Unlock()

	slog.Info("session: deleted", "session", id)
	return nil
}

// GraphData returns a copy of the session's graph plus statistics.
func (e *engine) GraphData(ctx context.Context, sessionID string) (*GraphData, error) {
	g, err := e.sessionGraph(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &GraphData{
		Nodes: append([]graph.Node{}, g.Nodes()...),
		Edges: append([]graph.Edge{}, g.Edges()...),
		Stats: GraphStats{
			Nodes:               g.NodeCount(),
			Edges:               g.EdgeCount(),
			Density:             g.Density(),
			ConnectedComponents: g.ConnectedComponents(),
		},
	}, nil
}

// AnalyzeComponents summarises the component population of a graph.
func (e *engine) AnalyzeComponents(ctx context.Context, sessionID string) (*ComponentReport, error) {
	g, err := e.sessionGraph(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	types := g.NodeTypes()
	return &ComponentReport{
		Total:         g.NodeCount(),
		Types:         types,
		Components:    append([]graph.Node{}, g.Nodes()...),
		MostConnected: g.TopDegrees(topConnectedCount),
		Summary:       componentSummary(g.NodeCount(), types),
	}, nil
}

// AnalyzeFlows summarises the connections of a graph.
func (e *engine) AnalyzeFlows(ctx context.Context, sessionID string) (*FlowReport, error) {
	g, err := e.sessionGraph(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &FlowReport{
		Total:   g.EdgeCount(),
		Types:   g.EdgeTypes(),
		Flows:   append([]graph.Edge{}, g.Edges()...),
		Summary: fmt.Sprintf("Found %d connections in the process diagram.", g.EdgeCount()),
	}, nil
}

// GraphMLPath returns the session's GraphML file path, regenerating the
// file from the graph when it is missing.
func (e *engine) GraphMLPath(ctx context.Context, sessionID string) (string, error) {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return "", err
	}

	path := sess.GraphMLPath
	if path == "" {
		path = e.graphmlPath(sessionID)
	}
	if _, err := os.Stat(path); err != nil {
		g, gerr := e.sessionGraph(ctx, sessionID)
		if gerr != nil {
			return "", gerr
		}
		if err := export.ExportGraphML(path, g); err != nil {
			return "", fmt.Errorf("%w: %v", ErrExportFailure, err)
		}
		slog.Info("session: graphml regenerated", "session", sessionID, "path", path)
	}
	return path, nil
}

// WriteInventory writes the session's component inventory workbook.
func (e *engine) WriteInventory(ctx context.Context, sessionID string, w io.Writer) error {
	sess, err := e.session(ctx, sessionID)
	if err != nil {
		return err
	}
	g, err := e.sessionGraph(ctx, sessionID)
	if err != nil {
		return err
	}
	return export.WriteInventory(w, g, sess.Filename)
}

// Close stops the expiry sweep and shuts down the engine.
func (e *engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
		err = e.store.Close()
	})
	return err
}

// --- internals ---

// extract runs the strategy chain and maps its errors onto the package
// sentinels.
func (e *engine) extract(data []byte) (*graph.Graph, error) {
	var opts []dexpi.Option
	if e.loader != nil {
		opts = append(opts, dexpi.WithLoader(e.loader))
	}
	g, err := dexpi.Extract(data, opts...)
	if err != nil {
		if errors.Is(err, dexpi.ErrEmptyDocument) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	return g, nil
}

// session loads a session row, mapping a missing row onto
// ErrSessionNotFound.
func (e *engine) session(ctx context.Context, id string) (*store.Session, error) {
	sess, err := e.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// sessionGraph returns the session's in-memory graph, rebuilding it from
// the stored document after a restart.
func (e *engine) sessionGraph(ctx context.Context, id string) (*graph.Graph, error) {
	e.mu.Lock()
	g, ok := e.graphs[id]
	e.mu.Unlock()
	if ok {
		return g, nil
	}

	if _, err := e.session(ctx, id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(e.xmlPath(id))
	if err != nil {
		return nil, fmt.Errorf("reading stored document: %w", err)
	}
	g, err = e.extract(data)
	if err != nil {
		// The stored bytes extracted cleanly once, so mark the session
		// rather than drop it silently.
		if serr := e.store.UpdateSessionStatus(ctx, id, "failed", err.Error()); serr != nil {
			slog.Warn("session: recording failure state failed", "session", id, "error", serr)
		}
		return nil, err
	}

	e.mu.Lock()
	e.graphs[id] = g
	e.mu.Unlock()

	slog.Info("session: graph rebuilt from stored document", "session", id,
		"components", g.NodeCount(), "connections", g.EdgeCount())
	return g, nil
}

// componentSummary renders the per-type counts as a short plain-text
// digest for display next to the raw numbers.
func componentSummary(total int, types []graph.TypeCount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d components:\n", total)
	for _, tc := range types {
		fmt.Fprintf(&b, "- %s: %d\n", tc.Type, tc.Count)
	}
	return b.String()
}

func toSession(s *store.Session) *Session {
	return &Session{
		ID:         s.ID,
		Filename:   s.Filename,
		Status:     s.Status,
		NodeCount:  s.NodeCount,
		EdgeCount:  s.EdgeCount,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
	}
}

func (e *engine) xmlPath(id string) string {
	return filepath.Join(e.cfg.DataDir, id+".xml")
}

func (e *engine) graphmlPath(id string) string {
	return filepath.Join(e.cfg.DataDir, id+".graphml")
}

// removeFiles deletes a session's on-disk artifacts. Missing files are
// not an error.
func (e *engine) removeFiles(id string) {
	for _, p := range []string{e.xmlPath(id), e.graphmlPath(id)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("session: removing file failed", "path", p, "error", err)
		}
	}
}

// sweep removes expired sessions on a timer until Close.
func (e *engine) sweep() {
	defer e.wg.Done()

	// One pass at startup catches sessions that expired while the
	// service was down.
	e.removeExpired(context.Background())

	ticker := time.NewTicker(e.cfg.cleanupInterval())
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.removeExpired(context.Background())
		}
	}
}

// removeExpired deletes sessions idle past the TTL along with their
// files and cached graphs.
func (e *engine) removeExpired(ctx context.Context) {
	cutoff := time.Now().Add(-e.cfg.sessionTTL())
	expired, err := e.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		slog.Warn("cleanup: expiring sessions failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	for _, sess := range expired {
		e.removeFiles(sess.ID)
		e.mu.Lock()
		delete(e.graphs, sess.ID)
		e.mu.Unlock()
	}
	slog.Info("cleanup: expired sessions removed", "count", len(expired))
}
