package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Session represents a row in the sessions table. One session corresponds
// to one uploaded P&ID document and the graph extracted from it.
type Session struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
	GraphMLPath string `json:"graphml_path,omitempty"`
	CreatedAt   string `json:"created_at"`
	LastActive  string `json:"last_active"`
}

// Message represents a row in the messages table.
type Message struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// Store wraps the SQLite database for all veilix persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schemaSQL()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Session operations ---

// CreateSession inserts a new session row. The caller assigns the ID;
// created_at and last_active default to the current time.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, filename, status, error, node_count, edge_count, graphml_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Filename, sess.Status, sess.Error,
		sess.NodeCount, sess.EdgeCount, sess.GraphMLPath)
	return err
}

// GetSession retrieves a session by ID. Returns sql.ErrNoRows when the
// session does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	sess := &Session{}
	var errMsg, graphmlPath sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, status, error, node_count, edge_count, graphml_path, created_at, last_active
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Filename, &sess.Status, &errMsg,
		&sess.NodeCount, &sess.EdgeCount, &graphmlPath,
		&sess.CreatedAt, &sess.LastActive)
	if err != nil {
		return nil, err
	}
	sess.Error = errMsg.String
	sess.GraphMLPath = graphmlPath.String
	return sess, nil
}

// ListSessions returns all sessions ordered by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, status, error, node_count, edge_count, graphml_path, created_at, last_active
		FROM sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var errMsg, graphmlPath sql.NullString
		if err := rows.Scan(&sess.ID, &sess.Filename, &sess.Status, &errMsg,
			&sess.NodeCount, &sess.EdgeCount, &graphmlPath,
			&sess.CreatedAt, &sess.LastActive); err != nil {
			return nil, err
		}
		sess.Error = errMsg.String
		sess.GraphMLPath = graphmlPath.String
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateSessionStatus updates the status and error fields.
func (s *Store) UpdateSessionStatus(ctx context.Context, id, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET status = ?, error = ? WHERE id = ?",
		status, errMsg, id)
	return err
}

// TouchSession marks a session as active now, resetting its expiry clock.
func (s *Store) TouchSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET last_active = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

// DeleteSession removes a session and cascades to its messages.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteExpired removes every session whose last_active is older than
// cutoff, cascading to messages. The deleted rows are returned so callers
// can clean up per-session files on disk.
func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) ([]Session, error) {
	cut := sqliteTime(cutoff)

	var expired []Session
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, filename, status, error, node_count, edge_count, graphml_path, created_at, last_active
			FROM sessions WHERE last_active < ?
		`, cut)
		if err != nil {
			return err
		}

		for rows.Next() {
			var sess Session
			var errMsg, graphmlPath sql.NullString
			if err := rows.Scan(&sess.ID, &sess.Filename, &sess.Status, &errMsg,
				&sess.NodeCount, &sess.EdgeCount, &graphmlPath,
				&sess.CreatedAt, &sess.LastActive); err != nil {
				rows.Close()
				return err
			}
			sess.Error = errMsg.String
			sess.GraphMLPath = graphmlPath.String
			expired = append(expired, sess)
		}
		// The cursor must be closed before the delete runs on this connection.
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM sessions WHERE last_active < ?", cut)
		return err
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// --- Message operations ---

// AddMessage appends a chat message to a session's history.
func (s *Store) AddMessage(ctx context.Context, sessionID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)",
		sessionID, role, content)
	return err
}

// RecentMessages returns the newest limit messages for a session in
// chronological order.
func (s *Store) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM messages WHERE session_id = ?
		ORDER BY id DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query walks newest-first; flip back to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sqliteTime formats t the way CURRENT_TIMESTAMP stores it, so string
// comparison in SQL matches chronological order.
func sqliteTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
