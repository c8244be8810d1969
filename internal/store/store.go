// Package store persists analysis runs in a SQLite database under the
// project's .txlens directory, so past graphs can be listed and re-exported
// without re-indexing the source tree.
package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	txerrors "txlens/internal/errors"
	"txlens/internal/graph"
	"txlens/internal/logging"
)

// Run is one persisted analysis run.
type Run struct {
	ID           string       `json:"id"`
	Root         string       `json:"root"`
	Direction    string       `json:"direction"`
	CreatedAt    time.Time    `json:"createdAt"`
	NodeCount    int          `json:"nodeCount"`
	EdgeCount    int          `json:"edgeCount"`
	WarningCount int          `json:"warningCount"`
	Truncated    bool         `json:"truncated"`
	Graph        *graph.Graph `json:"graph,omitempty"`
}

// Store provides persistence for analysis runs.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the run database at the given path, creating the
// parent directory if needed.
func Open(dbPath string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to create store directory", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to open run database", err)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to set pragma", err)
		}
	}

	s := &Store{conn: conn, logger: logger, dbPath: dbPath}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to initialize run schema", err)
	}
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			direction TEXT NOT NULL,
			created_at TEXT NOT NULL,
			node_count INTEGER NOT NULL,
			edge_count INTEGER NOT NULL,
			warning_count INTEGER NOT NULL,
			truncated INTEGER NOT NULL DEFAULT 0,
			graph TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// SaveRun persists a graph and returns the new run id.
func (s *Store) SaveRun(g *graph.Graph) (string, error) {
	payload, err := json.Marshal(g)
	if err != nil {
		return "", txerrors.Wrap(txerrors.StoreFailure, "failed to serialize graph", err)
	}

	id := uuid.NewString()
	_, err = s.conn.Exec(`
		INSERT INTO runs (id, root, direction, created_at, node_count, edge_count, warning_count, truncated, graph)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		g.Root.String(),
		string(g.Direction),
		time.Now().UTC().Format(time.RFC3339),
		g.NodeCount,
		len(g.Edges),
		len(g.RiskWarnings),
		boolToInt(g.Truncated),
		string(payload),
	)
	if err != nil {
		return "", txerrors.Wrap(txerrors.StoreFailure, "failed to insert run", err)
	}

	if s.logger != nil {
		s.logger.Debug("run persisted", map[string]interface{}{
			"id":    id,
			"root":  g.Root.String(),
			"nodes": g.NodeCount,
		})
	}
	return id, nil
}

// ListRuns returns run summaries, newest first, without graph payloads.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(`
		SELECT id, root, direction, created_at, node_count, edge_count, warning_count, truncated
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		var truncated int
		if err := rows.Scan(&r.ID, &r.Root, &r.Direction, &createdAt,
			&r.NodeCount, &r.EdgeCount, &r.WarningCount, &truncated); err != nil {
			return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to scan run", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.Truncated = truncated != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads a full run, graph included. Returns nil when the id is
// unknown.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.conn.QueryRow(`
		SELECT id, root, direction, created_at, node_count, edge_count, warning_count, truncated, graph
		FROM runs WHERE id = ?`, id)

	var r Run
	var createdAt, payload string
	var truncated int
	err := row.Scan(&r.ID, &r.Root, &r.Direction, &createdAt,
		&r.NodeCount, &r.EdgeCount, &r.WarningCount, &truncated, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to load run", err)
	}

	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.Truncated = truncated != 0
	r.Graph = &graph.Graph{}
	if err := json.Unmarshal([]byte(payload), r.Graph); err != nil {
		return nil, txerrors.Wrap(txerrors.StoreFailure, "failed to deserialize graph", err)
	}
	return &r, nil
}

// DeleteRun removes a run. Deleting an unknown id is not an error.
func (s *Store) DeleteRun(id string) error {
	if _, err := s.conn.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return txerrors.Wrap(txerrors.StoreFailure, "failed to delete run", err)
	}
	return nil
}

// Prune keeps the newest maxRuns runs and deletes the rest.
func (s *Store) Prune(maxRuns int) error {
	if maxRuns <= 0 {
		return nil
	}
	_, err := s.conn.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?
		)`, maxRuns)
	if err != nil {
		return txerrors.Wrap(txerrors.StoreFailure, "failed to prune runs", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
