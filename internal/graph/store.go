package graph

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tangle/internal/resolver"
)

const sqliteDriverName = "sqlite"

// SnapshotStore persists one invocation's node and edge set to sqlite so
// later tool runs can diff structure without re-scanning.
type SnapshotStore struct {
	db *sql.DB
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("snapshot store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("snapshot store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot store directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite snapshot store %q: %w", cleanPath, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite snapshot store %q: %w", cleanPath, err)
	}

	if err := migrateSnapshotSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db}, nil
}

func migrateSnapshotSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS graph_nodes (
  invocation TEXT NOT NULL,
  node_key   TEXT NOT NULL,
  kind       TEXT NOT NULL,
  PRIMARY KEY (invocation, node_key)
);
CREATE TABLE IF NOT EXISTS graph_edges (
  invocation TEXT NOT NULL,
  from_key   TEXT NOT NULL,
  to_key     TEXT NOT NULL,
  PRIMARY KEY (invocation, from_key, to_key)
);
CREATE INDEX IF NOT EXISTS idx_graph_edges_from
  ON graph_edges (invocation, from_key);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate snapshot schema: %w", err)
	}
	return nil
}

// Save writes the graph under the given scan invocation id, replacing any
// previous snapshot for the same id.
func (s *SnapshotStore) Save(invocation uuid.UUID, g *Graph) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inv := invocation.String()
	if _, err := tx.Exec(`DELETE FROM graph_nodes WHERE invocation = ?`, inv); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM graph_edges WHERE invocation = ?`, inv); err != nil {
		return err
	}

	nodeStmt, err := tx.Prepare(`INSERT INTO graph_nodes (invocation, node_key, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()

	for _, key := range g.Nodes() {
		kind, _ := g.Kind(key)
		if _, err := nodeStmt.Exec(inv, key, kind.String()); err != nil {
			return fmt.Errorf("insert node %q: %w", key, err)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT INTO graph_edges (invocation, from_key, to_key) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for from, targets := range g.Edges() {
		for _, to := range targets {
			if _, err := edgeStmt.Exec(inv, from, to); err != nil {
				return fmt.Errorf("insert edge %q -> %q: %w", from, to, err)
			}
		}
	}

	return tx.Commit()
}

// Load rebuilds a graph from the snapshot stored under invocation.
func (s *SnapshotStore) Load(invocation uuid.UUID) (*Graph, error) {
	g := New()
	inv := invocation.String()

	rows, err := s.db.Query(`SELECT node_key, kind FROM graph_nodes WHERE invocation = ?`, inv)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key, kind string
		if err := rows.Scan(&key, &kind); err != nil {
			return nil, err
		}
		if kind == resolver.KindExternal.String() {
			g.AddNode(resolver.External(key))
		} else {
			g.AddNode(resolver.NodeKey{Kind: resolver.KindInternal, Name: key})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.db.Query(`SELECT from_key, to_key FROM graph_edges WHERE invocation = ?`, inv)
	if err != nil {
		return nil, err
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var from, to string
		if err := edgeRows.Scan(&from, &to); err != nil {
			return nil, err
		}
		fromKind, _ := g.Kind(from)
		toKind, _ := g.Kind(to)
		g.AddEdge(resolver.NodeKey{Kind: fromKind, Name: from}, resolver.NodeKey{Kind: toKind, Name: to})
	}
	return g, edgeRows.Err()
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
