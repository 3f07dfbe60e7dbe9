package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS designs (
	name      TEXT PRIMARY KEY,
	load_id   TEXT NOT NULL,
	directed  INTEGER NOT NULL,
	loaded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS vertices (
	design  TEXT NOT NULL,
	idx     INTEGER NOT NULL,
	name    TEXT NOT NULL,
	kind    TEXT NOT NULL,
	color   TEXT NOT NULL,
	width   REAL NOT NULL,
	height  REAL NOT NULL,
	load_id TEXT NOT NULL,
	PRIMARY KEY (design, idx),
	UNIQUE (design, name)
);
CREATE TABLE IF NOT EXISTS edges (
	design  TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	src     TEXT NOT NULL,
	dst     TEXT NOT NULL,
	net     TEXT NOT NULL,
	load_id TEXT NOT NULL,
	PRIMARY KEY (design, seq)
);
CREATE INDEX IF NOT EXISTS edges_src ON edges (design, src);
CREATE INDEX IF NOT EXISTS edges_dst ON edges (design, dst);
`

// SQLiteStore writes graphs into a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the schema. Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, logger *log.Logger) (*SQLiteStore, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Save implements [Store]. The design's previous rows are replaced inside
// one transaction, so readers never see a half-written graph.
func (s *SQLiteStore) Save(ctx context.Context, design string, g *graph.Graph) (info SaveInfo, err error) {
	if err := checkDesign(design); err != nil {
		return SaveInfo{}, err
	}
	start := time.Now()
	info = SaveInfo{LoadID: newLoadID(), Design: design, Vertices: g.VertexCount(), Edges: g.EdgeCount()}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"edges", "vertices"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE design = ?", design); err != nil {
			return SaveInfo{}, fmt.Errorf("clear %s: %w", table, err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO designs (name, load_id, directed, loaded_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET load_id = excluded.load_id,
		     directed = excluded.directed, loaded_at = excluded.loaded_at`,
		design, info.LoadID, g.Directed(), start.UTC().Format(time.RFC3339))
	if err != nil {
		return SaveInfo{}, fmt.Errorf("record design: %w", err)
	}

	vstmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vertices (design, idx, name, kind, color, width, height, load_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("prepare vertices: %w", err)
	}
	defer vstmt.Close()
	for _, r := range vertexRows(g) {
		if _, err := vstmt.ExecContext(ctx, design, r.Index, r.Name, r.Kind, r.Color, r.Width, r.Height, info.LoadID); err != nil {
			return SaveInfo{}, fmt.Errorf("insert vertex %q: %w", r.Name, err)
		}
	}

	estmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (design, seq, src, dst, net, load_id) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("prepare edges: %w", err)
	}
	defer estmt.Close()
	for _, r := range edgeRows(g) {
		if _, err := estmt.ExecContext(ctx, design, r.Seq, r.From, r.To, r.Net, info.LoadID); err != nil {
			return SaveInfo{}, fmt.Errorf("insert edge %s->%s: %w", r.From, r.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SaveInfo{}, fmt.Errorf("commit: %w", err)
	}
	info.Duration = time.Since(start)
	s.logger.Debug("saved graph to sqlite", "design", design, "load", info.LoadID,
		"vertices", info.Vertices, "edges", info.Edges, "duration", info.Duration)
	return info, nil
}

// Load reads the stored graph of design back. It returns a NOT_FOUND error
// when the design was never saved.
func (s *SQLiteStore) Load(ctx context.Context, design string) (*graph.Graph, error) {
	var directed bool
	err := s.db.QueryRowContext(ctx, "SELECT directed FROM designs WHERE name = ?", design).Scan(&directed)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeNotFound, "design %q not found", design)
	}
	if err != nil {
		return nil, fmt.Errorf("query design: %w", err)
	}
	g := graph.New(directed)

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, kind, color, width, height FROM vertices WHERE design = ? ORDER BY idx", design)
	if err != nil {
		return nil, fmt.Errorf("query vertices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v graph.Vertex
		var kind string
		if err := rows.Scan(&v.Name, &kind, &v.Color, &v.Width, &v.Height); err != nil {
			return nil, fmt.Errorf("scan vertex: %w", err)
		}
		if kind == graph.KindPin.String() {
			v.Kind = graph.KindPin
		}
		if _, err := g.AddVertex(v); err != nil {
			return nil, fmt.Errorf("vertex %q: %w", v.Name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	erows, err := s.db.QueryContext(ctx,
		"SELECT src, dst, net FROM edges WHERE design = ? ORDER BY seq", design)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var src, dst, net string
		if err := erows.Scan(&src, &dst, &net); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		from, ok := g.Lookup(src)
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: %w", src, dst, graph.ErrUnknownSource)
		}
		to, ok := g.Lookup(dst)
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: %w", src, dst, graph.ErrUnknownTarget)
		}
		if err := g.AddEdge(graph.Edge{From: from, To: to, Net: net}); err != nil {
			return nil, err
		}
	}
	return g, erows.Err()
}

// Close implements [Store].
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
