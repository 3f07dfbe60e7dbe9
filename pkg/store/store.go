// Package store loads connectivity graphs into databases.
//
// Three backends implement [Store]:
//   - [Neo4jStore]: (:Vertex:Instance) and (:Vertex:Pin) nodes joined by
//     [:DRIVES] relationships, written in batched UNWIND queries
//   - [SQLiteStore]: vertices and edges tables in a local database file
//   - [MongoStore]: vertices and edges collections
//
// Every backend keys rows by design name. Saving a design replaces whatever
// an earlier save of the same design left behind, so the database always
// holds the most recent graph per design. Each save is tagged with a fresh
// load ID, which is returned in [SaveInfo] and stored alongside the rows.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// DefaultBatchSize is the number of rows sent per write round trip.
const DefaultBatchSize = 1000

// Store persists connectivity graphs.
type Store interface {
	// Save replaces the stored graph of design with g.
	Save(ctx context.Context, design string, g *graph.Graph) (SaveInfo, error)

	// Close releases the connection.
	Close(ctx context.Context) error
}

// SaveInfo describes a completed save.
type SaveInfo struct {
	LoadID   string
	Design   string
	Vertices int
	Edges    int
	Duration time.Duration
}

// vertexRow is the flattened form of a vertex shared by all backends.
type vertexRow struct {
	Index  int
	Name   string
	Kind   string
	Color  string
	Width  float64
	Height float64
}

// edgeRow is an edge with both endpoints resolved to names.
type edgeRow struct {
	Seq  int
	From string
	To   string
	Net  string
}

func vertexRows(g *graph.Graph) []vertexRow {
	vs := g.Vertices()
	rows := make([]vertexRow, len(vs))
	for i, v := range vs {
		rows[i] = vertexRow{
			Index:  v.Index,
			Name:   v.Name,
			Kind:   v.Kind.String(),
			Color:  v.Color,
			Width:  v.Width,
			Height: v.Height,
		}
	}
	return rows
}

func edgeRows(g *graph.Graph) []edgeRow {
	vs := g.Vertices()
	es := g.Edges()
	rows := make([]edgeRow, len(es))
	for i, e := range es {
		rows[i] = edgeRow{Seq: i, From: vs[e.From].Name, To: vs[e.To].Name, Net: e.Net}
	}
	return rows
}

// batches splits items into consecutive chunks of at most size elements.
func batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}

func newLoadID() string { return uuid.NewString() }

func checkDesign(design string) error {
	return errors.ValidateName("design", design)
}
