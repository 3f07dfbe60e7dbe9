package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

var kindFromString = map[string]graph.Kind{
	"instance": graph.KindInstance,
	"pin":      graph.KindPin,
}

// ReadJSON decodes a JSON graph written by [WriteJSON].
//
// The input must be a JSON object with "vertices" and "edges" arrays:
//
//	{
//	  "directed": true,
//	  "vertices": [{"name": "P", "kind": "pin"}, {"name": "A", "kind": "instance"}],
//	  "edges": [{"from": "P", "to": "A", "net": "N1"}]
//	}
//
// Vertex order and edge order are preserved. ReadJSON returns an error if
// the JSON is malformed, a kind is unknown, a name repeats, or an edge names
// an unknown vertex. Errors wrap the [graph] sentinel errors.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var data jsonGraph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := graph.New(data.Directed)
	for _, v := range data.Vertices {
		kind, ok := kindFromString[v.Kind]
		if !ok {
			return nil, fmt.Errorf("vertex %s: unknown kind %q", v.Name, v.Kind)
		}
		vertex := graph.Vertex{Name: v.Name, Kind: kind, Color: v.Color, Width: v.Width, Height: v.Height}
		if _, err := g.AddVertex(vertex); err != nil {
			return nil, fmt.Errorf("vertex %s: %w", v.Name, err)
		}
	}
	for _, e := range data.Edges {
		from, ok := g.Lookup(e.From)
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, graph.ErrUnknownSource)
		}
		to, ok := g.Lookup(e.To)
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, graph.ErrUnknownTarget)
		}
		if err := g.AddEdge(graph.Edge{From: from, To: to, Net: e.Net}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// ImportJSON reads a JSON graph file at path.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Read decodes a graph in the given format. DOT is write-only.
func Read(r io.Reader, format Format) (*graph.Graph, error) {
	switch format {
	case FormatGT:
		return ReadGT(r)
	case FormatGraphML:
		return ReadGraphML(r)
	case FormatJSON:
		return ReadJSON(r)
	case FormatDOT:
		return nil, errors.New(errors.ErrCodeUnsupported, "reading DOT graphs is not supported")
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown graph format %q", format)
}
