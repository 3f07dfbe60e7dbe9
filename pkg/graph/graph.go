package graph

import (
	"errors"
	"slices"
)

var (
	// ErrEmptyName is returned by [Graph.AddVertex] when the vertex name is
	// empty. Every vertex must be addressable by name.
	ErrEmptyName = errors.New("vertex name must not be empty")

	// ErrDuplicateName is returned by [Graph.AddVertex] when a vertex with the
	// same name already exists. Instances and pins share one namespace.
	ErrDuplicateName = errors.New("duplicate vertex name")

	// ErrUnknownSource is returned by [Graph.AddEdge] when the source index
	// does not refer to a vertex.
	ErrUnknownSource = errors.New("unknown source vertex")

	// ErrUnknownTarget is returned by [Graph.AddEdge] when the target index
	// does not refer to a vertex.
	ErrUnknownTarget = errors.New("unknown target vertex")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a vertex that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Kind distinguishes the two kinds of circuit elements that become vertices.
type Kind int

const (
	// KindInstance is a placed cell instance with a physical footprint.
	KindInstance Kind = iota
	// KindPin is a boundary pin on the chip periphery.
	KindPin
)

// String returns "instance" or "pin".
func (k Kind) String() string {
	if k == KindPin {
		return "pin"
	}
	return "instance"
}

// Display colours attached to vertices. Downstream viewers use them to tell
// instances from pins at a glance.
const (
	InstanceColor = "#007dff"
	PinColor      = "#ff7c44"
)

// Vertex is one circuit element in the connectivity graph.
//
// Index is assigned by [Graph.AddVertex] and is dense: the vertices of a
// graph with n vertices have indices 0..n-1 in insertion order.
type Vertex struct {
	Index  int
	Name   string
	Kind   Kind
	Color  string
	Width  float64
	Height float64
}

// IsInstance reports whether the vertex is a cell instance.
func (v Vertex) IsInstance() bool { return v.Kind == KindInstance }

// Edge connects a driving vertex to a load vertex.
// In an undirected graph the pair is still stored driver first.
type Edge struct {
	From int
	To   int
	Net  string // Net that produced the edge (empty for hand-built graphs)
}

// Graph is a connectivity graph: vertices indexed densely and by name, and an
// ordered edge list with adjacency indices in both directions.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// mutation; concurrent readers are fine once construction has finished.
type Graph struct {
	directed bool
	vertices []Vertex
	index    map[string]int
	edges    []Edge
	outgoing [][]int
	incoming [][]int
}

// New creates an empty graph. When directed is false, edges are treated as
// unordered pairs by [Graph.Neighbors] and by serializers.
func New(directed bool) *Graph {
	return &Graph{
		directed: directed,
		index:    make(map[string]int),
	}
}

// Directed reports whether edge direction is meaningful.
func (g *Graph) Directed() bool { return g.directed }

// AddVertex appends a vertex and returns its index. The Index field of v is
// ignored. Returns ErrEmptyName or ErrDuplicateName.
func (g *Graph) AddVertex(v Vertex) (int, error) {
	if v.Name == "" {
		return -1, ErrEmptyName
	}
	if _, exists := g.index[v.Name]; exists {
		return -1, ErrDuplicateName
	}
	v.Index = len(g.vertices)
	g.vertices = append(g.vertices, v)
	g.index[v.Name] = v.Index
	g.outgoing = append(g.outgoing, nil)
	g.incoming = append(g.incoming, nil)
	return v.Index, nil
}

// AddEdge appends an edge between two existing vertices.
// Parallel edges and self-loops are allowed.
func (g *Graph) AddEdge(e Edge) error {
	if !g.valid(e.From) {
		return ErrUnknownSource
	}
	if !g.valid(e.To) {
		return ErrUnknownTarget
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

func (g *Graph) valid(i int) bool { return i >= 0 && i < len(g.vertices) }

// Lookup returns the index of the vertex with the given name.
func (g *Graph) Lookup(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Vertex returns the vertex at index i and true, or the zero Vertex and false.
func (g *Graph) Vertex(i int) (Vertex, bool) {
	if !g.valid(i) {
		return Vertex{}, false
	}
	return g.vertices[i], true
}

// Vertices returns a copy of all vertices in index order.
func (g *Graph) Vertices() []Vertex { return slices.Clone(g.vertices) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.vertices) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Successors returns the load indices driven by vertex i.
// The returned slice should not be modified.
func (g *Graph) Successors(i int) []int {
	if !g.valid(i) {
		return nil
	}
	return g.outgoing[i]
}

// Predecessors returns the driver indices of vertex i.
// The returned slice should not be modified.
func (g *Graph) Predecessors(i int) []int {
	if !g.valid(i) {
		return nil
	}
	return g.incoming[i]
}

// Neighbors returns the adjacent vertex indices of i. For directed graphs
// these are the successors; for undirected graphs successors and predecessors
// combined, since direction carries no meaning there.
func (g *Graph) Neighbors(i int) []int {
	if g.directed {
		return g.Successors(i)
	}
	out := slices.Clone(g.Successors(i))
	return append(out, g.Predecessors(i)...)
}

// OutDegree returns the number of edges leaving vertex i.
func (g *Graph) OutDegree(i int) int { return len(g.Successors(i)) }

// InDegree returns the number of edges entering vertex i.
func (g *Graph) InDegree(i int) int { return len(g.Predecessors(i)) }

// CountKind returns how many vertices have the given kind.
func (g *Graph) CountKind(k Kind) int {
	n := 0
	for _, v := range g.vertices {
		if v.Kind == k {
			n++
		}
	}
	return n
}

// Validate checks that every edge references existing vertices and that the
// name index agrees with the vertex list.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if !g.valid(e.From) || !g.valid(e.To) {
			return ErrInvalidEdgeEndpoint
		}
	}
	if len(g.index) != len(g.vertices) {
		return ErrDuplicateName
	}
	for i, v := range g.vertices {
		if v.Index != i || g.index[v.Name] != i {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

// EdgePairs returns the edges as (from name, to name) pairs in edge order.
// For undirected graphs each pair is ordered lexically so that two graphs with
// the same adjacency compare equal.
func (g *Graph) EdgePairs() [][2]string {
	pairs := make([][2]string, len(g.edges))
	for i, e := range g.edges {
		from, to := g.vertices[e.From].Name, g.vertices[e.To].Name
		if !g.directed && to < from {
			from, to = to, from
		}
		pairs[i] = [2]string{from, to}
	}
	return pairs
}
