// Package graph provides the connectivity graph produced from a netlist.
//
// # Overview
//
// A [Graph] holds one [Vertex] per circuit element (cell instances and
// boundary pins) and one [Edge] per driver → load relationship. Vertices are
// indexed densely (0..n-1, insertion order) and by name, so lookups during
// construction are O(1).
//
// # Vertex Properties
//
// Every vertex carries the properties downstream tools expect:
//
//   - Name: unique across instances and pins
//   - Kind: [KindInstance] or [KindPin] (exposed as IsInstance)
//   - Color: [InstanceColor] or [PinColor]
//   - Width, Height: footprint of the cell master (0 for pins)
//
// # Directedness
//
// Graphs are directed by default. An undirected graph keeps the same edge
// list - the pair is still stored driver first - but [Graph.Directed] reports
// false, [Graph.Neighbors] ignores direction and serializers drop it.
//
// # Construction
//
// Graphs are normally built by the connectivity package:
//
//	res, err := connectivity.Build(design, connectivity.Options{})
//	g := res.Graph
//
// They can also be assembled by hand:
//
//	g := graph.New(true)
//	a, _ := g.AddVertex(graph.Vertex{Name: "u1", Kind: graph.KindInstance})
//	b, _ := g.AddVertex(graph.Vertex{Name: "u2", Kind: graph.KindInstance})
//	_ = g.AddEdge(graph.Edge{From: a, To: b})
package graph
