package io

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/netgraph/pkg/graph"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphML struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data,omitempty"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

var graphMLKeys = []graphMLKey{
	{ID: "name", For: "node", AttrName: "name", AttrType: "string"},
	{ID: "color", For: "node", AttrName: "color", AttrType: "string"},
	{ID: "is_inst", For: "node", AttrName: "is_inst", AttrType: "boolean"},
	{ID: "width", For: "node", AttrName: "width", AttrType: "double"},
	{ID: "height", For: "node", AttrName: "height", AttrType: "double"},
	{ID: "net", For: "edge", AttrName: "net", AttrType: "string"},
}

// WriteGraphML encodes g as GraphML. Vertices get ids n0..n(N-1) in index
// order and carry the same properties as the .gt output.
func WriteGraphML(g *graph.Graph, w io.Writer) error {
	doc := graphML{
		XMLNS: graphMLNamespace,
		Keys:  graphMLKeys,
		Graph: graphMLGraph{ID: "G", EdgeDefault: "directed"},
	}
	if !g.Directed() {
		doc.Graph.EdgeDefault = "undirected"
	}

	for _, v := range g.Vertices() {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphMLNode{
			ID: graphMLID(v.Index),
			Data: []graphMLData{
				{Key: "name", Value: v.Name},
				{Key: "color", Value: v.Color},
				{Key: "is_inst", Value: strconv.FormatBool(v.IsInstance())},
				{Key: "width", Value: strconv.FormatFloat(v.Width, 'g', -1, 64)},
				{Key: "height", Value: strconv.FormatFloat(v.Height, 'g', -1, 64)},
			},
		})
	}
	for _, e := range g.Edges() {
		edge := graphMLEdge{Source: graphMLID(e.From), Target: graphMLID(e.To)}
		if e.Net != "" {
			edge.Data = []graphMLData{{Key: "net", Value: e.Net}}
		}
		doc.Graph.Edges = append(doc.Graph.Edges, edge)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graphml: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return nil
}

func graphMLID(i int) string { return "n" + strconv.Itoa(i) }

// ReadGraphML decodes GraphML written by [WriteGraphML]. Nodes without a
// name property are named by their id.
func ReadGraphML(r io.Reader) (*graph.Graph, error) {
	var doc graphML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graphml: %w", err)
	}

	g := graph.New(doc.Graph.EdgeDefault != "undirected")
	ids := make(map[string]int, len(doc.Graph.Nodes))
	for _, n := range doc.Graph.Nodes {
		v := graph.Vertex{Name: n.ID}
		for _, d := range n.Data {
			switch d.Key {
			case "name":
				v.Name = d.Value
			case "color":
				v.Color = d.Value
			case "is_inst":
				if inst, err := strconv.ParseBool(d.Value); err == nil && !inst {
					v.Kind = graph.KindPin
				}
			case "width", "height":
				f, err := strconv.ParseFloat(strings.TrimSpace(d.Value), 64)
				if err != nil {
					return nil, fmt.Errorf("decode graphml: node %s: invalid %s %q", n.ID, d.Key, d.Value)
				}
				if d.Key == "width" {
					v.Width = f
				} else {
					v.Height = f
				}
			}
		}
		idx, err := g.AddVertex(v)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		ids[n.ID] = idx
	}
	for _, e := range doc.Graph.Edges {
		from, ok := ids[e.Source]
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, graph.ErrUnknownSource)
		}
		to, ok := ids[e.Target]
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, graph.ErrUnknownTarget)
		}
		edge := graph.Edge{From: from, To: to}
		for _, d := range e.Data {
			if d.Key == "net" {
				edge.Net = d.Value
			}
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, err
		}
	}
	return g, nil
}
