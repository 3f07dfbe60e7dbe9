package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/render/nodelink"
)

// Format identifies a graph serialization.
type Format string

// Supported output formats.
const (
	FormatGT      Format = "gt"
	FormatGraphML Format = "graphml"
	FormatJSON    Format = "json"
	FormatDOT     Format = "dot"
)

// Formats lists the supported output formats, default first.
var Formats = []Format{FormatGT, FormatGraphML, FormatJSON, FormatDOT}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case "xml":
		return FormatGraphML, nil
	case "gv":
		return FormatDOT, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown graph format %q (want gt, graphml, json or dot)", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer graph format from %q", filepath.Base(path))
	}
	return ParseFormat(ext)
}

// ContentType returns the MIME type of a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatGraphML:
		return "application/xml"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/octet-stream"
	}
}

// Write serializes g to w in the given format.
func Write(g *graph.Graph, w io.Writer, format Format) error {
	switch format {
	case FormatGT:
		return WriteGT(g, w)
	case FormatGraphML:
		return WriteGraphML(g, w)
	case FormatJSON:
		return WriteJSON(g, w)
	case FormatDOT:
		_, err := io.WriteString(w, nodelink.ToDOT(g, nodelink.Options{}))
		return err
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown graph format %q", format)
}

// Export writes g to a file at path. An empty format is inferred from the
// file extension.
func Export(g *graph.Graph, path string, format Format) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := Write(g, bw, format); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

type jsonGraph struct {
	Directed bool         `json:"directed"`
	Vertices []jsonVertex `json:"vertices"`
	Edges    []jsonEdge   `json:"edges"`
}

type jsonVertex struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type jsonEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Net  string `json:"net,omitempty"`
}

// WriteJSON encodes a graph as JSON and writes it to w.
// The output includes all vertices (with properties) and edges.
// This format can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	vertices := g.Vertices()
	out := jsonGraph{
		Directed: g.Directed(),
		Vertices: make([]jsonVertex, len(vertices)),
		Edges:    make([]jsonEdge, g.EdgeCount()),
	}

	for i, v := range vertices {
		out.Vertices[i] = jsonVertex{
			Name:   v.Name,
			Kind:   v.Kind.String(),
			Color:  v.Color,
			Width:  v.Width,
			Height: v.Height,
		}
	}
	for i, e := range g.Edges() {
		out.Edges[i] = jsonEdge{From: vertices[e.From].Name, To: vertices[e.To].Name, Net: e.Net}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
