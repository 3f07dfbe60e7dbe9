package io

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// graph-tool binary format, version 1, little-endian.
var gtMagic = []byte("\xe2\x9b\xbe gt")

const (
	gtVersion = 1

	gtKeyGraph  = 0
	gtKeyVertex = 1
	gtKeyEdge   = 2

	gtTypeBool   = 0
	gtTypeDouble = 4
	gtTypeString = 6
)

// GTComment is written into the comment field of .gt files.
const GTComment = "connectivity graph written by netgraph"

// WriteGT encodes g in the graph-tool binary format (.gt).
//
// Vertices are written in index order with the vertex properties name,
// color, is_inst, width and height, plus the edge property net. graph-tool
// stores edges in per-vertex adjacency lists, so edges are grouped by driver;
// within a driver they keep insertion order. Undirected graphs store each
// edge once, under its driver.
func WriteGT(g *graph.Graph, w io.Writer) error {
	gw := &gtWriter{w: bufio.NewWriter(w)}
	n := g.VertexCount()
	width := gtIndexWidth(n)

	gw.bytes(gtMagic)
	gw.u8(gtVersion)
	gw.u8(0) // little-endian
	gw.str(GTComment)
	gw.bool(g.Directed())
	gw.u64(uint64(n))

	// Group edges by source, preserving order.
	bySource := make([][]graph.Edge, n)
	for _, e := range g.Edges() {
		bySource[e.From] = append(bySource[e.From], e)
	}
	var ordered []graph.Edge
	for v := range n {
		gw.u64(uint64(len(bySource[v])))
		for _, e := range bySource[v] {
			gw.index(uint64(e.To), width)
		}
		ordered = append(ordered, bySource[v]...)
	}

	vertices := g.Vertices()
	gw.u64(6)

	gw.propHeader(gtKeyVertex, "name", gtTypeString)
	for _, v := range vertices {
		gw.str(v.Name)
	}
	gw.propHeader(gtKeyVertex, "color", gtTypeString)
	for _, v := range vertices {
		gw.str(v.Color)
	}
	gw.propHeader(gtKeyVertex, "is_inst", gtTypeBool)
	for _, v := range vertices {
		gw.bool(v.IsInstance())
	}
	gw.propHeader(gtKeyVertex, "width", gtTypeDouble)
	for _, v := range vertices {
		gw.f64(v.Width)
	}
	gw.propHeader(gtKeyVertex, "height", gtTypeDouble)
	for _, v := range vertices {
		gw.f64(v.Height)
	}
	gw.propHeader(gtKeyEdge, "net", gtTypeString)
	for _, e := range ordered {
		gw.str(e.Net)
	}

	if gw.err != nil {
		return fmt.Errorf("write gt: %w", gw.err)
	}
	if err := gw.w.Flush(); err != nil {
		return fmt.Errorf("write gt: %w", err)
	}
	return nil
}

// gtIndexWidth returns the byte width of vertex indices for n vertices.
func gtIndexWidth(n int) int {
	switch {
	case n <= math.MaxUint8:
		return 1
	case n <= math.MaxUint16:
		return 2
	case uint64(n) <= math.MaxUint32:
		return 4
	default:
		return 8
	}
}

// gtWriter accumulates the first write error, like bufio.Writer.
type gtWriter struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func (w *gtWriter) bytes(b []byte) {
	if w.err == nil {
		_, w.err = w.w.Write(b)
	}
}

func (w *gtWriter) u8(v uint8) { w.bytes([]byte{v}) }

func (w *gtWriter) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *gtWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:], v)
	w.bytes(w.buf[:8])
}

func (w *gtWriter) f64(v float64) { w.u64(math.Float64bits(v)) }

func (w *gtWriter) str(s string) {
	w.u64(uint64(len(s)))
	w.bytes([]byte(s))
}

func (w *gtWriter) index(v uint64, width int) {
	switch width {
	case 1:
		w.u8(uint8(v))
	case 2:
		binary.LittleEndian.PutUint16(w.buf[:], uint16(v))
		w.bytes(w.buf[:2])
	case 4:
		binary.LittleEndian.PutUint32(w.buf[:], uint32(v))
		w.bytes(w.buf[:4])
	default:
		w.u64(v)
	}
}

func (w *gtWriter) propHeader(key uint8, name string, typ uint8) {
	w.u8(key)
	w.str(name)
	w.u8(typ)
}

// ReadGT decodes a .gt file written by [WriteGT].
//
// Only the property value types WriteGT emits (bool, double, string) are
// understood; files with other property types are rejected. Vertex kind is
// taken from is_inst, and edges come back grouped by driver.
func ReadGT(r io.Reader) (*graph.Graph, error) {
	gr := &gtReader{r: bufio.NewReader(r)}

	magic := gr.bytes(len(gtMagic))
	if gr.err == nil && !bytes.Equal(magic, gtMagic) {
		return nil, fmt.Errorf("read gt: bad magic %q", magic)
	}
	if v := gr.u8(); gr.err == nil && v != gtVersion {
		return nil, fmt.Errorf("read gt: unsupported version %d", v)
	}
	if e := gr.u8(); gr.err == nil && e != 0 {
		return nil, fmt.Errorf("read gt: big-endian files are not supported")
	}
	gr.str() // comment
	directed := gr.u8() != 0
	n := gr.u64()
	if gr.err != nil {
		return nil, fmt.Errorf("read gt: %w", gr.err)
	}
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("read gt: vertex count %d too large", n)
	}
	width := gtIndexWidth(int(n))

	type pair struct{ from, to int }
	var adjacency []pair
	// Every vertex has a degree word in the adjacency section, so reading it
	// in full bounds n by the input size before anything is sized by n.
	for v := range int(n) {
		if gr.err != nil {
			break
		}
		deg := gr.u64()
		for range deg {
			if gr.err != nil {
				break
			}
			adjacency = append(adjacency, pair{v, int(gr.index(width))})
		}
	}

	if gr.err != nil {
		return nil, fmt.Errorf("read gt: adjacency: %w", gr.err)
	}

	vertices := make([]graph.Vertex, n)
	nets := make([]string, len(adjacency))
	count := gr.u64()
	for range count {
		if gr.err != nil {
			break
		}
		key, name, typ := gr.u8(), gr.str(), gr.u8()
		size := len(vertices)
		switch key {
		case gtKeyGraph:
			size = 1
		case gtKeyEdge:
			size = len(adjacency)
		}
		for i := range size {
			var val any
			switch typ {
			case gtTypeBool:
				val = gr.u8() != 0
			case gtTypeDouble:
				val = math.Float64frombits(gr.u64())
			case gtTypeString:
				val = gr.str()
			default:
				return nil, fmt.Errorf("read gt: property %q has unsupported type %d", name, typ)
			}
			if gr.err != nil {
				break
			}
			switch key {
			case gtKeyVertex:
				setGTVertexProp(&vertices[i], name, val)
			case gtKeyEdge:
				if s, ok := val.(string); ok && name == "net" {
					nets[i] = s
				}
			}
		}
	}
	if gr.err != nil {
		return nil, fmt.Errorf("read gt: %w", gr.err)
	}

	g := graph.New(directed)
	for i, v := range vertices {
		if _, err := g.AddVertex(v); err != nil {
			return nil, fmt.Errorf("read gt: vertex %d %q: %w", i, v.Name, err)
		}
	}
	for i, p := range adjacency {
		if err := g.AddEdge(graph.Edge{From: p.from, To: p.to, Net: nets[i]}); err != nil {
			return nil, fmt.Errorf("read gt: edge %d: %w", i, err)
		}
	}
	return g, nil
}

func setGTVertexProp(v *graph.Vertex, name string, val any) {
	switch x := val.(type) {
	case string:
		switch name {
		case "name":
			v.Name = x
		case "color":
			v.Color = x
		}
	case bool:
		if name == "is_inst" && !x {
			v.Kind = graph.KindPin
		}
	case float64:
		switch name {
		case "width":
			v.Width = x
		case "height":
			v.Height = x
		}
	}
}

// gtChunk is the largest read allocated up front.
const gtChunk = 64 << 10

type gtReader struct {
	r   *bufio.Reader
	err error
}

func (r *gtReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n <= gtChunk {
		b := make([]byte, n)
		_, r.err = io.ReadFull(r.r, b)
		return b
	}
	// Large reads grow with the data actually present.
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r.r, int64(n)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return nil
	}
	return buf.Bytes()
}

func (r *gtReader) u8() uint8 {
	if b := r.bytes(1); b != nil && r.err == nil {
		return b[0]
	}
	return 0
}

func (r *gtReader) u64() uint64 {
	if b := r.bytes(8); r.err == nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *gtReader) str() string {
	n := r.u64()
	if r.err != nil {
		return ""
	}
	if n > 1<<30 {
		r.err = fmt.Errorf("string length %d too large", n)
		return ""
	}
	return string(r.bytes(int(n)))
}

func (r *gtReader) index(width int) uint64 {
	b := r.bytes(width)
	if r.err != nil {
		return 0
	}
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}
