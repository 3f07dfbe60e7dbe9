package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/netgraph/pkg/graph"
)

func sample(directed bool) *graph.Graph {
	g := graph.New(directed)
	_, _ = g.AddVertex(graph.Vertex{Name: "u1", Kind: graph.KindInstance, Color: graph.InstanceColor, Width: 1, Height: 2})
	_, _ = g.AddVertex(graph.Vertex{Name: "in", Kind: graph.KindPin, Color: graph.PinColor})
	_ = g.AddEdge(graph.Edge{From: 1, To: 0, Net: "n1"})
	return g
}

func TestToDOT(t *testing.T) {
	tests := []struct {
		name     string
		directed bool
		opts     Options
		want     []string
		notWant  []string
	}{
		{
			name:     "directed",
			directed: true,
			want:     []string{"digraph G {", `"in" -> "u1";`, `"u1" [label="u1", shape=box, fillcolor="#007dff"];`, `shape=ellipse, fillcolor="#ff7c44"`},
			notWant:  []string{"--", `label="n1"`},
		},
		{
			name:    "undirected",
			want:    []string{"graph G {", `"in" -- "u1";`},
			notWant: []string{"digraph", "->"},
		},
		{
			name:     "detailed",
			directed: true,
			opts:     Options{Detailed: true},
			want:     []string{`[label="n1"]`, `1 x 2`, `in 1 / out 0`, `in 0 / out 1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(sample(tt.directed), tt.opts)
			for _, s := range tt.want {
				if !strings.Contains(dot, s) {
					t.Errorf("DOT missing %q:\n%s", s, dot)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(dot, s) {
					t.Errorf("DOT should not contain %q:\n%s", s, dot)
				}
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))

	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s, want %s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("SVG without viewBox should be unchanged")
	}
}
