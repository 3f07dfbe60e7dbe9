package connectivity

import (
	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/netlist"
)

// Endpoint is a terminal reduced to the element it belongs to.
type Endpoint struct {
	Name string
	Kind graph.Kind
}

// Classification is the driver and loads of one net.
type Classification struct {
	Net     string
	Special bool       // Special nets have no driver and no loads
	Driver  Endpoint   // Sole driver
	Loads   []Endpoint // Loads in terminal order, instance terminals first
}

// Classify splits a net into its driver and loads.
//
// Special nets are returned with Special set and nothing else. For other nets
// the error is a *errors.NetError of kind ambiguous driver or unconnected
// net. Classify does not check that the named elements exist.
func Classify(n netlist.Net) (Classification, error) {
	c := Classification{Net: n.Name}
	if n.Special {
		c.Special = true
		return c, nil
	}

	var drivers []Endpoint
	for _, it := range n.ITerms {
		ep := Endpoint{Name: it.Instance, Kind: graph.KindInstance}
		if it.Direction == netlist.DirOutput {
			drivers = append(drivers, ep)
		} else {
			c.Loads = append(c.Loads, ep)
		}
	}
	for _, bt := range n.BTerms {
		ep := Endpoint{Name: bt.Pin, Kind: graph.KindPin}
		if bt.Direction == netlist.DirInput {
			drivers = append(drivers, ep)
		} else {
			c.Loads = append(c.Loads, ep)
		}
	}

	switch len(drivers) {
	case 1:
		c.Driver = drivers[0]
		return c, nil
	case 0:
		return Classification{Net: n.Name}, &errors.NetError{Net: n.Name, Kind: errors.ViolationUnconnectedNet}
	default:
		names := make([]string, len(drivers))
		for i, d := range drivers {
			names[i] = d.Name
		}
		return Classification{Net: n.Name}, &errors.NetError{Net: n.Name, Kind: errors.ViolationAmbiguousDriver, Drivers: names}
	}
}

// resolve maps an endpoint to its vertex. An endpoint whose name is missing,
// or names a vertex of the other kind, is dangling.
func resolve(g *graph.Graph, net string, ep Endpoint) (int, error) {
	i, ok := g.Lookup(ep.Name)
	if ok {
		if v, _ := g.Vertex(i); v.Kind == ep.Kind {
			return i, nil
		}
	}
	return -1, &errors.NetError{Net: net, Kind: errors.ViolationDanglingTerminal, Terminal: ep.Name}
}

// netEdges classifies n and resolves it against g's name index. It only reads
// g, so calls for different nets may run concurrently.
func netEdges(g *graph.Graph, n netlist.Net) (edges []graph.Edge, special bool, err error) {
	c, err := Classify(n)
	if err != nil {
		return nil, false, err
	}
	if c.Special {
		return nil, true, nil
	}

	from, err := resolve(g, n.Name, c.Driver)
	if err != nil {
		return nil, false, err
	}

	seen := make(map[int]struct{}, len(c.Loads))
	edges = make([]graph.Edge, 0, len(c.Loads))
	for _, load := range c.Loads {
		to, err := resolve(g, n.Name, load)
		if err != nil {
			return nil, false, err
		}
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}
		edges = append(edges, graph.Edge{From: from, To: to, Net: n.Name})
	}
	return edges, false, nil
}
