package connectivity_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/netgraph/pkg/connectivity"
	"github.com/matzehuels/netgraph/pkg/netlist"
)

func ExampleBuild() {
	d := netlist.NewDesign("top")
	_ = d.AddMaster(netlist.Master{Name: "INV_X1", Width: 0.38, Height: 1.4})
	_ = d.AddInstance("A", "INV_X1")
	_ = d.AddInstance("B", "INV_X1")
	_ = d.AddPin(netlist.Pin{Name: "P", Direction: netlist.DirInput})
	_ = d.AddNet(netlist.Net{
		Name:   "N1",
		ITerms: []netlist.ITerm{{Instance: "A", Pin: "A", Direction: netlist.DirInput}},
		BTerms: []netlist.BTerm{{Pin: "P", Direction: netlist.DirInput}},
	})
	_ = d.AddNet(netlist.Net{
		Name: "N2",
		ITerms: []netlist.ITerm{
			{Instance: "A", Pin: "ZN", Direction: netlist.DirOutput},
			{Instance: "B", Pin: "A", Direction: netlist.DirInput},
		},
	})
	_ = d.AddNet(netlist.Net{Name: "VDD", Special: true})

	res, err := connectivity.Build(context.Background(), d, connectivity.Options{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Vertices:", res.Graph.VertexCount())
	fmt.Println("Edges:", res.Graph.EdgePairs())
	fmt.Println("Special nets:", res.Stats.SpecialNets)
	// Output:
	// Vertices: 3
	// Edges: [[P A] [A B]]
	// Special nets: 1
}

func ExampleClassify() {
	c, err := connectivity.Classify(netlist.Net{
		Name: "n1",
		ITerms: []netlist.ITerm{
			{Instance: "u1", Direction: netlist.DirInput},
			{Instance: "u2", Direction: netlist.DirOutput},
		},
		BTerms: []netlist.BTerm{{Pin: "out", Direction: netlist.DirOutput}},
	})
	fmt.Println(c.Driver.Name, len(c.Loads), err)

	_, err = connectivity.Classify(netlist.Net{
		Name: "n2",
		ITerms: []netlist.ITerm{
			{Instance: "u1", Direction: netlist.DirOutput},
			{Instance: "u2", Direction: netlist.DirOutput},
		},
	})
	fmt.Println(err)
	// Output:
	// u2 2 <nil>
	// net "n2": ambiguous driver (u1, u2)
}
