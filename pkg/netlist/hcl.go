package netlist

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclFile is the top-level structure of an HCL netlist for decoding.
type hclFile struct {
	Design    string        `hcl:"design,optional"`
	Masters   []hclMaster   `hcl:"master,block"`
	Instances []hclInstance `hcl:"instance,block"`
	Pins      []hclPin      `hcl:"pin,block"`
	Nets      []hclNet      `hcl:"net,block"`
}

type hclMaster struct {
	Name   string  `hcl:"name,label"`
	Width  float64 `hcl:"width"`
	Height float64 `hcl:"height"`
}

type hclInstance struct {
	Name   string `hcl:"name,label"`
	Master string `hcl:"master"`
}

type hclPin struct {
	Name      string `hcl:"name,label"`
	Direction string `hcl:"direction"`
}

type hclNet struct {
	Name    string     `hcl:"name,label"`
	Special bool       `hcl:"special,optional"`
	ITerms  []hclITerm `hcl:"iterm,block"`
	BTerms  []hclBTerm `hcl:"bterm,block"`
}

type hclITerm struct {
	Instance  string `hcl:"instance"`
	Pin       string `hcl:"pin,optional"`
	Direction string `hcl:"direction"`
}

type hclBTerm struct {
	Pin       string `hcl:"pin"`
	Direction string `hcl:"direction,optional"`
}

// decodeHCL parses an HCL netlist into the shared file schema.
func decodeHCL(src []byte, filename string) (fileNetlist, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fileNetlist{}, fmt.Errorf("parse: %w", diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(f.Body, nil, &parsed)
	if diags.HasErrors() {
		return fileNetlist{}, fmt.Errorf("decode: %w", diags)
	}

	doc := fileNetlist{
		Design:    parsed.Design,
		Masters:   make([]fileMaster, len(parsed.Masters)),
		Instances: make([]fileInstance, len(parsed.Instances)),
		Pins:      make([]filePin, len(parsed.Pins)),
		Nets:      make([]fileNet, len(parsed.Nets)),
	}
	for i, m := range parsed.Masters {
		doc.Masters[i] = fileMaster(m)
	}
	for i, inst := range parsed.Instances {
		doc.Instances[i] = fileInstance(inst)
	}
	for i, p := range parsed.Pins {
		doc.Pins[i] = filePin(p)
	}
	for i, n := range parsed.Nets {
		net := fileNet{Name: n.Name, Special: n.Special}
		for _, it := range n.ITerms {
			net.ITerms = append(net.ITerms, fileITerm(it))
		}
		for _, bt := range n.BTerms {
			net.BTerms = append(net.BTerms, fileBTerm(bt))
		}
		doc.Nets[i] = net
	}
	return doc, nil
}
