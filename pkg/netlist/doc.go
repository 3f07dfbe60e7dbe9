// Package netlist provides the circuit netlist model consumed by graph
// construction, and readers that load it from description files.
//
// # Model
//
// A netlist is made of cell [Instance] values (each bound to a [Master] with a
// fixed footprint), boundary [Pin] values and [Net] values. A net connects
// instance terminals ([ITerm]) and boundary terminals ([BTerm]); special nets
// are power/ground nets.
//
// Graph construction only sees a netlist through the [Provider] interface.
// [Design] is the in-memory implementation returned by the readers.
//
// # File Formats
//
// [ReadFile] selects a decoder from the file extension:
//
//   - .json: encoding/json
//   - .yaml, .yml: gopkg.in/yaml.v3
//   - .toml: github.com/BurntSushi/toml
//   - .hcl: github.com/hashicorp/hcl/v2
//
// JSON, YAML and TOML share one schema:
//
//	{
//	  "design": "top",
//	  "masters":   [{"name": "INV_X1", "width": 0.38, "height": 1.4}],
//	  "instances": [{"name": "u1", "master": "INV_X1"}],
//	  "pins":      [{"name": "in", "direction": "INPUT"}],
//	  "nets": [{
//	    "name": "n1",
//	    "iterms": [{"instance": "u1", "pin": "A", "direction": "INPUT"}],
//	    "bterms": [{"pin": "in"}]
//	  }]
//	}
//
// HCL uses labelled blocks:
//
//	design = "top"
//	master "INV_X1" {
//	  width  = 0.38
//	  height = 1.4
//	}
//	instance "u1" { master = "INV_X1" }
//	pin "in" { direction = "INPUT" }
//	net "n1" {
//	  iterm {
//	    instance  = "u1"
//	    direction = "INPUT"
//	  }
//	  bterm { pin = "in" }
//	}
//
// A boundary terminal without a direction inherits the direction of its pin.
// Records are validated (required names, known directions, non-negative
// dimensions, known masters); failures carry the INVALID_NETLIST code.
// Terminals naming unknown instances or pins are accepted here and reported by
// graph construction as referential-integrity errors.
package netlist
