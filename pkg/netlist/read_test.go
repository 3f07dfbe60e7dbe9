package netlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/netgraph/pkg/errors"
)

const jsonNetlist = `{
  "design": "top",
  "masters": [{"name": "INV_X1", "width": 0.38, "height": 1.4}],
  "instances": [{"name": "u1", "master": "INV_X1"}, {"name": "u2", "master": "INV_X1"}],
  "pins": [{"name": "in", "direction": "INPUT"}, {"name": "out", "direction": "OUTPUT"}],
  "nets": [
    {"name": "n1", "iterms": [{"instance": "u1", "pin": "A", "direction": "INPUT"}], "bterms": [{"pin": "in"}]},
    {"name": "n2", "iterms": [{"instance": "u1", "pin": "ZN", "direction": "OUTPUT"}, {"instance": "u2", "pin": "A", "direction": "input"}]},
    {"name": "n3", "iterms": [{"instance": "u2", "pin": "ZN", "direction": "OUTPUT"}], "bterms": [{"pin": "out", "direction": "OUTPUT"}]},
    {"name": "VDD", "special": true, "iterms": [{"instance": "u1", "pin": "VDD", "direction": "INOUT"}]}
  ]
}`

const yamlNetlist = `
design: top
masters:
  - {name: INV_X1, width: 0.38, height: 1.4}
instances:
  - {name: u1, master: INV_X1}
  - {name: u2, master: INV_X1}
pins:
  - {name: in, direction: INPUT}
  - {name: out, direction: OUTPUT}
nets:
  - name: n1
    iterms: [{instance: u1, pin: A, direction: INPUT}]
    bterms: [{pin: in}]
  - name: n2
    iterms:
      - {instance: u1, pin: ZN, direction: OUTPUT}
      - {instance: u2, pin: A, direction: input}
  - name: n3
    iterms: [{instance: u2, pin: ZN, direction: OUTPUT}]
    bterms: [{pin: out, direction: OUTPUT}]
  - name: VDD
    special: true
    iterms: [{instance: u1, pin: VDD, direction: INOUT}]
`

const tomlNetlist = `
design = "top"

[[masters]]
name = "INV_X1"
width = 0.38
height = 1.4

[[instances]]
name = "u1"
master = "INV_X1"

[[instances]]
name = "u2"
master = "INV_X1"

[[pins]]
name = "in"
direction = "INPUT"

[[pins]]
name = "out"
direction = "OUTPUT"

[[nets]]
name = "n1"
iterms = [{instance = "u1", pin = "A", direction = "INPUT"}]
bterms = [{pin = "in"}]

[[nets]]
name = "n2"
iterms = [
  {instance = "u1", pin = "ZN", direction = "OUTPUT"},
  {instance = "u2", pin = "A", direction = "input"},
]

[[nets]]
name = "n3"
iterms = [{instance = "u2", pin = "ZN", direction = "OUTPUT"}]
bterms = [{pin = "out", direction = "OUTPUT"}]

[[nets]]
name = "VDD"
special = true
iterms = [{instance = "u1", pin = "VDD", direction = "INOUT"}]
`

const hclNetlist = `
design = "top"

master "INV_X1" {
  width  = 0.38
  height = 1.4
}

instance "u1" { master = "INV_X1" }
instance "u2" { master = "INV_X1" }

pin "in" { direction = "INPUT" }
pin "out" { direction = "OUTPUT" }

net "n1" {
  iterm {
    instance  = "u1"
    pin       = "A"
    direction = "INPUT"
  }
  bterm { pin = "in" }
}

net "n2" {
  iterm {
    instance  = "u1"
    pin       = "ZN"
    direction = "OUTPUT"
  }
  iterm {
    instance  = "u2"
    pin       = "A"
    direction = "input"
  }
}

net "n3" {
  iterm {
    instance  = "u2"
    pin       = "ZN"
    direction = "OUTPUT"
  }
  bterm {
    pin       = "out"
    direction = "OUTPUT"
  }
}

net "VDD" {
  special = true
  iterm {
    instance  = "u1"
    pin       = "VDD"
    direction = "INOUT"
  }
}
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		src    string
	}{
		{"JSON", FormatJSON, jsonNetlist},
		{"YAML", FormatYAML, yamlNetlist},
		{"TOML", FormatTOML, tomlNetlist},
		{"HCL", FormatHCL, hclNetlist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.src), tt.format, "top."+string(tt.format))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			checkTopDesign(t, d)
		})
	}
}

func checkTopDesign(t *testing.T, d *Design) {
	t.Helper()

	if d.Name() != "top" {
		t.Errorf("Name = %q, want top", d.Name())
	}
	want := Summary{Masters: 1, Instances: 2, Pins: 2, Nets: 4, SpecialNets: 1, ITerms: 5, BTerms: 2}
	if got := d.Summary(); got != want {
		t.Errorf("Summary = %+v, want %+v", got, want)
	}

	insts, _ := d.Instances()
	if insts[0].Name != "u1" || insts[0].Master.Width != 0.38 || insts[0].Master.Height != 1.4 {
		t.Errorf("instance u1 = %+v (master %+v)", insts[0], insts[0].Master)
	}

	nets, _ := d.Nets()
	if got := nets[0].BTerms[0].Direction; got != DirInput {
		t.Errorf("n1 bterm direction = %v, want INPUT (inherited from pin)", got)
	}
	if got := nets[1].ITerms[1].Direction; got != DirInput {
		t.Errorf("n2 lower-case direction = %v, want INPUT", got)
	}
	if got := nets[2].BTerms[0].Direction; got != DirOutput {
		t.Errorf("n3 bterm direction = %v, want OUTPUT", got)
	}
	if !nets[3].Special || nets[3].ITerms[0].Direction != DirInout {
		t.Errorf("VDD = %+v", nets[3])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantCode errors.Code
		wantMsg  string
	}{
		{
			name:     "malformed",
			src:      `{"instances": [`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "unknown field",
			src:      `{"cells": []}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "missing instance name",
			src:      `{"masters": [{"name": "M", "width": 1, "height": 1}], "instances": [{"master": "M"}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
			wantMsg:  "Instances[0].Name is required",
		},
		{
			name:     "bad direction",
			src:      `{"pins": [{"name": "p", "direction": "SIDEWAYS"}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
			wantMsg:  "invalid direction",
		},
		{
			name:     "negative width",
			src:      `{"masters": [{"name": "M", "width": -1, "height": 1}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "unknown master",
			src:      `{"instances": [{"name": "u1", "master": "NOPE"}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
			wantMsg:  `unknown master "NOPE"`,
		},
		{
			name:     "duplicate master",
			src:      `{"masters": [{"name": "M", "width": 1, "height": 1}, {"name": "M", "width": 2, "height": 2}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
		{
			name:     "control character",
			src:      `{"pins": [{"name": "a\u0001b", "direction": "INPUT"}]}`,
			wantCode: errors.ErrCodeInvalidNetlist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), FormatJSON, "bad.json")
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.wantCode, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDanglingTerminalsAccepted(t *testing.T) {
	src := `{"nets": [{"name": "n1", "iterms": [{"instance": "ghost", "direction": "OUTPUT"}], "bterms": [{"pin": "nowhere"}]}]}`
	d, err := Parse([]byte(src), FormatJSON, "dangling.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	nets, _ := d.Nets()
	if got := nets[0].BTerms[0].Direction; got != DirUnknown {
		t.Errorf("direction of unknown pin = %v, want UNKNOWN", got)
	}
	if d.Name() != "dangling" {
		t.Errorf("default design name = %q, want dangling", d.Name())
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "top.yml")
	if err := os.WriteFile(path, []byte(yamlNetlist), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	checkTopDesign(t, d)

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: got %v", err)
	}
	if _, err := ReadFile(filepath.Join(dir, "top.def")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension: got %v", err)
	}
}

func TestDecode(t *testing.T) {
	d, err := Decode(strings.NewReader(tomlNetlist), FormatTOML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	checkTopDesign(t, d)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"toml", FormatTOML, false},
		{"hcl", FormatHCL, false},
		{"def", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDirection(t *testing.T) {
	for _, s := range []string{"INPUT", "OUTPUT", "INOUT"} {
		d, ok := ParseDirection(s)
		if !ok || d.String() != s {
			t.Errorf("ParseDirection(%q) = %v, %v", s, d, ok)
		}
	}
	if _, ok := ParseDirection("FEEDTHRU"); ok {
		t.Error("ParseDirection(FEEDTHRU) should fail")
	}
	if DirUnknown.String() != "UNKNOWN" {
		t.Errorf("DirUnknown.String() = %q", DirUnknown.String())
	}
}
