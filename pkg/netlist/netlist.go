package netlist

import (
	"slices"
	"strings"

	"github.com/matzehuels/netgraph/pkg/errors"
)

// Direction is the signal direction of a pin or terminal.
type Direction int

const (
	// DirUnknown is the zero value; it never drives a net.
	DirUnknown Direction = iota
	DirInput
	DirOutput
	DirInout
)

// String returns the upper-case DEF spelling of the direction.
func (d Direction) String() string {
	switch d {
	case DirInput:
		return "INPUT"
	case DirOutput:
		return "OUTPUT"
	case DirInout:
		return "INOUT"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection parses INPUT, OUTPUT or INOUT, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INPUT":
		return DirInput, true
	case "OUTPUT":
		return DirOutput, true
	case "INOUT":
		return DirInout, true
	}
	return DirUnknown, false
}

// Master is a library cell with a fixed footprint.
type Master struct {
	Name   string
	Width  float64
	Height float64
}

// Instance is a placed occurrence of a Master.
type Instance struct {
	Name   string
	Master *Master
}

// Pin is a boundary terminal of the design. Its direction is relative to the
// chip: an INPUT pin receives a signal from outside.
type Pin struct {
	Name      string
	Direction Direction
}

// ITerm is an instance terminal participating in a net.
type ITerm struct {
	Instance  string    // Owning instance
	Pin       string    // Master pin name (informational)
	Direction Direction // Direction relative to the instance
}

// BTerm is a boundary terminal participating in a net.
type BTerm struct {
	Pin       string
	Direction Direction
}

// Net is a named signal and the terminals it connects. Special nets are
// power/ground nets.
type Net struct {
	Name    string
	Special bool
	ITerms  []ITerm
	BTerms  []BTerm
}

// Provider is the read-only view of a netlist consumed by graph construction.
// Implementations may be backed by files, databases or in-memory models.
type Provider interface {
	Instances() ([]Instance, error)
	Pins() ([]Pin, error)
	Nets() ([]Net, error)
}

// Design is an in-memory netlist and the default Provider.
//
// The zero value is not usable - use NewDesign. Design is not safe for
// concurrent mutation.
type Design struct {
	name      string
	masters   map[string]*Master
	instances []Instance
	pins      []Pin
	nets      []Net
}

// NewDesign creates an empty design.
func NewDesign(name string) *Design {
	return &Design{name: name, masters: make(map[string]*Master)}
}

// Name returns the design name.
func (d *Design) Name() string { return d.name }

// AddMaster registers a cell master. Master names must be unique.
func (d *Design) AddMaster(m Master) error {
	if err := errors.ValidateName("master", m.Name); err != nil {
		return err
	}
	if _, exists := d.masters[m.Name]; exists {
		return errors.New(errors.ErrCodeInvalidNetlist, "duplicate master %q", m.Name)
	}
	if m.Width < 0 || m.Height < 0 {
		return errors.New(errors.ErrCodeInvalidNetlist, "master %q has negative dimensions", m.Name)
	}
	d.masters[m.Name] = &m
	return nil
}

// Master returns the master with the given name.
func (d *Design) Master(name string) (*Master, bool) {
	m, ok := d.masters[name]
	return m, ok
}

// AddInstance adds an instance of a registered master.
// Instance names are not checked for uniqueness here; graph construction
// rejects collisions.
func (d *Design) AddInstance(name, master string) error {
	if err := errors.ValidateName("instance", name); err != nil {
		return err
	}
	m, ok := d.masters[master]
	if !ok {
		return errors.New(errors.ErrCodeInvalidNetlist, "instance %q: unknown master %q", name, master)
	}
	d.instances = append(d.instances, Instance{Name: name, Master: m})
	return nil
}

// AddPin adds a boundary pin.
func (d *Design) AddPin(p Pin) error {
	if err := errors.ValidateName("pin", p.Name); err != nil {
		return err
	}
	d.pins = append(d.pins, p)
	return nil
}

// AddNet adds a net. Terminals are kept as given; references to unknown
// instances or pins are reported by graph construction, not here.
func (d *Design) AddNet(n Net) error {
	if err := errors.ValidateName("net", n.Name); err != nil {
		return err
	}
	d.nets = append(d.nets, n)
	return nil
}

// Instances returns a copy of the instances in insertion order.
func (d *Design) Instances() ([]Instance, error) { return slices.Clone(d.instances), nil }

// Pins returns a copy of the pins in insertion order.
func (d *Design) Pins() ([]Pin, error) { return slices.Clone(d.pins), nil }

// Nets returns a copy of the nets in insertion order.
func (d *Design) Nets() ([]Net, error) { return slices.Clone(d.nets), nil }

// Summary holds element counts of a design.
type Summary struct {
	Masters     int
	Instances   int
	Pins        int
	Nets        int
	SpecialNets int
	ITerms      int
	BTerms      int
}

// Summary counts the design's elements.
func (d *Design) Summary() Summary {
	s := Summary{
		Masters:   len(d.masters),
		Instances: len(d.instances),
		Pins:      len(d.pins),
		Nets:      len(d.nets),
	}
	for _, n := range d.nets {
		if n.Special {
			s.SpecialNets++
		}
		s.ITerms += len(n.ITerms)
		s.BTerms += len(n.BTerms)
	}
	return s
}

var _ Provider = (*Design)(nil)
