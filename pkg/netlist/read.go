package netlist

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/netgraph/pkg/errors"
)

// Format identifies a netlist description format.
type Format string

// Supported netlist formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatHCL}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer netlist format from %q (want .json, .yaml, .toml or .hcl)", filepath.Base(path))
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if f == "yml" {
		f = FormatYAML
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown netlist format %q", s)
}

// ReadFile reads and decodes the netlist at path.
func ReadFile(path string) (*Design, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, format, path)
}

// Decode reads a netlist of the given format from r.
func Decode(r io.Reader, format Format) (*Design, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read netlist: %w", err)
	}
	return Parse(data, format, "netlist."+string(format))
}

// Parse decodes a netlist from data. The filename is only used in
// diagnostics and as the default design name.
func Parse(data []byte, format Format, filename string) (*Design, error) {
	var (
		doc fileNetlist
		err error
	)
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatHCL:
		doc, err = decodeHCL(data, filename)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown netlist format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNetlist, err, "decode %s", filepath.Base(filename))
	}
	if doc.Design == "" {
		doc.Design = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return doc.toDesign()
}

type fileNetlist struct {
	Design    string         `json:"design" yaml:"design" toml:"design"`
	Masters   []fileMaster   `json:"masters" yaml:"masters" toml:"masters" validate:"dive"`
	Instances []fileInstance `json:"instances" yaml:"instances" toml:"instances" validate:"dive"`
	Pins      []filePin      `json:"pins" yaml:"pins" toml:"pins" validate:"dive"`
	Nets      []fileNet      `json:"nets" yaml:"nets" toml:"nets" validate:"dive"`
}

type fileMaster struct {
	Name   string  `json:"name" yaml:"name" toml:"name" validate:"required"`
	Width  float64 `json:"width" yaml:"width" toml:"width" validate:"gte=0"`
	Height float64 `json:"height" yaml:"height" toml:"height" validate:"gte=0"`
}

type fileInstance struct {
	Name   string `json:"name" yaml:"name" toml:"name" validate:"required"`
	Master string `json:"master" yaml:"master" toml:"master" validate:"required"`
}

type filePin struct {
	Name      string `json:"name" yaml:"name" toml:"name" validate:"required"`
	Direction string `json:"direction" yaml:"direction" toml:"direction" validate:"required,direction"`
}

type fileNet struct {
	Name    string      `json:"name" yaml:"name" toml:"name" validate:"required"`
	Special bool        `json:"special,omitempty" yaml:"special" toml:"special"`
	ITerms  []fileITerm `json:"iterms,omitempty" yaml:"iterms" toml:"iterms" validate:"dive"`
	BTerms  []fileBTerm `json:"bterms,omitempty" yaml:"bterms" toml:"bterms" validate:"dive"`
}

type fileITerm struct {
	Instance  string `json:"instance" yaml:"instance" toml:"instance" validate:"required"`
	Pin       string `json:"pin,omitempty" yaml:"pin" toml:"pin"`
	Direction string `json:"direction" yaml:"direction" toml:"direction" validate:"required,direction"`
}

type fileBTerm struct {
	Pin       string `json:"pin" yaml:"pin" toml:"pin" validate:"required"`
	Direction string `json:"direction,omitempty" yaml:"direction" toml:"direction" validate:"omitempty,direction"`
}

// validate is the shared validator for netlist records.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
		_, ok := ParseDirection(fl.Field().String())
		return ok
	})
}

func (doc *fileNetlist) toDesign() (*Design, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, validationError(err)
	}

	d := NewDesign(doc.Design)
	for _, m := range doc.Masters {
		if err := d.AddMaster(Master{Name: m.Name, Width: m.Width, Height: m.Height}); err != nil {
			return nil, err
		}
	}
	for _, inst := range doc.Instances {
		if err := d.AddInstance(inst.Name, inst.Master); err != nil {
			return nil, err
		}
	}

	pinDirs := make(map[string]Direction, len(doc.Pins))
	for _, p := range doc.Pins {
		dir, _ := ParseDirection(p.Direction)
		if err := d.AddPin(Pin{Name: p.Name, Direction: dir}); err != nil {
			return nil, err
		}
		pinDirs[p.Name] = dir
	}

	for _, n := range doc.Nets {
		net := Net{
			Name:    n.Name,
			Special: n.Special,
			ITerms:  make([]ITerm, 0, len(n.ITerms)),
			BTerms:  make([]BTerm, 0, len(n.BTerms)),
		}
		for _, it := range n.ITerms {
			dir, _ := ParseDirection(it.Direction)
			net.ITerms = append(net.ITerms, ITerm{Instance: it.Instance, Pin: it.Pin, Direction: dir})
		}
		for _, bt := range n.BTerms {
			dir, ok := ParseDirection(bt.Direction)
			if !ok {
				dir = pinDirs[bt.Pin]
			}
			net.BTerms = append(net.BTerms, BTerm{Pin: bt.Pin, Direction: dir})
		}
		if err := d.AddNet(net); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.TrimPrefix(fe.Namespace(), "fileNetlist.")
		switch fe.Tag() {
		case "required":
			return errors.New(errors.ErrCodeInvalidNetlist, "%s is required", field)
		case "direction":
			return errors.New(errors.ErrCodeInvalidNetlist, "%s: invalid direction %q (want INPUT, OUTPUT or INOUT)", field, fe.Value())
		default:
			return errors.New(errors.ErrCodeInvalidNetlist, "%s: failed %q constraint", field, fe.Tag())
		}
	}
	return errors.Wrap(errors.ErrCodeInvalidNetlist, err, "validate netlist")
}
