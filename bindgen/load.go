package bindgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the structured document syntax a specification file is
// written in.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "TOML"
	case FormatYAML:
		return "YAML"
	default:
		return "unknown"
	}
}

// FormatForFilename chooses a format from the file extension. Anything that
// isn't recognizably YAML is treated as TOML, which is what specification
// files have traditionally been written in.
func FormatForFilename(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Load reads and parses the specification file at the given path.
func Load(filename string) (*Spec, error) {
	spec, _, err := LoadSource(filename)
	return spec, err
}

// LoadSource is like Load but also returns the exact bytes that were parsed.
func LoadSource(filename string) (*Spec, []byte, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	spec, err := Parse(src, FormatForFilename(filename))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return spec, src, nil
}

// Parse decodes a specification document already held in memory.
func Parse(src []byte, format Format) (*Spec, error) {
	var raw rawSpec
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(src)).Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(src, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported spec format %s", format)
	}
	return raw.spec()
}

// The raw types mirror the public model but use pointers so that we can
// tell an absent field apart from a zero value. Unknown keys are ignored.

type rawArg struct {
	Name *string `toml:"name" yaml:"name"`
	Reg  *string `toml:"reg" yaml:"reg"`
	Ty   *string `toml:"ty" yaml:"ty"`
}

type rawBinding struct {
	Name   *string   `toml:"name" yaml:"name"`
	Offset *uint32   `toml:"offset" yaml:"offset"`
	Args   *[]rawArg `toml:"args" yaml:"args"`
	Ret    *string   `toml:"ret" yaml:"ret"`
}

type rawSpec struct {
	InterruptNumber  *uint16       `toml:"interrupt_number" yaml:"interrupt_number"`
	FunctionSig      *uint16       `toml:"function_sig" yaml:"function_sig"`
	FunctionRegister *string       `toml:"function_register" yaml:"function_register"`
	Bindings         *[]rawBinding `toml:"bindings" yaml:"bindings"`
}

func (r *rawSpec) spec() (*Spec, error) {
	if r.InterruptNumber == nil {
		return nil, &MissingFieldError{Path: "interrupt_number"}
	}
	if r.FunctionRegister == nil {
		return nil, &MissingFieldError{Path: "function_register"}
	}
	if r.Bindings == nil {
		return nil, &MissingFieldError{Path: "bindings"}
	}

	ret := &Spec{
		InterruptNumber:  *r.InterruptNumber,
		FunctionSig:      r.FunctionSig,
		FunctionRegister: *r.FunctionRegister,
		Bindings:         make([]Binding, 0, len(*r.Bindings)),
	}

	for i, rb := range *r.Bindings {
		path := fmt.Sprintf("bindings[%d]", i)
		switch {
		case rb.Name == nil:
			return nil, &MissingFieldError{Path: path + ".name"}
		case rb.Offset == nil:
			return nil, &MissingFieldError{Path: path + ".offset"}
		case rb.Args == nil:
			return nil, &MissingFieldError{Path: path + ".args"}
		case rb.Ret == nil:
			return nil, &MissingFieldError{Path: path + ".ret"}
		}

		b := Binding{
			Name:   *rb.Name,
			Offset: *rb.Offset,
			Args:   make([]ArgSpec, 0, len(*rb.Args)),
			Ret:    *rb.Ret,
		}
		for j, ra := range *rb.Args {
			argPath := fmt.Sprintf("%s.args[%d]", path, j)
			switch {
			case ra.Name == nil:
				return nil, &MissingFieldError{Path: argPath + ".name"}
			case ra.Reg == nil:
				return nil, &MissingFieldError{Path: argPath + ".reg"}
			case ra.Ty == nil:
				return nil, &MissingFieldError{Path: argPath + ".ty"}
			}
			b.Args = append(b.Args, ArgSpec{
				Name: *ra.Name,
				Reg:  *ra.Reg,
				Ty:   *ra.Ty,
			})
		}

		ret.Bindings = append(ret.Bindings, b)
	}

	return ret, nil
}
