package schema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// File represents the root of a schema definition file.
type File struct {
	// Version of the schema format (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Package is the target Go package name for generated builders.
	// Individual structs may override it.
	Package string `yaml:"package,omitempty"`

	// Imports lists extra import paths needed by default or convert
	// expressions (e.g., "time", "strings").
	Imports []string `yaml:"imports,omitempty"`

	// Structs is the list of record declarations to synthesize builders for.
	Structs []StructDef `yaml:"structs"`
}

// StructDef declares one record type and its struct-level builder options.
type StructDef struct {
	// Name is the Go type name of the record.
	Name string `yaml:"name"`

	// Package overrides the file-level target package for this struct.
	Package string `yaml:"package,omitempty"`

	// Validate makes the terminal Build fallible: the assembled value's
	// Validate() error method is invoked before the value is returned.
	Validate bool `yaml:"validate,omitempty"`

	// Update additionally generates a conversion from an already-built value
	// back into the terminal stage for edit-and-rebuild.
	Update bool `yaml:"update,omitempty"`

	// Builder overrides the entry function name. Defaults to <Name>Builder.
	Builder string `yaml:"builder,omitempty"`

	// Terminal overrides the terminal stage type name.
	// Defaults to <Name>Complete.
	Terminal string `yaml:"terminal,omitempty"`

	// EmitStruct also emits the record struct declaration itself, for types
	// that exist only in the schema.
	EmitStruct bool `yaml:"emit_struct,omitempty"`

	// Fields lists the record's fields in declaration order. The order is
	// load-bearing: it is the order required fields must be assigned in.
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef declares one field and its local option set.
type FieldDef struct {
	// Name is the exported Go field name.
	Name string `yaml:"name"`

	// Type is the field's stored Go type.
	Type string `yaml:"type"`

	// Default marks the field optional. The raw node distinguishes a bare
	// `default:` (zero value) from `default: <expr>`; use HasDefault and
	// DefaultExpr instead of reading it directly.
	Default yaml.Node `yaml:"default,omitempty"`

	// Into makes the setter convert its parameter to the declared type with a
	// plain Go conversion.
	Into bool `yaml:"into,omitempty"`

	// Custom supplies an explicit parameter type and conversion expression.
	Custom *CustomSpec `yaml:"custom,omitempty"`

	// List treats the field as a list-style collection.
	List *SeqSpec `yaml:"list,omitempty"`

	// Set treats the field as a set-style collection.
	Set *SeqSpec `yaml:"set,omitempty"`

	// Map treats the field as a map-style collection.
	Map *MapSpec `yaml:"map,omitempty"`

	// Stage overrides the generated stage type name for this field.
	Stage string `yaml:"stage,omitempty"`
}

// HasDefault returns true if the field carries a default option, bare or with
// an expression.
func (f *FieldDef) HasDefault() bool {
	return f.Default.Kind != 0
}

// DefaultExpr returns the default expression, or the empty string for a bare
// `default:`. It errors if the option holds a non-scalar node.
func (f *FieldDef) DefaultExpr() (string, error) {
	if f.Default.Kind == 0 {
		return "", nil
	}

	if f.Default.Kind != yaml.ScalarNode {
		return "", errors.New("default must be a Go expression, not a collection")
	}

	if f.Default.Tag == "!!null" {
		return "", nil
	}

	return f.Default.Value, nil
}

// CustomSpec is an explicit setter conversion: the parameter type and a
// callable expression producing the stored value.
type CustomSpec struct {
	Type    string `yaml:"type"`
	Convert string `yaml:"convert"`
}

// SeqSpec configures a list- or set-style collection field.
type SeqSpec struct {
	Item *ParamSpec `yaml:"item"`
}

// MapSpec configures a map-style collection field. Key and value conversions
// are independent.
type MapSpec struct {
	Key   *ParamSpec `yaml:"key"`
	Value *ParamSpec `yaml:"value"`
}

// ParamSpec describes how one collection parameter (item, key, or value) is
// typed and converted.
//
// YAML forms supported:
//   - Bare type string: `item: uint32`
//   - Object: `item: {type: model.ID, into: true}`
//   - Custom: `item: {custom: {type: string, convert: strings.ToUpper}}`
type ParamSpec struct {
	Type   string      `yaml:"type,omitempty"`
	Into   bool        `yaml:"into,omitempty"`
	Custom *CustomSpec `yaml:"custom,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting the bare-string form.
func (p *ParamSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("invalid param spec: %w", err)
		}

		*p = ParamSpec{Type: s}

		return nil
	}

	type plain ParamSpec

	var raw plain
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid param spec: %w", err)
	}

	*p = ParamSpec(raw)

	return nil
}
