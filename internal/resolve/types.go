package resolve

import (
	"strings"

	"staged-builder-generator/internal/common"
	"staged-builder-generator/internal/diagnostic"
)

//go:generate go tool stringer -type=SetterMode -output=settermode_string.go

// SetterMode enumerates how a field's setters accept and store values.
type SetterMode int

const (
	// ModeNormal - a single setter assigning one converted value.
	ModeNormal SetterMode = iota
	// ModeList - push/overwrite/extend setters over a list-style collection.
	ModeList
	// ModeSet - insert/overwrite/extend setters over a set-style collection.
	ModeSet
	// ModeMap - insert/overwrite/extend setters over a map-style collection.
	ModeMap
)

// ConversionKind enumerates the three mutually exclusive conversion forms.
type ConversionKind int

const (
	// ConversionIdentity - parameter type equals stored type, no transform.
	ConversionIdentity ConversionKind = iota
	// ConversionInto - the stored value is produced by a plain Go conversion
	// of the parameter to the stored type.
	ConversionInto
	// ConversionCustom - an explicitly supplied callable produces the stored
	// value from the parameter.
	ConversionCustom
)

// String returns a human-readable conversion kind name.
func (k ConversionKind) String() string {
	switch k {
	case ConversionIdentity:
		return "identity"
	case ConversionInto:
		return "into"
	case ConversionCustom:
		return "custom"
	default:
		return common.UnknownStr
	}
}

// ConversionPolicy describes how a single setter parameter is typed and
// converted into its stored representation.
type ConversionPolicy struct {
	// Kind selects identity, into, or custom conversion.
	Kind ConversionKind
	// ParamType is the Go type the setter accepts.
	ParamType string
	// StoredType is the type the converted value is stored as.
	StoredType string
	// Convert is the callable Go expression applied to the parameter.
	// Only set for custom conversions.
	Convert string
	// ConvertFn is an optional in-process conversion used when a plan is
	// interpreted at runtime rather than emitted as source; nil means
	// identity.
	ConvertFn func(any) any
}

// Expr returns the Go expression producing the stored value from arg.
func (p ConversionPolicy) Expr(arg string) string {
	switch p.Kind {
	case ConversionInto:
		return p.StoredType + "(" + arg + ")"
	case ConversionCustom:
		// Closure expressions are parenthesized so they can be invoked
		// directly.
		if strings.HasPrefix(strings.TrimSpace(p.Convert), "func") {
			return "(" + p.Convert + ")(" + arg + ")"
		}

		return p.Convert + "(" + arg + ")"
	default:
		return arg
	}
}

// Apply runs the in-process conversion for runtime interpretation.
func (p ConversionPolicy) Apply(v any) any {
	if p.ConvertFn != nil {
		return p.ConvertFn(v)
	}

	return v
}

// FieldDescriptor is the canonical resolved form of one field declaration.
type FieldDescriptor struct {
	// Name is the exported Go field name.
	Name string
	// DeclaredType is the field's stored Go type.
	DeclaredType string
	// Defaultable is true if the field has a default value and is therefore
	// settable only from the terminal stage.
	Defaultable bool
	// DefaultExpr is the Go expression materializing the default. Always set
	// when Defaultable is true; it must be re-evaluated fresh for every
	// builder instantiation.
	DefaultExpr string
	// DefaultFn is an optional in-process default used by runtime
	// interpretation; nil falls back to the type's zero value or an empty
	// collection.
	DefaultFn func() any
	// Mode selects normal or collection setter semantics.
	Mode SetterMode
	// Param is the conversion policy for ModeNormal setters.
	Param ConversionPolicy
	// Elem is the item conversion policy for ModeList and ModeSet.
	Elem ConversionPolicy
	// Key and Value are the independent conversion policies for ModeMap.
	Key   ConversionPolicy
	Value ConversionPolicy
	// StageName optionally overrides the generated stage type name.
	StageName string
}

// IsRequired returns true if the field must be assigned through its own
// builder stage.
func (f *FieldDescriptor) IsRequired() bool {
	return !f.Defaultable
}

// IsCollection returns true for list, set, and map setter modes.
func (f *FieldDescriptor) IsCollection() bool {
	return f.Mode != ModeNormal
}

// StructOptions is the resolved struct-level configuration. Naming overrides
// are cosmetic: they never affect the construction protocol.
type StructOptions struct {
	// Name is the record's Go type name.
	Name string
	// Package is the target Go package name for generated code.
	Package string
	// Validate makes the terminal build operation fallible.
	Validate bool
	// Update enables converting an already-built value back into the
	// terminal stage.
	Update bool
	// BuilderName is the entry function name.
	BuilderName string
	// TerminalName is the terminal stage type name.
	TerminalName string
	// EmitStruct also emits the record struct declaration.
	EmitStruct bool
	// Imports lists import paths that default or convert expressions may
	// reference.
	Imports []string
}

// StructModel is the canonical resolved form of one struct declaration:
// struct options plus fields in declaration order.
type StructModel struct {
	Options StructOptions
	Fields  []FieldDescriptor
}

// RequiredCount returns the number of non-defaultable fields.
func (m *StructModel) RequiredCount() int {
	n := 0

	for i := range m.Fields {
		if m.Fields[i].IsRequired() {
			n++
		}
	}

	return n
}

// Schema is the resolved form of a whole schema file.
type Schema struct {
	// Structs holds one model per well-formed struct declaration.
	Structs []StructModel
	// Diagnostics contains every error and warning found during resolution.
	Diagnostics diagnostic.Diagnostics
}
