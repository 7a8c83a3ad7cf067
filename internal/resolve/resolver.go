package resolve

import (
	"errors"
	"fmt"
	"strings"

	"staged-builder-generator/internal/diagnostic"
	"staged-builder-generator/internal/schema"
)

// Resolver performs the resolution pipeline for one schema file.
type Resolver struct {
	file *schema.File
}

// NewResolver creates a new Resolver.
func NewResolver(file *schema.File) *Resolver {
	return &Resolver{file: file}
}

// Resolve runs the full resolution pipeline and returns the resolved schema.
// Malformed declarations never abort the pass: every problem across every
// struct is reported through the returned Diagnostics.
func (r *Resolver) Resolve() (*Schema, error) {
	if r.file == nil {
		return nil, errors.New("schema file is required")
	}

	out := &Schema{}
	seen := make(map[string]bool)

	for i := range r.file.Structs {
		sd := &r.file.Structs[i]

		if sd.Name == "" {
			out.Diagnostics.AddError("missing_name",
				fmt.Sprintf("struct declaration #%d has no name", i+1), "", "")

			continue
		}

		if seen[sd.Name] {
			out.Diagnostics.AddError("duplicate_struct",
				fmt.Sprintf("struct %q declared more than once", sd.Name), sd.Name, "")

			continue
		}

		seen[sd.Name] = true

		if model := r.resolveStruct(sd, &out.Diagnostics); model != nil {
			out.Structs = append(out.Structs, *model)
		}
	}

	return out, nil
}

// resolveStruct resolves a single struct declaration. It returns nil if the
// declaration contributed any error diagnostic.
func (r *Resolver) resolveStruct(
	sd *schema.StructDef,
	diags *diagnostic.Diagnostics,
) *StructModel {
	before := len(diags.Errors)

	if len(sd.Fields) == 0 {
		diags.AddError("not_a_record",
			"staged builders require a plain record of named fields", sd.Name, "")

		return nil
	}

	opts := StructOptions{
		Name:         sd.Name,
		Package:      sd.Package,
		Validate:     sd.Validate,
		Update:       sd.Update,
		BuilderName:  sd.Builder,
		TerminalName: sd.Terminal,
		EmitStruct:   sd.EmitStruct,
		Imports:      r.file.Imports,
	}

	if opts.Package == "" {
		diags.AddError("missing_package",
			"no target package configured for struct", sd.Name, "")
	}

	if opts.BuilderName == "" {
		opts.BuilderName = sd.Name + "Builder"
	}

	if opts.TerminalName == "" {
		opts.TerminalName = sd.Name + "Complete"
	}

	fields := make([]FieldDescriptor, 0, len(sd.Fields))
	names := make(map[string]bool)

	for i := range sd.Fields {
		fd := &sd.Fields[i]

		if fd.Name != "" && names[fd.Name] {
			diags.AddError("duplicate_field",
				fmt.Sprintf("field %q declared more than once", fd.Name), sd.Name, fd.Name)

			continue
		}

		names[fd.Name] = true

		fields = append(fields, resolveField(sd.Name, fd, diags))
	}

	if len(diags.Errors) > before {
		return nil
	}

	return &StructModel{Options: opts, Fields: fields}
}

// resolveField resolves one field's local option set. Every problem is
// reported as its own diagnostic; the returned descriptor is only meaningful
// if no error was added.
func resolveField(
	structName string,
	fd *schema.FieldDef,
	diags *diagnostic.Diagnostics,
) FieldDescriptor {
	if fd.Name == "" {
		diags.AddError("missing_name", "field declaration has no name", structName, "")
	}

	if fd.Type == "" {
		diags.AddError("missing_type",
			fmt.Sprintf("field %q has no type", fd.Name), structName, fd.Name)
	}

	f := FieldDescriptor{
		Name:         fd.Name,
		DeclaredType: fd.Type,
		Mode:         ModeNormal,
		StageName:    fd.Stage,
		Param: ConversionPolicy{
			Kind:       ConversionIdentity,
			ParamType:  fd.Type,
			StoredType: fd.Type,
		},
	}

	collections := 0
	for _, set := range []bool{fd.List != nil, fd.Set != nil, fd.Map != nil} {
		if set {
			collections++
		}
	}

	if collections > 1 {
		diags.AddError("conflicting_options",
			"`list`, `set`, and `map` are mutually exclusive", structName, fd.Name)
	}

	if fd.Into && fd.Custom != nil {
		diags.AddError("conflicting_options",
			"`into` and `custom` are mutually exclusive", structName, fd.Name)
	}

	if (fd.Into || fd.Custom != nil) && collections > 0 {
		diags.AddError("conflicting_options",
			"`into` and `custom` cannot be combined with a collection kind", structName, fd.Name)
	}

	switch {
	case fd.Into:
		f.Param = ConversionPolicy{
			Kind:       ConversionInto,
			ParamType:  fd.Type,
			StoredType: fd.Type,
		}

	case fd.Custom != nil:
		f.Param = customPolicy("custom", fd.Custom, fd.Type, structName, fd.Name, diags)

	case fd.List != nil:
		f.Mode = ModeList
		f.Elem = paramPolicy("list", "item", fd.List.Item, seqElemType(fd.Type), structName, fd.Name, diags)

	case fd.Set != nil:
		f.Mode = ModeSet
		f.Elem = paramPolicy("set", "item", fd.Set.Item, setElemType(fd.Type), structName, fd.Name, diags)

	case fd.Map != nil:
		f.Mode = ModeMap

		keyType, valueType := mapTypes(fd.Type)
		f.Key = paramPolicy("map", "key", fd.Map.Key, keyType, structName, fd.Name, diags)
		f.Value = paramPolicy("map", "value", fd.Map.Value, valueType, structName, fd.Name, diags)
	}

	expr, err := fd.DefaultExpr()
	if err != nil {
		diags.AddError("bad_default", err.Error(), structName, fd.Name)
	}

	// Collection modes are implicitly defaultable: they fall back to an empty
	// collection whether or not `default` was requested.
	if fd.HasDefault() || f.IsCollection() {
		f.Defaultable = true

		if expr == "" {
			expr = defaultExprFor(&f)
		}

		f.DefaultExpr = expr
	}

	if f.StageName != "" && f.Defaultable {
		diags.AddWarning("ignored_stage_name",
			"`stage` has no effect on a defaultable field", structName, fd.Name)

		f.StageName = ""
	}

	return f
}

// customPolicy resolves an explicit custom conversion. Both `type` and
// `convert` are required.
func customPolicy(
	owner string,
	cs *schema.CustomSpec,
	storedType, structName, fieldName string,
	diags *diagnostic.Diagnostics,
) ConversionPolicy {
	if cs.Type == "" {
		diags.AddError("missing_type",
			fmt.Sprintf("%s is missing `type` configuration", owner), structName, fieldName)
	}

	if cs.Convert == "" {
		diags.AddError("missing_convert",
			fmt.Sprintf("%s is missing `convert` configuration", owner), structName, fieldName)
	}

	return ConversionPolicy{
		Kind:       ConversionCustom,
		ParamType:  cs.Type,
		StoredType: storedType,
		Convert:    cs.Convert,
	}
}

// paramPolicy resolves a collection item, key, or value parameter spec.
// storedType is the slot's type inside the declared collection; conversions
// target it, never the parameter type. It may be empty when the declared
// collection type is opaque, in which case the parameter type stands in.
func paramPolicy(
	owner, sub string,
	ps *schema.ParamSpec,
	storedType, structName, fieldName string,
	diags *diagnostic.Diagnostics,
) ConversionPolicy {
	if ps == nil {
		diags.AddError("missing_param",
			fmt.Sprintf("%s is missing `%s` configuration", owner, sub), structName, fieldName)

		return ConversionPolicy{}
	}

	if ps.Custom != nil {
		if ps.Into {
			diags.AddError("conflicting_options",
				fmt.Sprintf("%s %s: `into` and `custom` are mutually exclusive", owner, sub),
				structName, fieldName)
		}

		if storedType == "" {
			storedType = ps.Custom.Type
		}

		return customPolicy(owner+" "+sub, ps.Custom, storedType, structName, fieldName, diags)
	}

	if ps.Type == "" {
		diags.AddError("missing_type",
			fmt.Sprintf("%s %s is missing `type` configuration", owner, sub), structName, fieldName)

		return ConversionPolicy{}
	}

	if storedType == "" {
		storedType = ps.Type
	}

	if ps.Into {
		return ConversionPolicy{
			Kind:       ConversionInto,
			ParamType:  ps.Type,
			StoredType: storedType,
		}
	}

	return ConversionPolicy{
		Kind:       ConversionIdentity,
		ParamType:  ps.Type,
		StoredType: storedType,
	}
}

// seqElemType returns the element type of a slice-shaped declared type, or
// empty when the shape is opaque.
func seqElemType(t string) string {
	if strings.HasPrefix(t, "[]") {
		return t[2:]
	}

	return ""
}

// setElemType returns the element type of a map[T]struct{}-shaped declared
// type, or empty when the shape is opaque.
func setElemType(t string) string {
	key, value := mapTypes(t)
	if value == "struct{}" {
		return key
	}

	return ""
}

// mapTypes splits a map-shaped declared type into its key and value types.
// The key is scanned with bracket depth so nested types survive.
func mapTypes(t string) (string, string) {
	const prefix = "map["

	if !strings.HasPrefix(t, prefix) {
		return "", ""
	}

	rest := t[len(prefix):]
	depth := 1

	for i, r := range rest {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return rest[:i], rest[i+1:]
			}
		}
	}

	return "", ""
}

// defaultExprFor returns the materialization expression for a bare `default`.
// List defaults may stay nil (append-safe); set and map defaults must be
// non-nil so singular inserts can mutate in place.
func defaultExprFor(f *FieldDescriptor) string {
	switch f.Mode {
	case ModeList:
		return "nil"
	case ModeSet, ModeMap:
		return "make(" + f.DeclaredType + ")"
	default:
		return zeroExpr(f.DeclaredType)
	}
}

// zeroExpr returns a Go expression for the zero value of the given type.
func zeroExpr(t string) string {
	switch t {
	case "bool":
		return "false"
	case "string":
		return `""`
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"byte", "rune":
		return "0"
	case "any", "error":
		return "nil"
	}

	switch {
	case strings.HasPrefix(t, "*"),
		strings.HasPrefix(t, "[]"),
		strings.HasPrefix(t, "map["),
		strings.HasPrefix(t, "chan "),
		strings.HasPrefix(t, "func("),
		strings.HasPrefix(t, "interface"):
		return "nil"
	}

	// Works for every remaining type, named or not, at the cost of
	// readability.
	return "*new(" + t + ")"
}
