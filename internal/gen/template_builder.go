package gen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"staged-builder-generator/internal/common"
	"staged-builder-generator/internal/resolve"
	"staged-builder-generator/internal/stage"
)

// templateData holds all data needed for the builder template.
type templateData struct {
	PackageName   string
	Filename      string
	Imports       []importSpec
	StructName    string
	StructDef     string
	Comment       string
	BuilderFunc   string
	EntryType     string
	EntryBody     []string
	UpdateFunc    string
	UpdateComment string
	UpdateBody    []string
	Stages        []stageBlock
	Terminal      terminalBlock
}

// importSpec represents an import statement.
type importSpec struct {
	Alias string
	Path  string
}

// stageBlock renders one stage type and its setters.
type stageBlock struct {
	Name    string
	Comment string
	Setters []setterData
}

// terminalBlock renders the terminal stage type, its setters, and Build.
type terminalBlock struct {
	Name    string
	Comment string
	Setters []setterData
}

// setterData is one method, body given as precomputed statement lines
// including the return.
type setterData struct {
	Receiver string
	Comment  string
	Name     string
	Params   string
	Returns  string
	Body     []string
}

// buildTemplateData constructs the template data for one plan.
func (g *Generator) buildTemplateData(p *stage.Plan) *templateData {
	opts := p.Options

	data := &templateData{
		PackageName: opts.Package,
		Filename:    snakeCase(opts.Name) + "_builder.go",
		StructName:  opts.Name,
		BuilderFunc: opts.BuilderName,
		EntryType:   p.EntryStage(),
	}

	if g.config.GenerateComments {
		data.Comment = fmt.Sprintf(
			"%s starts constructing %s. Required fields are assigned one per stage, in declaration order.",
			opts.BuilderName, opts.Name)
	}

	if opts.EmitStruct {
		data.StructDef = structDef(p)
	}

	data.EntryBody = g.entryBody(p)

	if opts.Update {
		data.UpdateFunc = opts.BuilderName + "From"
		data.UpdateBody = updateBody(p)

		if g.config.GenerateComments {
			data.UpdateComment = fmt.Sprintf(
				"%s re-enters the terminal stage with an already-built %s for edit-and-rebuild.",
				data.UpdateFunc, opts.Name)
		}
	}

	for i := range p.Stages {
		data.Stages = append(data.Stages, g.stageBlock(p, &p.Stages[i]))
	}

	data.Terminal = g.terminalBlock(p)

	data.Imports = usedImports(opts.Imports, data)

	return data
}

// entryBody returns the entry function's statements. With no required fields
// the entry constructs the terminal stage and materializes defaults inline.
func (g *Generator) entryBody(p *stage.Plan) []string {
	if p.HasRequired() {
		return []string{"return " + p.EntryStage() + "{}"}
	}

	body := []string{"v := " + p.Options.Name + "{}"}
	body = append(body, defaultAssignments(p, "v.")...)

	return append(body, "return "+p.Terminal.Name+"{value: v}")
}

// updateBody returns the value-to-terminal conversion's statements. The
// source's collection fields are copied, never aliased, so edits through the
// returned stage cannot reach back into the source value; nil maps come out
// as usable empty ones.
func updateBody(p *stage.Plan) []string {
	body := []string{"s := " + p.Terminal.Name + "{value: value}"}

	for i := range p.Fields {
		f := &p.Fields[i]
		field := "s.value." + f.Name
		src := "value." + f.Name

		switch f.Mode {
		case resolve.ModeList:
			body = append(body,
				field+" = append("+f.DeclaredType+"(nil), "+src+"...)")

		case resolve.ModeSet, resolve.ModeMap:
			body = append(body,
				field+" = make("+f.DeclaredType+", len("+src+"))",
				"for k, v := range "+src+" {",
				field+"[k] = v",
				"}",
			)
		}
	}

	return append(body, "return s")
}

// stageBlock renders one required-field stage: the type plus its single
// consuming setter.
func (g *Generator) stageBlock(p *stage.Plan, sd *stage.StageDescriptor) stageBlock {
	f := sd.Field
	param := paramName(f.Name)

	body := []string{"s.value." + f.Name + " = " + f.Param.Expr(param)}

	// Defaults are materialized fresh on the transition into the terminal
	// stage, never earlier.
	if sd.Last {
		body = append(body, defaultAssignments(p, "s.value.")...)
	}

	body = append(body, "return "+sd.Successor+"{value: s.value}")

	setter := setterData{
		Receiver: sd.Name,
		Name:     f.Name,
		Params:   param + " " + f.Param.ParamType,
		Returns:  sd.Successor,
		Body:     body,
	}

	block := stageBlock{Name: sd.Name, Setters: []setterData{setter}}

	if g.config.GenerateComments {
		block.Comment = fmt.Sprintf("%s assigns %s.", sd.Name, f.Name)
		block.Setters[0].Comment = fmt.Sprintf(
			"%s sets the %s field and advances the chain.", f.Name, f.Name)
	}

	return block
}

// terminalBlock renders the terminal stage: optional setters, collection
// setters, and Build.
func (g *Generator) terminalBlock(p *stage.Plan) terminalBlock {
	opts := p.Options

	block := terminalBlock{Name: p.Terminal.Name}
	if g.config.GenerateComments {
		block.Comment = fmt.Sprintf(
			"%s holds every required field of %s; optional setters and Build are available.",
			p.Terminal.Name, opts.Name)
	}

	for _, f := range p.Terminal.Optional {
		if f.IsCollection() {
			block.Setters = append(block.Setters, g.collectionSetters(p, f)...)
			continue
		}

		block.Setters = append(block.Setters, g.overrideSetter(p, f))
	}

	block.Setters = append(block.Setters, g.buildSetter(p))

	return block
}

// overrideSetter replaces a defaultable non-collection field's value.
func (g *Generator) overrideSetter(p *stage.Plan, f *resolve.FieldDescriptor) setterData {
	param := paramName(f.Name)

	s := setterData{
		Receiver: p.Terminal.Name,
		Name:     f.Name,
		Params:   param + " " + f.Param.ParamType,
		Returns:  p.Terminal.Name,
		Body: []string{
			"s.value." + f.Name + " = " + f.Param.Expr(param),
			"return s",
		},
	}

	if g.config.GenerateComments {
		s.Comment = fmt.Sprintf("%s overrides the default %s.", f.Name, f.Name)
	}

	return s
}

// collectionSetters emits the overwrite, singular, and extend setters for one
// collection field.
func (g *Generator) collectionSetters(
	p *stage.Plan,
	f *resolve.FieldDescriptor,
) []setterData {
	term := p.Terminal.Name
	field := "s.value." + f.Name
	param := paramName(f.Name)

	var overwrite, singular, extend setterData

	switch f.Mode {
	case resolve.ModeList:
		overwrite = setterData{
			Name:   f.Name,
			Params: param + " []" + f.Elem.ParamType,
			Body:   overwriteSeqBody(field, param, f, "append-list"),
		}

		singular = setterData{
			Name:   "Push" + f.Name,
			Params: "item " + f.Elem.ParamType,
			Body: []string{
				field + " = append(" + field + ", " + f.Elem.Expr("item") + ")",
				"return s",
			},
		}

		extend = setterData{
			Name:   "Extend" + f.Name,
			Params: "items []" + f.Elem.ParamType,
			Body:   extendSeqBody(field, f, "append-list"),
		}

	case resolve.ModeSet:
		overwrite = setterData{
			Name:   f.Name,
			Params: param + " []" + f.Elem.ParamType,
			Body:   overwriteSeqBody(field, param, f, "insert-set"),
		}

		singular = setterData{
			Name:   "Insert" + f.Name,
			Params: "item " + f.Elem.ParamType,
			Body: []string{
				field + "[" + f.Elem.Expr("item") + "] = struct{}{}",
				"return s",
			},
		}

		extend = setterData{
			Name:   "Extend" + f.Name,
			Params: "items []" + f.Elem.ParamType,
			Body:   extendSeqBody(field, f, "insert-set"),
		}

	case resolve.ModeMap:
		overwrite = setterData{
			Name:   f.Name,
			Params: param + " map[" + f.Key.ParamType + "]" + f.Value.ParamType,
			Body: []string{
				field + " = make(" + f.DeclaredType + ", len(" + param + "))",
				"for k, v := range " + param + " {",
				field + "[" + f.Key.Expr("k") + "] = " + f.Value.Expr("v"),
				"}",
				"return s",
			},
		}

		singular = setterData{
			Name:   "Insert" + f.Name,
			Params: "key " + f.Key.ParamType + ", value " + f.Value.ParamType,
			Body: []string{
				field + "[" + f.Key.Expr("key") + "] = " + f.Value.Expr("value"),
				"return s",
			},
		}

		extend = setterData{
			Name:   "Extend" + f.Name,
			Params: "entries map[" + f.Key.ParamType + "]" + f.Value.ParamType,
			Body: []string{
				"for k, v := range entries {",
				field + "[" + f.Key.Expr("k") + "] = " + f.Value.Expr("v"),
				"}",
				"return s",
			},
		}
	}

	setters := []setterData{overwrite, singular, extend}

	for i := range setters {
		setters[i].Receiver = term
		setters[i].Returns = term
	}

	if g.config.GenerateComments {
		setters[0].Comment = fmt.Sprintf("%s replaces the whole %s collection.", f.Name, f.Name)
		setters[1].Comment = fmt.Sprintf("%s adds one entry to %s.", setters[1].Name, f.Name)
		setters[2].Comment = fmt.Sprintf("%s adds every entry to %s.", setters[2].Name, f.Name)
	}

	return setters
}

// overwriteSeqBody builds the overwrite setter body for list and set fields.
// The parameter is a sequence of inputs and every item passes through the same
// conversion as the singular setter; an identity list reduces to a copying
// append.
func overwriteSeqBody(field, param string, f *resolve.FieldDescriptor, kind string) []string {
	if kind == "append-list" {
		if f.Elem.Kind == resolve.ConversionIdentity {
			return []string{
				field + " = append(" + f.DeclaredType + "(nil), " + param + "...)",
				"return s",
			}
		}

		return []string{
			field + " = make(" + f.DeclaredType + ", 0, len(" + param + "))",
			"for _, item := range " + param + " {",
			field + " = append(" + field + ", " + f.Elem.Expr("item") + ")",
			"}",
			"return s",
		}
	}

	return []string{
		field + " = make(" + f.DeclaredType + ", len(" + param + "))",
		"for _, item := range " + param + " {",
		field + "[" + f.Elem.Expr("item") + "] = struct{}{}",
		"}",
		"return s",
	}
}

// extendSeqBody builds the extend setter body for list and set fields. The
// loop is only needed when items convert; identity lists use a plain append.
func extendSeqBody(field string, f *resolve.FieldDescriptor, kind string) []string {
	if kind == "append-list" && f.Elem.Kind == resolve.ConversionIdentity {
		return []string{
			field + " = append(" + field + ", items...)",
			"return s",
		}
	}

	assign := field + " = append(" + field + ", " + f.Elem.Expr("item") + ")"
	if kind == "insert-set" {
		assign = field + "[" + f.Elem.Expr("item") + "] = struct{}{}"
	}

	return []string{
		"for _, item := range items {",
		assign,
		"}",
		"return s",
	}
}

// buildSetter renders Build: fallible only when validation is enabled.
func (g *Generator) buildSetter(p *stage.Plan) setterData {
	opts := p.Options

	s := setterData{
		Receiver: p.Terminal.Name,
		Name:     "Build",
	}

	if opts.Validate {
		s.Returns = "(" + opts.Name + ", error)"
		s.Body = []string{
			"if err := s.value.Validate(); err != nil {",
			"return " + opts.Name + "{}, err",
			"}",
			"return s.value, nil",
		}

		if g.config.GenerateComments {
			s.Comment = fmt.Sprintf(
				"Build validates and returns the assembled %s.", opts.Name)
		}

		return s
	}

	s.Returns = opts.Name
	s.Body = []string{"return s.value"}

	if g.config.GenerateComments {
		s.Comment = fmt.Sprintf("Build returns the assembled %s.", opts.Name)
	}

	return s
}

// defaultAssignments returns one assignment per defaultable field, prefixed
// with the target expression (e.g. "v." or "s.value."). Every expression is
// evaluated at the call site, so collections come out fresh each time.
func defaultAssignments(p *stage.Plan, prefix string) []string {
	var out []string

	for _, f := range p.Terminal.Optional {
		out = append(out, prefix+f.Name+" = "+f.DefaultExpr)
	}

	return out
}

// structDef renders the record declaration for schema-only types.
func structDef(p *stage.Plan) string {
	var sb strings.Builder

	sb.WriteString("type " + p.Options.Name + " struct {\n")

	for i := range p.Fields {
		f := &p.Fields[i]
		sb.WriteString("\t" + f.Name + " " + f.DeclaredType + "\n")
	}

	sb.WriteString("}")

	return sb.String()
}

// usedImports keeps only the declared imports whose package alias actually
// appears in the rendered bodies. Default and convert expressions are free to
// reference any declared import; unreferenced ones must not survive into the
// output.
func usedImports(paths []string, data *templateData) []importSpec {
	if len(paths) == 0 {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(data.StructDef)
	for _, line := range data.EntryBody {
		sb.WriteString(line + "\n")
	}

	for _, line := range data.UpdateBody {
		sb.WriteString(line + "\n")
	}

	collect := func(setters []setterData) {
		for _, s := range setters {
			sb.WriteString(s.Params + "\n")
			sb.WriteString(s.Returns + "\n")

			for _, line := range s.Body {
				sb.WriteString(line + "\n")
			}
		}
	}

	for _, st := range data.Stages {
		collect(st.Setters)
	}

	collect(data.Terminal.Setters)

	rendered := sb.String()

	var out []importSpec

	for _, path := range paths {
		alias := common.PkgAlias(path)
		if strings.Contains(rendered, alias+".") {
			out = append(out, importSpec{Path: path})
		}
	}

	return out
}

// paramName derives a parameter name from an exported field name, steering
// clear of Go keywords.
func paramName(field string) string {
	if field == "" {
		return "v"
	}

	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	name := string(r)

	if token.IsKeyword(name) {
		name += "Arg"
	}

	return name
}

// snakeCase converts an exported Go name to snake_case for filenames.
func snakeCase(name string) string {
	var sb strings.Builder

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteRune('_')
			}

			sb.WriteRune(unicode.ToLower(r))
			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}
