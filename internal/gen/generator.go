package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	"staged-builder-generator/internal/stage"
)

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// OutputDir is the directory where generated files are written.
	OutputDir string
	// GenerateComments enables generation of explanatory comments.
	GenerateComments bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		OutputDir:        "./generated",
		GenerateComments: true,
	}
}

// Generator emits Go source from construction plans.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "server_config_builder.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Generate emits one builder file per plan.
func (g *Generator) Generate(plans []*stage.Plan) ([]GeneratedFile, error) {
	var files []GeneratedFile

	for _, p := range plans {
		file, err := g.generatePlan(p)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", p.Options.Name, err)
		}

		files = append(files, *file)
	}

	return files, nil
}

// generatePlan generates the builder file for a single plan.
func (g *Generator) generatePlan(p *stage.Plan) (*GeneratedFile, error) {
	data := g.buildTemplateData(p)

	var buf bytes.Buffer
	if err := builderTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		// Best-effort: write unformatted code to a sidecar file to aid debugging.
		// This is intentionally non-fatal for the write attempt.
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, data.Filename, buf.Bytes())
		}
		// Return unformatted code for debugging
		return &GeneratedFile{
			Filename: data.Filename,
			Content:  buf.Bytes(),
		}, fmt.Errorf("formatting code: %w (unformatted code returned)", err)
	}

	return &GeneratedFile{
		Filename: data.Filename,
		Content:  formatted,
	}, nil
}

// Template for the builder file. Setter bodies arrive as precomputed
// statement lines; go/format owns the final layout.

var builderTemplate = template.Must(template.New("builder").Parse(`// Code generated by staged-builder-generator. DO NOT EDIT.

package {{.PackageName}}

{{if .Imports}}import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{end}}
{{if .StructDef}}{{.StructDef}}
{{end}}
{{if .Comment}}// {{.Comment}}
{{end}}func {{.BuilderFunc}}() {{.EntryType}} {
{{range .EntryBody}}	{{.}}
{{end}}}
{{if .UpdateFunc}}
{{if .UpdateComment}}// {{.UpdateComment}}
{{end}}func {{.UpdateFunc}}(value {{.StructName}}) {{.Terminal.Name}} {
{{range .UpdateBody}}	{{.}}
{{end}}}
{{end}}
{{range .Stages}}{{if .Comment}}// {{.Comment}}
{{end}}type {{.Name}} struct {
	value {{$.StructName}}
}
{{range .Setters}}
{{if .Comment}}// {{.Comment}}
{{end}}func (s {{.Receiver}}) {{.Name}}({{.Params}}) {{.Returns}} {
{{range .Body}}	{{.}}
{{end}}}
{{end}}
{{end}}{{if .Terminal.Comment}}// {{.Terminal.Comment}}
{{end}}type {{.Terminal.Name}} struct {
	value {{$.StructName}}
}
{{range .Terminal.Setters}}
{{if .Comment}}// {{.Comment}}
{{end}}func (s {{.Receiver}}) {{.Name}}({{.Params}}) {{.Returns}} {
{{range .Body}}	{{.}}
{{end}}}
{{end}}`))
