// Package stage derives the construction protocol from a resolved struct
// model: one stage per required field in declaration order, closed by the
// terminal stage that owns optional setters and the build operation.
package stage

import "staged-builder-generator/internal/resolve"

// Sequence lays out the stage chain for one resolved struct. The chain order
// is the field declaration order; it is never reordered or optimized.
func Sequence(m *resolve.StructModel) *Plan {
	p := &Plan{
		Options: m.Options,
		Fields:  make([]resolve.FieldDescriptor, len(m.Fields)),
	}

	// Fields are copied once so descriptor pointers stay valid independently
	// of the caller's model.
	copy(p.Fields, m.Fields)

	var owned []*resolve.FieldDescriptor

	for i := range p.Fields {
		f := &p.Fields[i]
		if !f.IsRequired() {
			continue
		}

		p.Stages = append(p.Stages, StageDescriptor{
			Name:  stageName(m.Options.Name, f),
			Field: f,
			Owned: owned,
		})

		owned = append(owned[:len(owned):len(owned)], f)
	}

	p.Terminal = TerminalStage{Name: m.Options.TerminalName}

	for i := range p.Fields {
		f := &p.Fields[i]

		p.Terminal.Owned = append(p.Terminal.Owned, f)
		if f.Defaultable {
			p.Terminal.Optional = append(p.Terminal.Optional, f)
		}
	}

	for i := range p.Stages {
		if i+1 < len(p.Stages) {
			p.Stages[i].Successor = p.Stages[i+1].Name
			continue
		}

		p.Stages[i].Successor = p.Terminal.Name
		p.Stages[i].Last = true
	}

	return p
}

// stageName returns the stage type name for a required field, honoring the
// per-field override.
func stageName(structName string, f *resolve.FieldDescriptor) string {
	if f.StageName != "" {
		return f.StageName
	}

	return structName + f.Name + "Stage"
}
