package stage

import "staged-builder-generator/internal/resolve"

// StageDescriptor is one link in the construction chain: the stage type that
// owns exactly one required field's setter.
type StageDescriptor struct {
	// Name is the stage's Go type name.
	Name string
	// Field is the required field this stage assigns.
	Field *resolve.FieldDescriptor
	// Owned lists the fields already assigned when this stage is reached.
	Owned []*resolve.FieldDescriptor
	// Successor is the type name the setter transitions to.
	Successor string
	// Last is true for the stage transitioning into the terminal stage.
	// Defaults are materialized on that transition.
	Last bool
}

// TerminalStage is the final stage: every required field is assigned, every
// defaultable field holds its default, and the build operation is available.
type TerminalStage struct {
	// Name is the terminal stage's Go type name.
	Name string
	// Owned lists every field of the record, in declaration order.
	Owned []*resolve.FieldDescriptor
	// Optional lists the defaultable fields whose setters the terminal stage
	// carries, in declaration order.
	Optional []*resolve.FieldDescriptor
}

// Plan is the complete construction protocol for one record: the ordered
// stage chain plus the terminal stage.
type Plan struct {
	Options resolve.StructOptions

	// Fields is the full resolved field list in declaration order. Stage and
	// terminal descriptors point into this slice.
	Fields []resolve.FieldDescriptor

	// Stages holds one descriptor per required field, in declaration order.
	Stages []StageDescriptor

	Terminal TerminalStage
}

// EntryStage returns the type name the entry function constructs: the first
// stage, or the terminal stage when no field is required.
func (p *Plan) EntryStage() string {
	if len(p.Stages) == 0 {
		return p.Terminal.Name
	}

	return p.Stages[0].Name
}

// HasRequired reports whether the chain has at least one required stage.
func (p *Plan) HasRequired() bool {
	return len(p.Stages) > 0
}
