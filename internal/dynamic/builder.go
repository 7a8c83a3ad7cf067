package dynamic

import (
	"fmt"

	"staged-builder-generator/internal/resolve"
	"staged-builder-generator/internal/stage"
)

// ValidateFunc checks an assembled value before Build returns it.
type ValidateFunc func(map[string]any) error

// Builder walks a construction plan one stage at a time. Stage setters
// consume the builder: the returned builder continues the chain, and any
// further use of the consumed one panics.
type Builder struct {
	plan     *stage.Plan
	stageIdx int
	values   map[string]any
	consumed bool
	validate ValidateFunc
}

// New starts the construction protocol at the plan's entry stage. When the
// plan has no required fields the entry stage is the terminal stage, and
// defaults are materialized immediately.
func New(p *stage.Plan, validate ValidateFunc) *Builder {
	b := &Builder{
		plan:     p,
		values:   make(map[string]any, len(p.Fields)),
		validate: validate,
	}

	if !p.HasRequired() {
		b.materializeDefaults()
	}

	return b
}

// From re-enters the protocol at the terminal stage with an already-built
// value, for edit-and-rebuild. Panics if the plan does not enable updates.
func From(p *stage.Plan, value map[string]any, validate ValidateFunc) *Builder {
	if !p.Options.Update {
		panic(fmt.Sprintf("%s: plan does not support update", p.Options.Name))
	}

	b := &Builder{
		plan:     p,
		stageIdx: len(p.Stages),
		values:   make(map[string]any, len(p.Fields)),
		validate: validate,
	}

	b.materializeDefaults()

	for i := range p.Fields {
		f := &p.Fields[i]
		if v, ok := value[f.Name]; ok {
			b.values[f.Name] = copyValue(f, v)
		}
	}

	return b
}

// Stage returns the name of the stage the builder currently sits at.
func (b *Builder) Stage() string {
	if b.atTerminal() {
		return b.plan.Terminal.Name
	}

	return b.plan.Stages[b.stageIdx].Name
}

// Set assigns a single value. At a required stage only that stage's field is
// settable, and the call advances the chain. At the terminal stage it assigns
// an optional field; for collections it overwrites the whole collection from
// a sequence of inputs, converting each item like the singular setters do.
func (b *Builder) Set(field string, v any) *Builder {
	b.use()

	f := b.fieldByName(field)

	if !b.atTerminal() {
		cur := &b.plan.Stages[b.stageIdx]
		if cur.Field.Name != field {
			panic(fmt.Sprintf("%s: stage %s assigns %q, not %q",
				b.plan.Options.Name, cur.Name, cur.Field.Name, field))
		}

		next := b.next()
		next.values[field] = f.Param.Apply(v)

		return next
	}

	if f.IsRequired() {
		panic(fmt.Sprintf("%s: required field %q was assigned by its stage",
			b.plan.Options.Name, field))
	}

	if f.IsCollection() {
		b.values[field] = overwriteValue(f, v)
	} else {
		b.values[field] = f.Param.Apply(v)
	}

	return b
}

// Push appends one item to a list field or inserts it into a set field.
func (b *Builder) Push(field string, v any) *Builder {
	b.use()

	f := b.collectionField(field, resolve.ModeList, resolve.ModeSet)
	item := f.Elem.Apply(v)

	switch f.Mode {
	case resolve.ModeList:
		b.values[field] = append(b.list(field), item)
	case resolve.ModeSet:
		b.set(field)[item] = struct{}{}
	}

	return b
}

// Insert puts one key/value pair into a map field.
func (b *Builder) Insert(field string, key, value any) *Builder {
	b.use()

	f := b.collectionField(field, resolve.ModeMap)
	b.mapping(field)[f.Key.Apply(key)] = f.Value.Apply(value)

	return b
}

// Extend appends every item to a list field or inserts each into a set field.
func (b *Builder) Extend(field string, vs ...any) *Builder {
	for _, v := range vs {
		b.Push(field, v)
	}

	return b
}

// ExtendMap inserts every pair into a map field.
func (b *Builder) ExtendMap(field string, m map[any]any) *Builder {
	for k, v := range m {
		b.Insert(field, k, v)
	}

	return b
}

// Build assembles the value and consumes the builder. The result is detached
// from the builder, and validation runs exactly once, only if the plan
// requires it.
func (b *Builder) Build() (map[string]any, error) {
	b.use()

	if !b.atTerminal() {
		panic(fmt.Sprintf("%s: cannot build at stage %s",
			b.plan.Options.Name, b.Stage()))
	}

	b.consumed = true

	out := make(map[string]any, len(b.plan.Fields))

	for i := range b.plan.Fields {
		f := &b.plan.Fields[i]
		out[f.Name] = copyValue(f, b.values[f.Name])
	}

	if b.plan.Options.Validate && b.validate != nil {
		if err := b.validate(out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (b *Builder) atTerminal() bool {
	return b.stageIdx >= len(b.plan.Stages)
}

// use panics if the builder was already consumed by a stage transition.
func (b *Builder) use() {
	if b.consumed {
		panic(fmt.Sprintf("%s: use of consumed stage %s",
			b.plan.Options.Name, b.Stage()))
	}
}

// next consumes the current stage and returns its successor. Entering the
// terminal stage materializes defaults fresh.
func (b *Builder) next() *Builder {
	b.consumed = true

	n := &Builder{
		plan:     b.plan,
		stageIdx: b.stageIdx + 1,
		values:   make(map[string]any, len(b.plan.Fields)),
		validate: b.validate,
	}

	for k, v := range b.values {
		n.values[k] = v
	}

	if n.atTerminal() {
		n.materializeDefaults()
	}

	return n
}

// materializeDefaults evaluates every defaultable field's default. Each call
// produces fresh collections, never shared ones.
func (b *Builder) materializeDefaults() {
	for i := range b.plan.Fields {
		f := &b.plan.Fields[i]
		if !f.Defaultable {
			continue
		}

		b.values[f.Name] = defaultValue(f)
	}
}

func defaultValue(f *resolve.FieldDescriptor) any {
	if f.DefaultFn != nil {
		return f.DefaultFn()
	}

	switch f.Mode {
	case resolve.ModeList:
		return []any(nil)
	case resolve.ModeSet:
		return make(map[any]struct{})
	case resolve.ModeMap:
		return make(map[any]any)
	default:
		return nil
	}
}

func (b *Builder) fieldByName(name string) *resolve.FieldDescriptor {
	for i := range b.plan.Fields {
		if b.plan.Fields[i].Name == name {
			return &b.plan.Fields[i]
		}
	}

	panic(fmt.Sprintf("%s: no field %q", b.plan.Options.Name, name))
}

func (b *Builder) collectionField(
	name string,
	modes ...resolve.SetterMode,
) *resolve.FieldDescriptor {
	f := b.fieldByName(name)

	for _, m := range modes {
		if f.Mode == m {
			return f
		}
	}

	panic(fmt.Sprintf("%s: field %q (%s) has no such collection setter",
		b.plan.Options.Name, name, f.Mode))
}

func (b *Builder) list(field string) []any {
	v, _ := b.values[field].([]any)
	return v
}

func (b *Builder) set(field string) map[any]struct{} {
	v, ok := b.values[field].(map[any]struct{})
	if !ok {
		v = make(map[any]struct{})
		b.values[field] = v
	}

	return v
}

func (b *Builder) mapping(field string) map[any]any {
	v, ok := b.values[field].(map[any]any)
	if !ok {
		v = make(map[any]any)
		b.values[field] = v
	}

	return v
}

// overwriteValue replaces a collection wholesale from a sequence of inputs,
// applying the field's per-item conversion to each one. Lists and sets take
// []any; maps take map[any]any with both key and value converted.
func overwriteValue(f *resolve.FieldDescriptor, v any) any {
	if v == nil {
		return defaultValue(f)
	}

	switch f.Mode {
	case resolve.ModeList:
		in, ok := v.([]any)
		if !ok {
			panic(fmt.Sprintf("field %q: list overwrite wants []any, got %T", f.Name, v))
		}

		out := make([]any, 0, len(in))
		for _, item := range in {
			out = append(out, f.Elem.Apply(item))
		}

		return out

	case resolve.ModeSet:
		in, ok := v.([]any)
		if !ok {
			panic(fmt.Sprintf("field %q: set overwrite wants []any, got %T", f.Name, v))
		}

		out := make(map[any]struct{}, len(in))
		for _, item := range in {
			out[f.Elem.Apply(item)] = struct{}{}
		}

		return out

	case resolve.ModeMap:
		in, ok := v.(map[any]any)
		if !ok {
			panic(fmt.Sprintf("field %q: map overwrite wants map[any]any, got %T", f.Name, v))
		}

		out := make(map[any]any, len(in))
		for k, val := range in {
			out[f.Key.Apply(k)] = f.Value.Apply(val)
		}

		return out

	default:
		panic(fmt.Sprintf("field %q (%s) has no overwrite setter", f.Name, f.Mode))
	}
}

// copyValue detaches an already-converted stored value so the builder and its
// inputs or outputs never alias. No per-item conversion happens here; a set
// may also be given as []any for convenience when re-entering via From.
func copyValue(f *resolve.FieldDescriptor, v any) any {
	if v == nil {
		return nil
	}

	switch f.Mode {
	case resolve.ModeList:
		in, ok := v.([]any)
		if !ok {
			panic(fmt.Sprintf("field %q: list overwrite wants []any, got %T", f.Name, v))
		}

		return append([]any(nil), in...)

	case resolve.ModeSet:
		switch in := v.(type) {
		case map[any]struct{}:
			out := make(map[any]struct{}, len(in))
			for item := range in {
				out[item] = struct{}{}
			}

			return out
		case []any:
			out := make(map[any]struct{}, len(in))
			for _, item := range in {
				out[item] = struct{}{}
			}

			return out
		default:
			panic(fmt.Sprintf("field %q: set overwrite wants []any or map[any]struct{}, got %T",
				f.Name, v))
		}

	case resolve.ModeMap:
		in, ok := v.(map[any]any)
		if !ok {
			panic(fmt.Sprintf("field %q: map overwrite wants map[any]any, got %T", f.Name, v))
		}

		out := make(map[any]any, len(in))
		for k, val := range in {
			out[k] = val
		}

		return out

	default:
		return v
	}
}
