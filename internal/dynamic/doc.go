// Package dynamic interprets a construction plan at runtime instead of
// emitting source for it. Values are held in generic form (lists as []any,
// sets as map[any]struct{}, maps as map[any]any), and the staged protocol is
// enforced with panics where generated code would fail to compile: setting a
// field out of stage order, reusing a consumed stage, or building before the
// terminal stage is reached.
//
// The interpreter exists so plan semantics (stage order, default freshness,
// collection setter laws, the validation contract) can be exercised directly,
// and it backs ad-hoc construction for tools that load schemas at runtime.
package dynamic
