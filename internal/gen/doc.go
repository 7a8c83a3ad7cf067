// Package gen emits staged builder source from construction plans.
//
// Generation approach uses text/template + go/format for readable,
// allocation-light Go code.
//
// Emitted surface per struct:
//   - Entry function returning the first stage (or the terminal stage when
//     nothing is required)
//   - One stage type per required field, each with a single consuming setter
//   - Terminal stage with optional/collection setters and Build
//   - Optional update entry converting a built value back to the terminal
//     stage
//   - Optional struct declaration for schema-only types
package gen
