// Package resolve turns raw schema declarations into the canonical field
// model consumed by stage sequencing and code generation.
//
// Resolution pipeline:
//  1. Validate the declaration shape (named structs, named+typed fields)
//  2. For each field, resolve its local option set independently:
//     - conflicting combinations (into+custom, two collection kinds) rejected
//     - missing required sub-options (list without item, custom without
//     convert) rejected
//     - conversion policies attached (identity, into, or custom)
//  3. Normalize defaults: explicit expression wins, bare `default` falls back
//     to the type's zero value, collection fields always default to an empty
//     collection
//  4. Emit diagnostics for every problem found, never stopping at the first
//
// Resolution is pure: the same input always yields the same model, and no
// state is shared between runs.
package resolve
