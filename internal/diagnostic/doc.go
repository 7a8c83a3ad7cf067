// Package diagnostic provides structured error and warning accumulation for
// schema resolution.
//
// Resolution never stops at the first problem: every malformed struct or field
// option across the whole schema is collected into one Diagnostics value and
// reported in a single pass.
package diagnostic
