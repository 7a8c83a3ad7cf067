// Package schema provides the declarative input surface for the builder
// generator: YAML (or JSON) documents describing record types, their fields,
// and per-field construction options.
//
// A schema file has the following structure:
//
//	version: "1"
//	package: model
//	imports:
//	  - strings
//	structs:
//	  - name: Request
//	    validate: true
//	    update: true
//	    fields:
//	      - name: Method
//	        type: string
//	      - name: URL
//	        type: string
//	        into: true
//	      - name: Timeout
//	        type: time.Duration
//	        default: 30 * time.Second
//	      - name: Headers
//	        type: map[string]string
//	        map:
//	          key: string
//	          value: string
//
// # Field options
//
//   - default - marks the field optional. Bare `default:` uses the type's zero
//     value; `default: <expr>` uses the given Go expression, re-evaluated for
//     every builder instantiation.
//   - into - the setter converts its parameter with a plain Go conversion to
//     the declared type.
//   - custom - the setter applies an explicit conversion: `type` is the
//     parameter type and `convert` a callable Go expression.
//   - list / set / map - collection accumulation. The field becomes optional
//     with an empty-collection default and gains push/insert, overwrite, and
//     extend setters. Item, key, and value param specs may be a bare type
//     string or an object with `type`, `into`, or `custom`.
//   - stage - overrides the generated stage type name for a required field.
//
// Option combinations that cannot coexist (into+custom, two collection kinds)
// are rejected during resolution, not parsing; parsing only rejects unknown
// option names.
package schema
