package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staged-builder-generator/internal/schema"
)

func mustParse(t *testing.T, src string) *schema.File {
	t.Helper()

	f, err := schema.Parse([]byte(src))
	require.NoError(t, err)

	return f
}

func TestResolveWellFormed(t *testing.T) {
	f := mustParse(t, `
package: config

structs:
  - name: ServerConfig
    fields:
      - name: Host
        type: string
      - name: Port
        type: int
        default: "8080"
      - name: Tags
        type: "[]string"
        list:
          item: string
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)
	require.True(t, s.Diagnostics.IsValid())
	require.Len(t, s.Structs, 1)

	m := s.Structs[0]
	assert.Equal(t, "ServerConfig", m.Options.Name)
	assert.Equal(t, "ServerConfigBuilder", m.Options.BuilderName)
	assert.Equal(t, "ServerConfigComplete", m.Options.TerminalName)
	assert.Equal(t, 1, m.RequiredCount())

	require.Len(t, m.Fields, 3)

	host := m.Fields[0]
	assert.True(t, host.IsRequired())
	assert.Equal(t, ConversionIdentity, host.Param.Kind)

	port := m.Fields[1]
	assert.True(t, port.Defaultable)
	assert.Equal(t, "8080", port.DefaultExpr)

	tags := m.Fields[2]
	assert.Equal(t, ModeList, tags.Mode)
	assert.True(t, tags.Defaultable, "collection fields are implicitly defaultable")
	assert.Equal(t, "nil", tags.DefaultExpr)
}

func TestResolveAccumulatesAllErrors(t *testing.T) {
	// Three independently malformed fields must yield three diagnostics, not
	// just the first one.
	f := mustParse(t, `
package: config

structs:
  - name: Broken
    fields:
      - name: A
        type: string
        into: true
        custom:
          type: string
          convert: strings.ToUpper
      - name: B
        type: "[]int"
        list:
          item: int
        set:
          item: int
      - name: C
        type: "map[string]int"
        map:
          key: string
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)

	assert.Len(t, s.Diagnostics.Errors, 3)
	assert.Empty(t, s.Structs, "malformed structs produce no model")

	codes := make([]string, 0, len(s.Diagnostics.Errors))
	for _, d := range s.Diagnostics.Errors {
		codes = append(codes, d.Code)
	}

	assert.Equal(t, []string{"conflicting_options", "conflicting_options", "missing_param"}, codes)
}

func TestResolveErrorsDoNotLeakAcrossStructs(t *testing.T) {
	f := mustParse(t, `
package: config

structs:
  - name: Bad
    fields: []
  - name: Good
    fields:
      - name: ID
        type: int
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)

	require.Len(t, s.Diagnostics.Errors, 1)
	assert.Equal(t, "not_a_record", s.Diagnostics.Errors[0].Code)

	require.Len(t, s.Structs, 1)
	assert.Equal(t, "Good", s.Structs[0].Options.Name)
}

func TestResolveDuplicateStruct(t *testing.T) {
	f := mustParse(t, `
package: config

structs:
  - name: Thing
    fields:
      - name: A
        type: int
  - name: Thing
    fields:
      - name: B
        type: int
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)

	require.Len(t, s.Diagnostics.Errors, 1)
	assert.Equal(t, "duplicate_struct", s.Diagnostics.Errors[0].Code)
	assert.Len(t, s.Structs, 1)
}

func TestResolveDefaults(t *testing.T) {
	f := mustParse(t, `
package: config

structs:
  - name: Defaults
    fields:
      - name: Enabled
        type: bool
        default:
      - name: Name
        type: string
        default:
      - name: Timeout
        type: time.Duration
        default: 30 * time.Second
      - name: Labels
        type: "map[string]string"
        map:
          key: string
          value: string
      - name: Refs
        type: "map[string]int"
        default: "map[string]int{\"a\": 1}"
        map:
          key: string
          value: int
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)
	require.True(t, s.Diagnostics.IsValid(), s.Diagnostics.Error())
	require.Len(t, s.Structs, 1)

	fields := s.Structs[0].Fields
	require.Len(t, fields, 5)

	assert.Equal(t, "false", fields[0].DefaultExpr)
	assert.Equal(t, `""`, fields[1].DefaultExpr)
	assert.Equal(t, "30 * time.Second", fields[2].DefaultExpr)
	assert.Equal(t, "make(map[string]string)", fields[3].DefaultExpr)

	// An explicit default wins over the implicit empty collection.
	assert.Equal(t, `map[string]int{"a": 1}`, fields[4].DefaultExpr)
}

func TestResolveCollectionItemConversion(t *testing.T) {
	// Converting items are stored as the declared collection's element (or
	// key/value) type, not as the parameter type.
	f := mustParse(t, `
package: config

structs:
  - name: Registry
    fields:
      - name: Entries
        type: "[]uint32"
        list:
          item:
            type: int
            into: true
      - name: Labels
        type: "map[Label]struct{}"
        set:
          item:
            type: string
            into: true
      - name: Weights
        type: "map[Key]Weight"
        map:
          key:
            type: string
            into: true
          value:
            type: float64
            into: true
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)
	require.True(t, s.Diagnostics.IsValid(), s.Diagnostics.Error())

	fields := s.Structs[0].Fields
	require.Len(t, fields, 3)

	entries := fields[0].Elem
	assert.Equal(t, "int", entries.ParamType)
	assert.Equal(t, "uint32", entries.StoredType)
	assert.Equal(t, "uint32(x)", entries.Expr("x"))

	labels := fields[1].Elem
	assert.Equal(t, "Label", labels.StoredType)
	assert.Equal(t, "Label(x)", labels.Expr("x"))

	assert.Equal(t, "Key(k)", fields[2].Key.Expr("k"))
	assert.Equal(t, "Weight(v)", fields[2].Value.Expr("v"))
}

func TestCollectionElemTypes(t *testing.T) {
	assert.Equal(t, "uint32", seqElemType("[]uint32"))
	assert.Equal(t, "[]byte", seqElemType("[][]byte"))
	assert.Empty(t, seqElemType("IDSlice"))

	k, v := mapTypes("map[string][]int")
	assert.Equal(t, "string", k)
	assert.Equal(t, "[]int", v)

	k, v = mapTypes("map[[2]byte]int")
	assert.Equal(t, "[2]byte", k)
	assert.Equal(t, "int", v)

	assert.Equal(t, "string", setElemType("map[string]struct{}"))
	assert.Empty(t, setElemType("map[string]int"))
	assert.Empty(t, setElemType("StringSet"))
}

func TestResolveCustomConversion(t *testing.T) {
	f := mustParse(t, `
package: config

structs:
  - name: Paths
    fields:
      - name: Root
        type: string
        custom:
          type: string
          convert: filepath.Clean
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)
	require.True(t, s.Diagnostics.IsValid())

	p := s.Structs[0].Fields[0].Param
	assert.Equal(t, ConversionCustom, p.Kind)
	assert.Equal(t, "filepath.Clean(v)", p.Expr("v"))
}

func TestResolveCustomRequiresConvert(t *testing.T) {
	f := mustParse(t, `
package: config

structs:
  - name: Paths
    fields:
      - name: Root
        type: string
        custom:
          type: string
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)

	require.Len(t, s.Diagnostics.Errors, 1)
	assert.Equal(t, "missing_convert", s.Diagnostics.Errors[0].Code)
}

func TestResolveStageNameWarning(t *testing.T) {
	f := mustParse(t, `
package: config

structs:
  - name: Warned
    fields:
      - name: Count
        type: int
        default: "1"
        stage: CountStage
`)

	s, err := NewResolver(f).Resolve()
	require.NoError(t, err)
	require.True(t, s.Diagnostics.IsValid())

	require.Len(t, s.Diagnostics.Warnings, 1)
	assert.Equal(t, "ignored_stage_name", s.Diagnostics.Warnings[0].Code)
	assert.Empty(t, s.Structs[0].Fields[0].StageName)
}

func TestConversionExpr(t *testing.T) {
	into := ConversionPolicy{Kind: ConversionInto, ParamType: "string", StoredType: "Name"}
	assert.Equal(t, "Name(raw)", into.Expr("raw"))

	closure := ConversionPolicy{
		Kind:    ConversionCustom,
		Convert: "func(s string) string { return strings.TrimSpace(s) }",
	}
	assert.Equal(t,
		"(func(s string) string { return strings.TrimSpace(s) })(raw)",
		closure.Expr("raw"))

	identity := ConversionPolicy{Kind: ConversionIdentity}
	assert.Equal(t, "raw", identity.Expr("raw"))
}

func TestZeroExpr(t *testing.T) {
	cases := map[string]string{
		"int":            "0",
		"string":         `""`,
		"bool":           "false",
		"*Node":          "nil",
		"[]byte":         "nil",
		"map[string]int": "nil",
		"time.Duration":  "*new(time.Duration)",
	}

	for typ, want := range cases {
		assert.Equal(t, want, zeroExpr(typ), typ)
	}
}
