package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staged-builder-generator/internal/resolve"
	"staged-builder-generator/internal/schema"
	"staged-builder-generator/internal/stage"
)

// generate runs the full pipeline (parse, resolve, sequence, emit) on a YAML
// schema and returns the generated files.
func generate(t *testing.T, src string) []GeneratedFile {
	t.Helper()

	f, err := schema.Parse([]byte(src))
	require.NoError(t, err)

	resolved, err := resolve.NewResolver(f).Resolve()
	require.NoError(t, err)
	require.True(t, resolved.Diagnostics.IsValid(), resolved.Diagnostics.Error())

	var plans []*stage.Plan
	for i := range resolved.Structs {
		plans = append(plans, stage.Sequence(&resolved.Structs[i]))
	}

	g := NewGenerator(GeneratorConfig{GenerateComments: true})

	files, err := g.Generate(plans)
	require.NoError(t, err)

	return files
}

func TestGenerator_Generate_StagedChain(t *testing.T) {
	files := generate(t, `
package: config
imports:
  - time

structs:
  - name: ServerConfig
    fields:
      - name: Host
        type: string
      - name: Port
        type: int
        into: true
      - name: Timeout
        type: time.Duration
        default: 30 * time.Second
`)

	require.Len(t, files, 1)
	assert.Equal(t, "server_config_builder.go", files[0].Filename)

	content := string(files[0].Content)

	assert.Contains(t, content, "package config")
	assert.Contains(t, content, `"time"`)

	// Entry function starts the chain at the first required field's stage.
	assert.Contains(t, content, "func ServerConfigBuilder() ServerConfigHostStage {")
	assert.Contains(t, content, "type ServerConfigHostStage struct {")
	assert.Contains(t, content, "type ServerConfigPortStage struct {")
	assert.Contains(t, content, "type ServerConfigComplete struct {")

	// Stage setters consume by value and advance in declaration order.
	assert.Contains(t, content,
		"func (s ServerConfigHostStage) Host(host string) ServerConfigPortStage {")
	assert.Contains(t, content,
		"func (s ServerConfigPortStage) Port(port int) ServerConfigComplete {")

	// Into conversion on the setter parameter.
	assert.Contains(t, content, "s.value.Port = int(port)")

	// Defaults materialize on the last required transition.
	assert.Contains(t, content, "s.value.Timeout = 30 * time.Second")

	// Terminal override setter and infallible Build.
	assert.Contains(t, content,
		"func (s ServerConfigComplete) Timeout(timeout time.Duration) ServerConfigComplete {")
	assert.Contains(t, content,
		"func (s ServerConfigComplete) Build() ServerConfig {")
	assert.Contains(t, content, "return s.value")
}

func TestGenerator_Generate_CollectionSetters(t *testing.T) {
	files := generate(t, `
package: config

structs:
  - name: Bundle
    fields:
      - name: Items
        type: "[]uint32"
        list:
          item: uint32
      - name: Tags
        type: "map[string]struct{}"
        set:
          item: string
      - name: Env
        type: "map[string]string"
        map:
          key: string
          value: string
`)

	require.Len(t, files, 1)
	content := string(files[0].Content)

	// No required fields: the entry goes straight to the terminal stage with
	// fresh empty collections.
	assert.Contains(t, content, "func BundleBuilder() BundleComplete {")
	assert.Contains(t, content, "v.Items = nil")
	assert.Contains(t, content, "v.Tags = make(map[string]struct{})")
	assert.Contains(t, content, "v.Env = make(map[string]string)")

	// List: overwrite copies, push appends, extend appends many.
	assert.Contains(t, content, "s.value.Items = append([]uint32(nil), items...)")
	assert.Contains(t, content,
		"func (s BundleComplete) PushItems(item uint32) BundleComplete {")
	assert.Contains(t, content,
		"func (s BundleComplete) ExtendItems(items []uint32) BundleComplete {")

	// Set: singular insert, overwrite rebuilds the map from a sequence.
	assert.Contains(t, content,
		"func (s BundleComplete) InsertTags(item string) BundleComplete {")
	assert.Contains(t, content, "s.value.Tags[item] = struct{}{}")
	assert.Contains(t, content,
		"func (s BundleComplete) Tags(tags []string) BundleComplete {")
	assert.Contains(t, content, "s.value.Tags = make(map[string]struct{}, len(tags))")

	// Map: key/value insert and extend.
	assert.Contains(t, content,
		"func (s BundleComplete) InsertEnv(key string, value string) BundleComplete {")
	assert.Contains(t, content, "s.value.Env[key] = value")
	assert.Contains(t, content,
		"func (s BundleComplete) ExtendEnv(entries map[string]string) BundleComplete {")
}

func TestGenerator_Generate_Validate(t *testing.T) {
	files := generate(t, `
package: config

structs:
  - name: Counter
    validate: true
    fields:
      - name: Even
        type: uint32
`)

	content := string(files[0].Content)

	assert.Contains(t, content,
		"func (s CounterComplete) Build() (Counter, error) {")
	assert.Contains(t, content, "if err := s.value.Validate(); err != nil {")
	assert.Contains(t, content, "return Counter{}, err")
}

func TestGenerator_Generate_Update(t *testing.T) {
	files := generate(t, `
package: config

structs:
  - name: Doc
    update: true
    fields:
      - name: Title
        type: string
      - name: Tags
        type: "[]string"
        list:
          item: string
      - name: Meta
        type: "map[string]string"
        map:
          key: string
          value: string
`)

	content := string(files[0].Content)

	assert.Contains(t, content,
		"func DocBuilderFrom(value Doc) DocComplete {")
	assert.Contains(t, content, "s := DocComplete{value: value}")

	// Collections are copied out of the source value, never aliased, and a
	// nil map comes back usable.
	assert.Contains(t, content,
		"s.value.Tags = append([]string(nil), value.Tags...)")
	assert.Contains(t, content,
		"s.value.Meta = make(map[string]string, len(value.Meta))")
	assert.Contains(t, content, "for k, v := range value.Meta {")
	assert.NotContains(t, content, "return DocComplete{value: value}")
}

func TestGenerator_Generate_CollectionItemConversion(t *testing.T) {
	files := generate(t, `
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
`)

	content := string(files[0].Content)

	// The conversion targets the declared element type, and the overwrite
	// setter applies it per item just like the singular one.
	assert.Contains(t, content,
		"func (s RegistryComplete) PushEntries(item int) RegistryComplete {")
	assert.Contains(t, content,
		"s.value.Entries = append(s.value.Entries, uint32(item))")
	assert.Contains(t, content,
		"func (s RegistryComplete) Entries(entries []int) RegistryComplete {")
	assert.Contains(t, content,
		"s.value.Entries = make([]uint32, 0, len(entries))")
	assert.Contains(t, content, "for _, item := range entries {")
}

func TestGenerator_Generate_EmitStructAndNaming(t *testing.T) {
	files := generate(t, `
package: config

structs:
  - name: Widget
    emit_struct: true
    builder: NewWidget
    terminal: WidgetReady
    fields:
      - name: Label
        type: string
        stage: NeedsLabel
`)

	content := string(files[0].Content)

	assert.Contains(t, content, "type Widget struct {")
	assert.Contains(t, content, "Label string")
	assert.Contains(t, content, "func NewWidget() NeedsLabel {")
	assert.Contains(t, content,
		"func (s NeedsLabel) Label(label string) WidgetReady {")
	assert.Contains(t, content, "type WidgetReady struct {")
}

func TestGenerator_Generate_UnusedImportDropped(t *testing.T) {
	files := generate(t, `
package: config
imports:
  - time
  - strings

structs:
  - name: Named
    fields:
      - name: Name
        type: string
        custom:
          type: string
          convert: strings.TrimSpace
`)

	content := string(files[0].Content)

	assert.Contains(t, content, `"strings"`)
	assert.NotContains(t, content, `"time"`)
	assert.Contains(t, content, "s.value.Name = strings.TrimSpace(name)")
}

func TestGenerator_Generate_CustomClosure(t *testing.T) {
	files := generate(t, `
package: config

structs:
  - name: Normalized
    fields:
      - name: Code
        type: string
        custom:
          type: string
          convert: "func(s string) string { return s + \"!\" }"
`)

	content := string(files[0].Content)

	// Closures are parenthesized and invoked directly.
	assert.Contains(t, content,
		`s.value.Code = (func(s string) string { return s + "!" })(code)`)
}

func TestGenerator_Generate_MultipleStructs(t *testing.T) {
	files := generate(t, `
package: config

structs:
  - name: A
    fields:
      - name: X
        type: int
  - name: B
    fields:
      - name: Y
        type: int
`)

	require.Len(t, files, 2)
	assert.Equal(t, "a_builder.go", files[0].Filename)
	assert.Equal(t, "b_builder.go", files[1].Filename)
}

func TestGenerator_Generate_NoComments(t *testing.T) {
	f, err := schema.Parse([]byte(`
package: config

structs:
  - name: Quiet
    fields:
      - name: N
        type: int
`))
	require.NoError(t, err)

	resolved, err := resolve.NewResolver(f).Resolve()
	require.NoError(t, err)

	plans := []*stage.Plan{stage.Sequence(&resolved.Structs[0])}

	g := NewGenerator(GeneratorConfig{GenerateComments: false})
	files, err := g.Generate(plans)
	require.NoError(t, err)

	content := string(files[0].Content)
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			assert.Contains(t, line, "Code generated",
				"only the generated-code marker survives")
		}
	}
}

func TestParamName(t *testing.T) {
	assert.Equal(t, "host", paramName("Host"))
	assert.Equal(t, "typeArg", paramName("Type"))
	assert.Equal(t, "mapArg", paramName("Map"))
	assert.Equal(t, "v", paramName(""))
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "server_config", snakeCase("ServerConfig"))
	assert.Equal(t, "a", snakeCase("A"))
	assert.Equal(t, "doc", snakeCase("Doc"))
}
