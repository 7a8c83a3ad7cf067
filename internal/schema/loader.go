package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a schema file from the given path. Files ending
// in .json are parsed as JSON; everything else as YAML.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}

	return Parse(data)
}

// Parse parses YAML data into a File. Unknown option names anywhere in the
// document are rejected; yaml aggregates all of them into a single error.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File

	err := dec.Decode(&f)
	if err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("schema contains invalid options:\n  %s",
				strings.Join(typeErr.Errors, "\n  "))
		}

		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// ParseJSON parses a JSON rendition of the schema. The document is decoded
// generically and re-encoded as YAML so both formats share one set of
// normalization rules.
func ParseJSON(data []byte) (*File, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}

	converted, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert schema JSON: %w", err)
	}

	return Parse(converted)
}

// applyDefaults fills in default values for optional file-level settings.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.Structs {
		s := &f.Structs[i]
		if s.Package == "" {
			s.Package = f.Package
		}
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}
