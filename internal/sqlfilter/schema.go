package sqlfilter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema maps SCIM attribute paths of one resource type to database columns.
//
// Attribute keys are SCIM paths such as "userName" or "name.familyName" and are
// matched case-insensitively. Attributes without a mapping fall back to the
// snake_case form of the path unless Strict is set.
type Schema struct {
	Table       string                 `yaml:"table"`
	PrimaryKey  string                 `yaml:"primaryKey"`
	Strict      bool                   `yaml:"strict"`
	Attributes  map[string]string      `yaml:"attributes"`
	MultiValued map[string]MultiValued `yaml:"multiValued"`
}

// MultiValued maps a multi-valued attribute to a child table joined through
// ForeignKey. Sub-attribute keys follow the same rules as Schema.Attributes;
// the bare attribute compares the "value" sub-attribute.
type MultiValued struct {
	Table      string            `yaml:"table"`
	ForeignKey string            `yaml:"foreignKey"`
	Attributes map[string]string `yaml:"attributes"`
}

// LoadSchema decodes a YAML schema from r.
func LoadSchema(r io.Reader) (*Schema, error) {
	var s Schema
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchemaFile decodes the YAML schema stored at path.
func LoadSchemaFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema: %w", err)
	}
	defer f.Close()
	return LoadSchema(f)
}

func (s *Schema) validate() error {
	if len(s.MultiValued) > 0 && s.Table == "" {
		return fmt.Errorf("%w: multi-valued attributes require a table", errInvalidSchema)
	}
	for name, mv := range s.MultiValued {
		if mv.Table == "" || mv.ForeignKey == "" {
			return fmt.Errorf("%w: multi-valued attribute %q needs table and foreignKey", errInvalidSchema, name)
		}
	}
	return nil
}

func (s *Schema) primaryKey() string {
	if s.PrimaryKey == "" {
		return "id"
	}
	return s.PrimaryKey
}

// multiValued returns the child table mapping of name, if any
func (s *Schema) multiValued(name string) (MultiValued, bool) {
	if mv, ok := s.MultiValued[name]; ok {
		return mv, true
	}
	for key, mv := range s.MultiValued {
		if strings.EqualFold(key, name) {
			return mv, true
		}
	}
	return MultiValued{}, false
}

// column resolves path against mapping, falling back to snake_case
func column(mapping map[string]string, path string, strict bool) (string, error) {
	if col, ok := mapping[path]; ok {
		return col, nil
	}
	for key, col := range mapping {
		if strings.EqualFold(key, path) {
			return col, nil
		}
	}
	if strict {
		return "", fmt.Errorf("%w: %s", errUnknownAttribute, path)
	}
	return toSnakeCase(strings.ReplaceAll(path, ".", "_")), nil
}
