package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
	"github.com/rotisserie/eris"
)

// Schema is a compiled JSON schema describing a stage's structured reply.
type Schema struct {
	name     string
	raw      string
	compiled *jsonschema.Schema
}

// NewSchema compiles raw under a short name used in errors and logs.
func NewSchema(name, raw string) (*Schema, error) {
	compiled, err := jsonschema.NewCompiler().Compile([]byte(raw))
	if err != nil {
		return nil, eris.Wrapf(err, "ai: compile schema %s", name)
	}
	return &Schema{name: name, raw: raw, compiled: compiled}, nil
}

// MustSchema is like NewSchema but panics on an invalid schema. It is meant
// for package-level schema literals.
func MustSchema(name, raw string) *Schema {
	s, err := NewSchema(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// String returns the schema source as embedded in prompts.
func (s *Schema) String() string { return s.raw }

// Validate checks decoded JSON data against the schema.
func (s *Schema) Validate(data any) error {
	result := s.compiled.Validate(data)
	if result.IsValid() {
		return nil
	}

	fields := make([]string, 0, len(result.Errors))
	for field := range result.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f, result.Errors[f].Message))
	}
	return eris.Errorf("ai: %s reply does not match schema: %s", s.name, strings.Join(msgs, "; "))
}
