package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/gradscout/internal/types"
)

//go:embed targets.schema.json
var targetsSchema string

// ValidationError reports schema violations with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("targets validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents a failure in the schema machinery itself rather
// than in the document being checked.
type SchemaLoadError struct {
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("targets schema: %s: %v", e.Message, e.Cause)
	}
	return "targets schema: " + e.Message
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// LoadTargets reads, schema-checks, and struct-validates a targets JSON
// file, returning every target including disabled ones. Use Enabled to
// filter.
func LoadTargets(path string) ([]types.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file %s: %w", path, err)
	}
	return ParseTargets(data)
}

// ParseTargets validates raw targets JSON against the embedded schema before
// unmarshalling, so malformed config fails with field paths instead of a
// zero-value Target sneaking into a run.
func ParseTargets(data []byte) ([]types.Target, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var targets []types.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse targets JSON: %w", err)
	}

	v := validator.New()
	for i := range targets {
		if err := v.Struct(&targets[i]); err != nil {
			return nil, fmt.Errorf("target %q invalid: %w", targets[i].ID, err)
		}
	}
	return targets, nil
}

func checkSchema(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(targetsSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return &SchemaLoadError{Message: "validation failed during load", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

// Enabled returns the targets with the enabled flag set, preserving order.
func Enabled(targets []types.Target) []types.Target {
	var out []types.Target
	for _, t := range targets {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}
