package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const errorFormat = "  - %s"

var bridgeSchemaLoader = sync.OnceValues(func() (gojsonschema.JSONLoader, error) {
	data, err := SchemaJSON()
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewBytesLoader(data), nil
})

// SchemaValidationError represents a validation error from JSON schema validation
type SchemaValidationError struct {
	Field       string
	Description string
	Value       interface{}
}

// Error implements the error interface
func (e SchemaValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (value: %v)", e.Field, e.Description, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// SchemaValidationResult contains the results of schema validation
type SchemaValidationResult struct {
	Valid  bool
	Errors []SchemaValidationError
}

// ValidateWithSchema validates YAML data against the BridgeConfig schema.
func ValidateWithSchema(yamlData []byte) (*SchemaValidationResult, error) {
	var data interface{}
	if err := yaml.Unmarshal(yamlData, &data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to JSON: %w", err)
	}

	schemaLoader, err := bridgeSchemaLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	out := &SchemaValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, SchemaValidationError{
			Field:       e.Field(),
			Description: e.Description(),
			Value:       e.Value(),
		})
	}
	return out, nil
}

// formatSchemaErrors renders schema errors one per line.
func formatSchemaErrors(errs []SchemaValidationError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = fmt.Sprintf(errorFormat, e.Error())
	}
	return strings.Join(lines, "\n")
}
