// Package runtime validates forgecheck documents against the embedded schemas.
package runtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	gjsonschema "github.com/google/jsonschema-go/jsonschema"

	schemasembed "github.com/wharflab/forgecheck/internal/schemas"
)

// Validator checks JSON-like values (maps, slices, scalars) against a schema.
type Validator interface {
	ValidateFixture(raw any) error
	ValidateOutput(raw any) error
	ValidateConfig(raw map[string]any) error
}

type validator struct {
	fixture *gjsonschema.Resolved
	output  *gjsonschema.Resolved
	config  *gjsonschema.Resolved
}

var (
	defaultValidatorOnce sync.Once
	defaultValidator     Validator
	errDefaultValidator  error
)

// DefaultValidator returns the shared validator built from the embedded schemas.
func DefaultValidator() (Validator, error) {
	defaultValidatorOnce.Do(func() {
		defaultValidator, errDefaultValidator = newValidator()
	})
	if errDefaultValidator != nil {
		return nil, errDefaultValidator
	}
	return defaultValidator, nil
}

func newValidator() (*validator, error) {
	parsedSchemas := make(map[string]*gjsonschema.Schema)

	for _, schemaID := range schemasembed.AllSchemaIDs() {
		schema, err := parseSchemaByID(schemaID)
		if err != nil {
			return nil, err
		}
		parsedSchemas[schemaID] = schema
	}

	loader := func(uri *url.URL) (*gjsonschema.Schema, error) {
		schemaID := normalizeSchemaID(uri.String())
		schema, ok := parsedSchemas[schemaID]
		if !ok {
			return nil, fmt.Errorf("schema loader: unknown URI %q", uri.String())
		}
		return schema.CloneSchemas(), nil
	}

	resolve := func(schemaID string) (*gjsonschema.Resolved, error) {
		schema, ok := parsedSchemas[schemaID]
		if !ok {
			return nil, fmt.Errorf("missing embedded schema %q", schemaID)
		}
		resolved, err := schema.CloneSchemas().Resolve(&gjsonschema.ResolveOptions{
			BaseURI: schemaID,
			Loader:  loader,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve schema %s: %w", schemaID, err)
		}
		return resolved, nil
	}

	v := &validator{}
	var err error
	if v.fixture, err = resolve(schemasembed.FixtureSchemaID); err != nil {
		return nil, err
	}
	if v.output, err = resolve(schemasembed.OutputSchemaID); err != nil {
		return nil, err
	}
	if v.config, err = resolve(schemasembed.ConfigSchemaID); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *validator) ValidateFixture(raw any) error {
	return validate(v.fixture, raw, "fixture")
}

func (v *validator) ValidateOutput(raw any) error {
	return validate(v.output, raw, "validator output")
}

func (v *validator) ValidateConfig(raw map[string]any) error {
	if raw == nil {
		return nil
	}
	return validate(v.config, raw, "config")
}

func validate(resolved *gjsonschema.Resolved, raw any, what string) error {
	jsonValue, err := ToJSONValue(raw)
	if err != nil {
		return fmt.Errorf("convert %s to JSON value: %w", what, err)
	}
	if err := resolved.Validate(jsonValue); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", what, err)
	}
	return nil
}

func parseSchemaByID(schemaID string) (*gjsonschema.Schema, error) {
	data, err := schemasembed.ReadSchemaByID(schemaID)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", schemaID, err)
	}

	var schema gjsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", schemaID, err)
	}
	return &schema, nil
}

// ToJSONValue round-trips value through encoding/json so that numbers become
// float64, structs become maps and the result only holds JSON types.
func ToJSONValue(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeSchemaID(uri string) string {
	if before, _, ok := strings.Cut(uri, "#"); ok {
		return before
	}
	return uri
}
