// Package jsonschema validates JSON documents, typically response bodies,
// against JSON Schema.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "schema.json"

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// Validator holds a compiled schema so repeated validations skip compilation.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile compiles schemaStr. Format keywords such as "email" and "date" are
// asserted, not just annotated.
func Compile(schemaStr string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource(schemaResource, strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks jsonStr. The returned errors are empty when it is valid.
func (v *Validator) Validate(jsonStr string) (bool, ValidationErrors) {
	var doc interface{}
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return false, ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	err := v.schema.Validate(doc)
	if err == nil {
		return true, nil
	}
	if verr, ok := err.(*jsonschema.ValidationError); ok {
		return false, flatten(verr)
	}
	return false, ValidationErrors{err}
}

// Validate reports whether jsonStr satisfies schemaStr. Schema or JSON
// syntax problems are returned as an error; schema violations are not.
func Validate(jsonStr, schemaStr string) (bool, error) {
	v, err := Compile(schemaStr)
	if err != nil {
		return false, err
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}
	return v.schema.Validate(doc) == nil, nil
}

// ValidateWithErrors is Validate returning every violation found.
func ValidateWithErrors(jsonStr, schemaStr string) (bool, ValidationErrors) {
	v, err := Compile(schemaStr)
	if err != nil {
		return false, ValidationErrors{err}
	}
	return v.Validate(jsonStr)
}

// flatten walks the cause tree collecting leaf messages with their location.
func flatten(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return ValidationErrors{fmt.Errorf("validation error at %s: %s", location, err.Message)}
	}
	var errs ValidationErrors
	for _, cause := range err.Causes {
		errs = append(errs, flatten(cause)...)
	}
	return errs
}
