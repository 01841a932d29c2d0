// Package schema validates decoded provider payloads against a small
// JSON-Schema vocabulary before they are unmarshaled into typed results.
// Validation is fail-fast: the first mismatch is returned with its JSON path.
package schema

import (
	"encoding/json"
	"fmt"
)

// Validator checks a decoded JSON value against a schema document.
type Validator interface {
	Validate(schema map[string]interface{}, data interface{}) error
}

// NewValidator returns the subset-vocabulary validator. Supported keywords:
// type, required, properties, items, minItems, enum. Object fields without a
// property schema pass through; unknown keywords are ignored.
func NewValidator() Validator {
	return subsetValidator{}
}

type subsetValidator struct{}

func (subsetValidator) Validate(schema map[string]interface{}, data interface{}) error {
	return check(schema, data, "$")
}

// kindChecks maps a schema type name to its Go-value predicate. JSON numbers
// decode as float64; integer additionally requires a whole value.
var kindChecks = map[string]func(interface{}) bool{
	"object":  func(v interface{}) bool { _, ok := v.(map[string]interface{}); return ok },
	"array":   func(v interface{}) bool { _, ok := v.([]interface{}); return ok },
	"string":  func(v interface{}) bool { _, ok := v.(string); return ok },
	"boolean": func(v interface{}) bool { _, ok := v.(bool); return ok },
	"number":  isNumber,
	"integer": isInteger,
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int64:
		return true
	}
	return false
}

func isInteger(v interface{}) bool {
	switch n := v.(type) {
	case int, int64:
		return true
	case float64:
		return n == float64(int64(n))
	}
	return false
}

// check recursively validates one schema node, tracking the JSON path for
// error reporting. A node without a type keyword constrains nothing.
func check(schema map[string]interface{}, data interface{}, path string) error {
	kind, ok := schema["type"].(string)
	if !ok {
		return nil
	}
	matches, known := kindChecks[kind]
	if !known {
		return fmt.Errorf("unsupported schema type: %s", kind)
	}
	if !matches(data) {
		return NewValidationError(path, "type", fmt.Sprintf("expected %s, got %T", kind, data))
	}

	switch kind {
	case "object":
		return checkObject(schema, data.(map[string]interface{}), path)
	case "array":
		return checkArray(schema, data.([]interface{}), path)
	case "string":
		return checkEnum(schema, data.(string), path)
	}
	return nil
}

func checkObject(schema map[string]interface{}, obj map[string]interface{}, path string) error {
	required, _ := schema["required"].([]interface{})
	for _, entry := range required {
		name, ok := entry.(string)
		if !ok {
			continue
		}
		if _, present := obj[name]; !present {
			return NewValidationError(path, "required", "missing required field: "+name)
		}
	}

	props, _ := schema["properties"].(map[string]interface{})
	for name, value := range obj {
		sub, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}
		if err := check(sub, value, path+"."+name); err != nil {
			return err
		}
	}
	return nil
}

func checkArray(schema map[string]interface{}, arr []interface{}, path string) error {
	if min, ok := schema["minItems"].(float64); ok && len(arr) < int(min) {
		return NewValidationError(path, "minItems",
			fmt.Sprintf("expected at least %d items, got %d", int(min), len(arr)))
	}

	sub, ok := schema["items"].(map[string]interface{})
	if !ok {
		return nil
	}
	for i, item := range arr {
		if err := check(sub, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func checkEnum(schema map[string]interface{}, value, path string) error {
	enum, ok := schema["enum"].([]interface{})
	if !ok {
		return nil
	}
	for _, allowed := range enum {
		if s, ok := allowed.(string); ok && s == value {
			return nil
		}
	}
	allowedJSON, _ := json.Marshal(enum)
	return NewValidationError(path, "enum",
		fmt.Sprintf("value %q not in allowed values: %s", value, allowedJSON))
}
