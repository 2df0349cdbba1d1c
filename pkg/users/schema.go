package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// userSchema describes the body accepted by POST /users and PUT /users/{id}.
const userSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "email"],
  "properties": {
    "name":  {"type": "string", "minLength": 1, "pattern": "\\S"},
    "email": {"type": "string", "format": "email"}
  }
}`

// FieldError describes one invalid field of a request body.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Input is a validated request body.
type Input struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// errInvalidJSON wraps bodies that are not JSON at all.
var errInvalidJSON = errors.New("request body is not valid JSON")

func compileUserSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if err := compiler.AddResource("user.json", strings.NewReader(userSchema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("user.json")
}

// decodeInput parses body and checks it against schema. Schema failures are
// returned as field errors; a malformed document returns errInvalidJSON.
func decodeInput(schema *jsonschema.Schema, body []byte) (Input, []FieldError, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Input{}, nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}

	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if !errors.As(err, &validationErr) {
			return Input{}, nil, err
		}
		return Input{}, collectFieldErrors(validationErr, nil), nil
	}

	var in Input
	if err := json.Unmarshal(body, &in); err != nil {
		return Input{}, nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return in, nil, nil
}

// collectFieldErrors flattens the leaves of a validation error tree.
func collectFieldErrors(err *jsonschema.ValidationError, out []FieldError) []FieldError {
	if len(err.Causes) == 0 {
		return append(out, FieldError{
			Field:   fieldFromPointer(err.InstanceLocation),
			Message: err.Message,
		})
	}
	for _, cause := range err.Causes {
		out = collectFieldErrors(cause, out)
	}
	return out
}

// fieldFromPointer converts a JSON Pointer to dot notation.
func fieldFromPointer(path string) string {
	path = strings.TrimPrefix(path, "/")
	return strings.ReplaceAll(path, "/", ".")
}
