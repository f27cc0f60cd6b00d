package testsvc

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// startSessionSchema is the contract the start-session payload must meet
// before the client will run a test against it. Questions with an empty
// choice set are allowed through here; the session layer isolates and
// flags them individually instead of rejecting the whole set.
var startSessionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sessionId": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"timeLimitMinutes": map[string]any{
			"type":    "integer",
			"minimum": 1,
		},
		"questions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":     map[string]any{"type": "string", "minLength": 1},
					"number": map[string]any{"type": "integer", "minimum": 1},
					"prompt": map[string]any{"type": "string", "minLength": 1},
					"choices": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"key":  map[string]any{"type": "string", "minLength": 1},
								"text": map[string]any{"type": "string"},
							},
							"required": []any{"key", "text"},
						},
					},
				},
				"required": []any{"id", "number", "prompt", "choices"},
			},
		},
	},
	"required": []any{"sessionId", "timeLimitMinutes", "questions"},
}

var (
	compileOnce      sync.Once
	compiledSchema   *jsonschema.Schema
	compileSchemaErr error
)

// validateStartSession checks raw against the start-session schema and
// returns *ErrBadPayload on any violation.
func validateStartSession(raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrBadPayload{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := getStartSessionSchema()
	if err != nil {
		return &ErrBadPayload{Content: raw, Err: fmt.Errorf("compile schema: %w", err)}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrBadPayload{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}

func getStartSessionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value, not raw bytes.
		defBytes, err := json.Marshal(startSessionSchema)
		if err != nil {
			compileSchemaErr = err
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			compileSchemaErr = err
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://start-session.json"
		if err := c.AddResource(schemaURL, defParsed); err != nil {
			compileSchemaErr = err
			return
		}
		compiledSchema, compileSchemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, compileSchemaErr
}
