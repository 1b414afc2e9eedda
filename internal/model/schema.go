package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaError reports that a generation response does not conform to the
// simulation-result shape. It is recoverable: the stage does not advance and
// the user may retry the step.
type SchemaError struct {
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "could not parse result"
	}
	if e.Cause != nil {
		return fmt.Sprintf("result schema: %s: %v", msg, e.Cause)
	}
	return "result schema: " + msg
}

func (e *SchemaError) Unwrap() error { return e.Cause }

const resultSchemaJSON = `{
  "type": "object",
  "required": ["locations", "parameters"],
  "properties": {
    "description": {"type": "string"},
    "locations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "population", "wages", "rents", "amenity", "productivity"],
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "population": {"type": "number"},
          "wages": {"type": "number"},
          "rents": {"type": "number"},
          "amenity": {"type": "number"},
          "productivity": {"type": "number"}
        }
      }
    },
    "parameters": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    },
    "totalWelfare": {"type": "number"}
  }
}`

var resultSchema = mustCompileSchema(resultSchemaJSON)

// ResultJSONSchema returns the simulation-result schema as a generic map,
// for providers that accept a response schema hint.
func ResultJSONSchema() map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(resultSchemaJSON), &m); err != nil {
		panic(err)
	}
	return m
}

func mustCompileSchema(src string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("result.schema.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return c.MustCompile("result.schema.json")
}

// ValidateResult gates a raw decoded generation response. On success it
// returns the same data as a typed SimulationResult; it never defaults or
// rewrites fields beyond the optional TotalWelfare being absent. On failure
// it returns a *SchemaError and the caller must not commit anything.
func ValidateResult(raw any) (*SimulationResult, error) {
	if raw == nil {
		return nil, &SchemaError{Message: "response is empty"}
	}
	if err := resultSchema.Validate(raw); err != nil {
		return nil, &SchemaError{Message: "response does not match simulation result schema", Cause: err}
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, &SchemaError{Message: "response is not encodable", Cause: err}
	}
	var res SimulationResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, &SchemaError{Message: "response does not decode", Cause: err}
	}

	// Location identity must be stable and unique within one result set.
	seen := make(map[string]struct{}, len(res.Locations))
	for _, loc := range res.Locations {
		if _, dup := seen[loc.ID]; dup {
			return nil, &SchemaError{Message: fmt.Sprintf("duplicate location id %q", loc.ID)}
		}
		seen[loc.ID] = struct{}{}
	}
	return &res, nil
}
