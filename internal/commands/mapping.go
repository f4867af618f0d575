package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
)

// mappingSchema describes a --mapping file. Only the required fields may be
// omitted when the statement headers let them be inferred.
const mappingSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "date":        {"type": "string", "minLength": 1},
    "description": {"type": "string", "minLength": 1},
    "amount":      {"type": "string", "minLength": 1},
    "category":    {"type": "string"}
  }
}`

var compiledMappingSchema = jsonschema.MustCompileString("mapping.json", mappingSchema)

// parseMapping validates data against mappingSchema and decodes it.
func parseMapping(data []byte) (normalizer.Mapping, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return normalizer.Mapping{}, fmt.Errorf("mapping is not valid JSON: %w", err)
	}
	if err := compiledMappingSchema.Validate(v); err != nil {
		return normalizer.Mapping{}, fmt.Errorf("mapping does not match schema: %w", err)
	}

	var m normalizer.Mapping
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return normalizer.Mapping{}, fmt.Errorf("decoding mapping: %w", err)
	}
	return m, nil
}

func readMapping(path string) (normalizer.Mapping, error) {
	if path == "" {
		return normalizer.Mapping{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return normalizer.Mapping{}, fmt.Errorf("reading mapping: %w", err)
	}
	return parseMapping(data)
}
