package mcp

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// schemaGenerator reflects tool input schemas from Go structs
type schemaGenerator struct {
	reflector *jsonschema.Reflector
}

func newSchemaGenerator() *schemaGenerator {
	return &schemaGenerator{
		reflector: &jsonschema.Reflector{
			AllowAdditionalProperties:  false,
			RequiredFromJSONSchemaTags: true,
			// MCP clients expect self-contained schemas
			DoNotReference: true,
		},
	}
}

func (g *schemaGenerator) generate(value any) (json.RawMessage, error) {
	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("expected struct type, got %v", t.Kind())
	}

	schema := g.reflector.ReflectFromType(t)
	// drop the draft URL; MCP tool schemas are plain objects
	schema.Version = ""
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal JSON schema")
	}
	return data, nil
}

// mustGenerate panics on failure; inputs are fixed structs known to reflect
func (g *schemaGenerator) mustGenerate(value any) json.RawMessage {
	data, err := g.generate(value)
	if err != nil {
		panic(err)
	}
	return data
}
