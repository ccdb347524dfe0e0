package weather

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	geocodeSchema  = mustLoadSchema("schemas/geocode.json")
	forecastSchema = mustLoadSchema("schemas/forecast.json")
)

func mustLoadSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("weather: reading %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("weather: adding %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// decode validates data against schema before unmarshalling it into v.
// Any mismatch is reported as a *SchemaError.
func decode(endpoint string, schema *jsonschema.Schema, data []byte, v any) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &SchemaError{Endpoint: endpoint, Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return &SchemaError{Endpoint: endpoint, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &SchemaError{Endpoint: endpoint, Err: err}
	}
	return nil
}
