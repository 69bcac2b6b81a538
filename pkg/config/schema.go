package config

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
)

const schemaDraft = "http://json-schema.org/draft-07/schema#"

// durationPattern matches the strings time.ParseDuration accepts.
const durationPattern = `^(0|-?([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+)$`

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		ExpandedStruct:             true,
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{Type: "string", Pattern: durationPattern}
			}
			return nil
		},
	}
}

// GenerateSchema reflects the BridgeConfig JSON schema from Config. It checks
// structure only; semantic checks live in Config.Validate.
func GenerateSchema() *jsonschema.Schema {
	schema := newReflector().Reflect(&Config{})
	schema.Version = schemaDraft
	schema.Title = "CosyVoice Bridge Configuration"
	schema.Description = "BridgeConfig manifest for the CosyVoice bridge"

	if kind, ok := schema.Properties.Get("kind"); ok {
		kind.Type = ""
		kind.Const = KindBridgeConfig
	}
	return schema
}

// SchemaJSON returns the generated schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(GenerateSchema(), "", "  ")
}
