package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func compileSchema(m Manifest) (*jsonschema.Schema, error) {
	url := m.Name + "/configSchema.json"

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(m.ConfigSchema)); err != nil {
		return nil, fmt.Errorf("add config schema for %s: %w", m.Name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile config schema for %s: %w", m.Name, err)
	}
	return schema, nil
}

// ValidateConfig checks config against the manifest's configSchema.
// Manifests without a schema accept any config.
func ValidateConfig(m Manifest, config json.RawMessage) error {
	if len(m.ConfigSchema) == 0 {
		return nil
	}

	schema, err := compileSchema(m)
	if err != nil {
		return err
	}

	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	var instance any
	if err := json.Unmarshal(config, &instance); err != nil {
		return fmt.Errorf("parse config for %s: %w", m.Name, err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("invalid config for %s: %w", m.Name, err)
	}
	return nil
}
