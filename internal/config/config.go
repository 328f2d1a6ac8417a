// Package config loads, validates and persists the cvutie configuration file.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/cvutie/cvutie/internal/schema"
)

// Parse validates raw config JSON against the schema, decodes it, applies
// defaults and runs semantic validation. Unknown fields are returned as
// warnings.
func Parse(data []byte) (*Config, []string, error) {
	if err := schema.ValidateConfig(data); err != nil {
		return nil, nil, err
	}

	cfg, warnings, err := LoadWithWarnings(data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}

	return cfg, warnings, nil
}

// Marshal serializes a config the way it is stored on disk.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return append(data, '\n'), nil
}
