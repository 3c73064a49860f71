package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadValues reads a flat YAML mapping of seed values for an injector.
// Nested mappings and lists are kept as decoded by yaml.v3.
//
//	# values.yaml
//	greeting: hello
//	port: 8080
func LoadValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading values %s: %w", path, err)
	}
	return ParseValues(data)
}

// ParseValues decodes YAML seed values. Empty input yields an empty map.
func ParseValues(data []byte) (map[string]any, error) {
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing values: %w", err)
	}
	return values, nil
}
