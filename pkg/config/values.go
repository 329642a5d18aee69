// Package config loads run configuration: seed values from YAML files
// and key=value command-line pairs, and the validated options a run
// starts with.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadValuesFile reads seed values from a YAML file. The document root
// must be a mapping with string keys.
func LoadValuesFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading values file: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing values file %s: %w", path, err)
	}
	if raw == nil {
		return map[string]any{}, nil
	}

	switch mapping := raw.(type) {
	case map[string]any:
		return mapping, nil
	case map[any]any:
		values := make(map[string]any, len(mapping))
		for k, v := range mapping {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("invalid key type in %s: %v", path, k)
			}
			values[key] = v
		}
		return values, nil
	default:
		return nil, fmt.Errorf("expected a mapping at the root of %s, got %T", path, raw)
	}
}

// ParsePairs parses key=value pairs, splitting each on the first "=".
// The value keeps any further "=" characters verbatim.
func ParsePairs(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid value %q (expecting key=value)", pair)
		}
		values[key] = value
	}
	return values, nil
}

// Merge layers overrides on top of base without modifying either.
// Override keys win.
func Merge(base, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
