package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// coerceToJSONBytes converts a YAML file body to JSON so both formats go
// through the same strict decoder. JSON input is returned unchanged.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return data, "json", nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}
	if doc == nil {
		// Empty YAML document: treat as an empty object.
		return []byte("{}"), "yaml", nil
	}

	j, err := json.Marshal(stringKeys(doc))
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// stringKeys rewrites map keys to strings so the tree can be JSON-marshaled.
func stringKeys(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = stringKeys(v)
		}
		return quoteIDs(m)
	case map[string]any:
		for k, v := range x {
			x[k] = stringKeys(v)
		}
		return quoteIDs(x)
	case []any:
		for i := range x {
			x[i] = stringKeys(x[i])
		}
		return x
	default:
		return in
	}
}

// quoteIDs converts numeric values under *_id keys into strings. Unquoted
// Discord snowflakes decode as ints in YAML but are strings in Config.
func quoteIDs(m map[string]any) map[string]any {
	for k, v := range m {
		if !strings.HasSuffix(k, "_id") {
			continue
		}
		switch n := v.(type) {
		case int, int64, uint64:
			m[k] = fmt.Sprint(n)
		}
	}
	return m
}
