package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// toStrictJSON re-encodes a .yaml/.yml file as JSON so Parse can run one
// strict decoder (DisallowUnknownFields) over both formats. Files with any
// other extension pass through untouched.
func toStrictJSON(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	j, err := json.Marshal(stringKeyed(v))
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

// stringKeyed rewrites every map in the YAML value tree to string keys;
// json.Marshal rejects map[any]any.
func stringKeyed(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = stringKeyed(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = stringKeyed(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = stringKeyed(x[i])
		}
		return x
	default:
		return in
	}
}
