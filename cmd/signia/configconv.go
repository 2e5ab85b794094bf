package main

import (
	"fmt"

	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/plugin"
)

// pluginConfigFrom converts the YAML-decoded block for one plugin (string
// keys, arbitrary YAML scalars/maps/lists as values) into a plugin.Config —
// the canonical.Value tree the Plugin Host hashes. YAML floats are rejected:
// no float ever crosses into a hashed domain.
func pluginConfigFrom(block map[string]any) (plugin.Config, error) {
	cfg := make(plugin.Config, len(block))
	for k, v := range block {
		cv, err := toCanonicalValue(v)
		if err != nil {
			return nil, fmt.Errorf("plugin config key %q: %w", k, err)
		}
		cfg[k] = cv
	}
	return cfg, nil
}

func toCanonicalValue(v any) (canonical.Value, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		return t, nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return nil, fmt.Errorf("floating-point values are not permitted in plugin config")
	case []any:
		out := make([]canonical.Value, len(t))
		for i, item := range t {
			cv, err := toCanonicalValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case map[string]any:
		out := make(canonical.Object, len(t))
		for k, item := range t {
			cv, err := toCanonicalValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported plugin config value type %T", v)
	}
}
