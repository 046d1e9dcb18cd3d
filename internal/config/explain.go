package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a dotted YAML path and the source
// that set it. List entries are addressed by index:
//
//	logging.level
//	desktop.auto_maximize
//	outputs.0.scale
//	seats.1.devices
//	backend.kind
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// lookupValue walks the config's YAML form so that paths always match the
// keys users write.
func lookupValue(cfg *Config, path string) (any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	cur := root
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("unknown config path %q", path)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("unknown config path %q: bad index %q", path, part)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("unknown config path %q", path)
		}
	}
	return cur, nil
}
