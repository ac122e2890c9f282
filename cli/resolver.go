package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] for YAML configuration files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// Keys are flag names. Nested mappings are flattened by joining keys with
// "-", so both of these set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Underscores may replace hyphens (log_level). Command-line flags override
// file values. An empty file yields an empty configuration.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	cfg := config{}
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] for flattened YAML documents.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	for _, key := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
		if value, ok := r[key]; ok {
			return value, nil
		}
	}

	return nil, nil
}

// flatten stores the leaves of m under keys joined with "-". Underscores in
// keys are normalized to hyphens.
func (r config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := strings.ReplaceAll(k, "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}

		switch v := v.(type) {
		case map[string]any:
			r.flatten(key, v)
		case uint64:
			// Kong parses numbers from their text form.
			r[key] = strconv.FormatUint(v, 10)
		case int64:
			r[key] = strconv.FormatInt(v, 10)
		case int:
			r[key] = strconv.Itoa(v)
		case float64:
			r[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			r[key] = v
		}
	}
}
