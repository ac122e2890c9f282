package plugins

import (
	"context"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/jvav/lang"
)

// YAMLModule returns the importable yaml module: sdaol(text) decodes a YAML
// document and smpud(obj) encodes a value. Mapping order is preserved in both
// directions.
func YAMLModule() *lang.Module {
	return lang.NewModule("yaml", map[string]lang.Value{
		"sdaol": fn("sdaol", []string{"text"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			text, err := lang.ToString("sdaol", args[0])
			if err != nil {
				return nil, err
			}

			var doc any
			if err := yaml.UnmarshalWithOptions([]byte(text), &doc, yaml.UseOrderedMap()); err != nil {
				return nil, fail("sdaol", err)
			}

			return fromYAML(doc)
		}),
		"smpud": fn("smpud", []string{"obj"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			b, err := yaml.Marshal(toYAML(args[0]))
			if err != nil {
				return nil, fail("smpud", err)
			}

			return lang.String(strings.TrimSuffix(string(b), "\n")), nil
		}),
	})
}

func fromYAML(x any) (lang.Value, error) {
	switch x := x.(type) {
	case yaml.MapSlice:
		m := lang.NewMap()

		for _, item := range x {
			k, err := fromYAML(item.Key)
			if err != nil {
				return nil, err
			}

			v, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}

			if err := m.Set(k, v); err != nil {
				return nil, err
			}
		}

		return m, nil
	case []any:
		l := lang.NewList()

		for _, e := range x {
			v, err := fromYAML(e)
			if err != nil {
				return nil, err
			}

			l.Append(v)
		}

		return l, nil
	}

	return lang.FromNative(x)
}

func toYAML(v lang.Value) any {
	return toYAMLValue(v, map[lang.Value]bool{})
}

// toYAMLValue converts v keeping mapping order. A container reached again
// through itself becomes its placeholder text.
func toYAMLValue(v lang.Value, active map[lang.Value]bool) any {
	switch v := v.(type) {
	case *lang.Map:
		if active[v] {
			return "{...}"
		}

		active[v] = true
		defer delete(active, v)

		out := make(yaml.MapSlice, 0, v.Len())
		for k, e := range v.All() {
			out = append(out, yaml.MapItem{Key: lang.ToNative(k), Value: toYAMLValue(e, active)})
		}

		return out
	case *lang.List:
		if active[v] {
			return "[...]"
		}

		active[v] = true
		defer delete(active, v)

		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = toYAMLValue(e, active)
		}

		return out
	}

	return lang.ToNative(v)
}
