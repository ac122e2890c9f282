package lang

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
	"strings"
)

// Factory builds the bindings a plugin installs when it is loaded.
type Factory func() (map[string]Value, error)

// pluginRegistry tracks registered factories and, for every loaded plugin,
// the exact values it installed.
type pluginRegistry struct {
	factories map[string]Factory
	loaded    []string
	installed map[string]map[string]Value
	autoload  []string
}

func newPluginRegistry() *pluginRegistry {
	return &pluginRegistry{
		factories: make(map[string]Factory),
		installed: make(map[string]map[string]Value),
	}
}

func (r *pluginRegistry) register(name string, f Factory) {
	r.factories[name] = f
}

func (r *pluginRegistry) isLoaded(name string) bool {
	return slices.Contains(r.loaded, name)
}

// RegisterPlugin makes a plugin available for loading. Registering a name
// again replaces its factory; a loaded plugin keeps its bindings until it is
// unloaded or reloaded.
func (in *Interpreter) RegisterPlugin(name string, f Factory) {
	in.plugins.register(name, f)

	in.logger.Trace("plugin registered", slog.String("plugin", name))
}

// LoadPlugin installs the bindings of the named plugin, overwriting any
// existing bindings with the same names. Loading a loaded plugin reloads it.
// It reports false for unknown plugins and factory failures.
func (in *Interpreter) LoadPlugin(name string) bool {
	f, ok := in.plugins.factories[name]
	if !ok {
		in.logger.Warn("plugin not found", slog.String("plugin", name))

		return false
	}

	if in.plugins.isLoaded(name) {
		in.UnloadPlugin(name)
	}

	vals, err := f()
	if err != nil {
		in.logger.Warn("plugin failed to load",
			slog.String("plugin", name),
			slog.Any("error", ErrUnknownPlugin.Wrap(err)))

		return false
	}

	installed := make(map[string]Value, len(vals))

	for _, k := range sortedKeys(vals) {
		if strings.HasPrefix(k, reservedPrefix) || vals[k] == nil {
			continue
		}

		in.env.Set(k, vals[k])
		installed[k] = vals[k]
	}

	in.plugins.installed[name] = installed
	in.plugins.loaded = append(in.plugins.loaded, name)

	in.logger.Debug("plugin loaded",
		slog.String("plugin", name),
		slog.Int("bindings", len(installed)))

	return true
}

// UnloadPlugin removes the bindings the named plugin installed.
//
// A binding is removed only while the environment still holds the value this
// plugin installed; names since rebound by another plugin or by a script are
// left alone. A removed name that shadowed a binding of a still-loaded plugin
// or of the builtin catalog gets that binding back.
func (in *Interpreter) UnloadPlugin(name string) bool {
	if !in.plugins.isLoaded(name) {
		return false
	}

	installed := in.plugins.installed[name]

	in.plugins.loaded = slices.DeleteFunc(in.plugins.loaded, func(s string) bool {
		return s == name
	})
	delete(in.plugins.installed, name)

	removed, restored := 0, 0

	for _, k := range sortedKeys(installed) {
		cur, ok := in.env.Get(k)
		if !ok || !sameValue(cur, installed[k]) {
			continue
		}

		in.env.Delete(k)
		removed++

		if prev, ok := in.shadowed(k); ok {
			in.env.Set(k, prev)
			restored++
		}
	}

	in.logger.Debug("plugin unloaded",
		slog.String("plugin", name),
		slog.Int("removed", removed),
		slog.Int("restored", restored))

	return true
}

// shadowed returns the binding for name from the most recently loaded
// plugin that installed it, falling back to the builtin catalog.
func (in *Interpreter) shadowed(name string) (Value, bool) {
	for _, p := range slices.Backward(in.plugins.loaded) {
		if v, ok := in.plugins.installed[p][name]; ok {
			return v, true
		}
	}

	v, ok := in.builtins[name]

	return v, ok
}

// ListPlugins returns the registered plugins sorted by name and the loaded
// plugins in load order.
func (in *Interpreter) ListPlugins() (available, loaded []string) {
	return sortedKeys(in.plugins.factories), slices.Clone(in.plugins.loaded)
}

// sameValue reports whether a and b are the identical value.
func sameValue(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}

// execPlugin runs "plugin load NAME", "plugin unload NAME" and "plugin list".
func (in *Interpreter) execPlugin(ctx context.Context, line string) (Value, Signal, error) {
	words := strings.Fields(line)

	switch {
	case len(words) == 3 && words[1] == "load":
		if in.LoadPlugin(words[2]) {
			in.writeLine("[plugin] Loaded plugin:", words[2])
		} else {
			in.writeLine("[plugin] Failed to load plugin:", words[2])
		}
	case len(words) == 3 && words[1] == "unload":
		if in.UnloadPlugin(words[2]) {
			in.writeLine("[plugin] Unloaded plugin:", words[2])
		} else {
			in.writeLine("[plugin] Failed to unload plugin:", words[2])
		}
	case len(words) == 2 && words[1] == "list":
		available, loaded := in.ListPlugins()
		in.writeLine("[plugin] Available:", strings.Join(available, ", "))
		in.writeLine("[plugin] Loaded:", strings.Join(loaded, ", "))
	default:
		in.logger.DebugContext(ctx, "bad plugin command", slog.String("line", line))

		return nil, Continue, evalErr("usage: plugin load <name> | plugin unload <name> | plugin list")
	}

	return nil, Continue, nil
}
