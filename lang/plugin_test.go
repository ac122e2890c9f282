package lang

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func constPlugin(vals map[string]string) Factory {
	return func() (map[string]Value, error) {
		out := make(map[string]Value, len(vals))

		for name, result := range vals {
			out[name] = NewBuiltin(name, nil, func(context.Context, []Value) (Value, error) {
				return String(result), nil
			})
		}

		return out, nil
	}
}

func TestPluginUnloadCollision(t *testing.T) {
	in, _ := newTestInterpreter(t)

	in.RegisterPlugin("a", constPlugin(map[string]string{"shared": "a", "onlya": "a"}))
	in.RegisterPlugin("b", constPlugin(map[string]string{"shared": "b", "onlyb": "b"}))

	in.LoadPlugin("a")
	in.LoadPlugin("b")

	if v := mustEval(t, in, "shared()"); !Equal(v, String("b")) {
		t.Fatalf("shared() = %v, want b", v)
	}

	// Unloading the earlier plugin leaves the later plugin's binding alone.
	in.UnloadPlugin("a")

	if v := mustEval(t, in, "shared()"); !Equal(v, String("b")) {
		t.Errorf("after unload a: shared() = %v, want b", v)
	}

	if in.Env().Contains("onlya") {
		t.Error("onlya still bound")
	}

	// Unloading the shadowing plugin restores a still-loaded one's binding.
	in.LoadPlugin("a")
	in.LoadPlugin("b")
	in.UnloadPlugin("b")

	if v := mustEval(t, in, "shared()"); !Equal(v, String("a")) {
		t.Errorf("after unload b: shared() = %v, want a", v)
	}
}

func TestPluginUnloadKeepsUserBinding(t *testing.T) {
	in, _ := newTestInterpreter(t)

	in.RegisterPlugin("p", constPlugin(map[string]string{"thing": "plugin"}))
	in.LoadPlugin("p")

	mustEval(t, in, "thing = 42")
	in.UnloadPlugin("p")

	if v := lookup(t, in, "thing"); !Equal(v, Int(42)) {
		t.Errorf("thing = %v, want 42", v)
	}
}

func TestPluginRestoresBuiltin(t *testing.T) {
	in, _ := newTestInterpreter(t)

	original := lookup(t, in, "nel")

	in.RegisterPlugin("p", constPlugin(map[string]string{"nel": "shadow"}))
	in.LoadPlugin("p")

	if v := mustEval(t, in, "nel()"); !Equal(v, String("shadow")) {
		t.Fatalf("nel() = %v, want shadow", v)
	}

	in.UnloadPlugin("p")

	if lookup(t, in, "nel") != original {
		t.Error("builtin nel was not restored")
	}
}

func TestPluginRegistry(t *testing.T) {
	failing := func() (map[string]Value, error) { return nil, errors.New("boom") }

	in, _ := newTestInterpreter(t,
		WithPlugin("zeta", constPlugin(map[string]string{"z": "z"}), true),
		WithPlugin("alpha", constPlugin(map[string]string{"a": "a"}), false),
		WithPlugin("broken", failing, false),
	)

	available, loaded := in.ListPlugins()
	if !slices.Equal(available, []string{"alpha", "broken", "zeta"}) {
		t.Errorf("available = %q", available)
	}

	if !slices.Equal(loaded, []string{"zeta"}) {
		t.Errorf("loaded = %q", loaded)
	}

	if in.LoadPlugin("missing") {
		t.Error("loaded an unregistered plugin")
	}

	if in.LoadPlugin("broken") {
		t.Error("loaded a failing plugin")
	}

	if in.UnloadPlugin("alpha") {
		t.Error("unloaded a plugin that was never loaded")
	}

	// Reloading keeps a single entry in the load order.
	in.LoadPlugin("alpha")
	in.LoadPlugin("zeta")

	if _, loaded := in.ListPlugins(); !slices.Equal(loaded, []string{"alpha", "zeta"}) {
		t.Errorf("loaded after reload = %q", loaded)
	}
}

func TestPluginCommand(t *testing.T) {
	in, out := newTestInterpreter(t, WithPlugin("p", constPlugin(map[string]string{"x": "x"}), false))

	mustEval(t, in, "plugin load p")
	mustEval(t, in, "plugin load nope")
	mustEval(t, in, "plugin list")
	mustEval(t, in, "plugin unload p")
	mustEval(t, in, "plugin unload p")

	want := strings.Join([]string{
		"[plugin] Loaded plugin: p",
		"[plugin] Failed to load plugin: nope",
		"[plugin] Available: p",
		"[plugin] Loaded: p",
		"[plugin] Unloaded plugin: p",
		"[plugin] Failed to unload plugin: p",
	}, "\n") + "\n"

	if got := out.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}

	if _, err := in.Evaluate(t.Context(), "plugin frobnicate"); !errors.Is(err, ErrEvaluation) {
		t.Errorf("bad plugin command: error = %v", err)
	}
}
