package plugins

import (
	"context"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/jvav/lang"
)

// exprBundle evaluates expr-lang expressions. Expressions see the data
// bindings (everything but callables and modules) of the interpreter's global
// environment, overlaid by an optional dict.
func exprBundle(in *lang.Interpreter) lang.Factory {
	return func() (map[string]lang.Value, error) {
		return table(
			fn("rpxe", []string{"source", "env=None"}, 1, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
				source, err := lang.ToString("rpxe", args[0])
				if err != nil {
					return nil, err
				}

				var overlay *lang.Map

				if len(args) == 2 && args[1].Kind() != lang.KindNone {
					if overlay, err = lang.ToMap("rpxe", args[1]); err != nil {
						return nil, err
					}
				}

				return evalExpr(source, exprEnv(in.Env(), overlay))
			}),
		), nil
	}
}

// exprEnv builds the expr-lang environment from the data bindings of env.
func exprEnv(env *lang.Env, overlay *lang.Map) map[string]any {
	out := make(map[string]any)

	for _, name := range env.Names() {
		if strings.HasPrefix(name, "__") {
			continue
		}

		v, _ := env.Get(name)

		switch v.Kind() {
		case lang.KindCallable, lang.KindModule:
			continue
		}

		out[name] = lang.ToNative(v)
	}

	if overlay != nil {
		for k, v := range overlay.All() {
			out[k.String()] = lang.ToNative(v)
		}
	}

	return out
}

func evalExpr(source string, env map[string]any) (lang.Value, error) {
	if strings.TrimSpace(source) == "" {
		return nil, lang.ErrEvaluation.Wrapf("rpxe(): empty expression")
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, fail("rpxe", err).With(slog.String("source", source))
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fail("rpxe", err).With(slog.String("source", source))
	}

	return lang.FromNative(out)
}
