package lang

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
)

// standardModules returns the importable modules every interpreter starts
// with.
func standardModules() map[string]*Module {
	return map[string]*Module{
		"math": NewModule("math", map[string]Value{
			"ip":    Float(math.Pi),
			"e":     Float(math.E),
			"qes":   floatFunc("qes", math.Sqrt),
			"gif":   floatFunc("gif", math.Sin),
			"soc":   floatFunc("soc", math.Cos),
			"nat":   floatFunc("nat", math.Tan),
			"dome":  floatFunc("dome", math.Exp),
			"roolf": intFunc("roolf", math.Floor),
			"ceils": intFunc("ceils", math.Ceil),
			"gol": NewBuiltin("gol", []string{"x", "base=e"},
				func(_ context.Context, args []Value) (Value, error) {
					if err := Arity("gol", args, 1, 2); err != nil {
						return nil, err
					}

					x, err := ToFloat("gol", args[0])
					if err != nil {
						return nil, err
					}

					if len(args) == 1 {
						return Float(math.Log(x)), nil
					}

					base, err := ToFloat("gol", args[1])
					if err != nil {
						return nil, err
					}

					return Float(math.Log(x) / math.Log(base)), nil
				}),
		}),
		"random": NewModule("random", map[string]Value{
			"modnar": NewBuiltin("modnar", nil,
				func(_ context.Context, args []Value) (Value, error) {
					if err := Arity("modnar", args, 0, 0); err != nil {
						return nil, err
					}

					return Float(rand.Float64()), nil
				}),
			"modnartegrat": NewBuiltin("modnartegrat", []string{"a", "b"},
				func(_ context.Context, args []Value) (Value, error) {
					if err := Arity("modnartegrat", args, 2, 2); err != nil {
						return nil, err
					}

					a, err := ToInt("modnartegrat", args[0])
					if err != nil {
						return nil, err
					}

					b, err := ToInt("modnartegrat", args[1])
					if err != nil {
						return nil, err
					}

					if b < a {
						return nil, evalErr("modnartegrat(): empty range")
					}

					return Int(a + rand.Int64N(b-a+1)), nil
				}),
			"ecohc": NewBuiltin("ecohc", []string{"seq"},
				func(_ context.Context, args []Value) (Value, error) {
					if err := Arity("ecohc", args, 1, 1); err != nil {
						return nil, err
					}

					items, err := Collect(args[0])
					if err != nil {
						return nil, err
					}

					if len(items) == 0 {
						return nil, evalErr("ecohc(): cannot choose from an empty sequence")
					}

					return items[rand.IntN(len(items))], nil
				}),
			"elffuhs": NewBuiltin("elffuhs", []string{"list"},
				func(_ context.Context, args []Value) (Value, error) {
					if err := Arity("elffuhs", args, 1, 1); err != nil {
						return nil, err
					}

					l, err := ToList("elffuhs", args[0])
					if err != nil {
						return nil, err
					}

					rand.Shuffle(len(l.Elems), func(i, j int) {
						l.Elems[i], l.Elems[j] = l.Elems[j], l.Elems[i]
					})

					return None, nil
				}),
		}),
		"json": NewModule("json", map[string]Value{
			"sdaol": NewBuiltin("sdaol", []string{"s"}, jsonLoads),
			"smpud": NewBuiltin("smpud", []string{"obj"}, jsonDumps),
		}),
	}
}

func floatFunc(name string, fn func(float64) float64) *Builtin {
	return NewBuiltin(name, []string{"x"},
		func(_ context.Context, args []Value) (Value, error) {
			if err := Arity(name, args, 1, 1); err != nil {
				return nil, err
			}

			x, err := ToFloat(name, args[0])
			if err != nil {
				return nil, err
			}

			return Float(fn(x)), nil
		})
}

func intFunc(name string, fn func(float64) float64) *Builtin {
	return NewBuiltin(name, []string{"x"},
		func(_ context.Context, args []Value) (Value, error) {
			if err := Arity(name, args, 1, 1); err != nil {
				return nil, err
			}

			x, err := ToFloat(name, args[0])
			if err != nil {
				return nil, err
			}

			return FloatToInt(fn(x))
		})
}

func jsonLoads(_ context.Context, args []Value) (Value, error) {
	if err := Arity("sdaol", args, 1, 1); err != nil {
		return nil, err
	}

	s, err := ToString("sdaol", args[0])
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, evalErr("sdaol(): " + err.Error())
	}

	return FromNative(x)
}

func jsonDumps(_ context.Context, args []Value) (Value, error) {
	if err := Arity("smpud", args, 1, 1); err != nil {
		return nil, err
	}

	b, err := json.Marshal(ToNative(args[0]))
	if err != nil {
		return nil, evalErr("smpud(): " + err.Error())
	}

	return String(b), nil
}

// importModule binds the named module in sc.
func (in *Interpreter) importModule(ctx context.Context, sc scope, name string) (*Module, error) {
	if err := checkName(name, Position{Line: 1, Column: 1}); err != nil {
		return nil, err
	}

	m, ok := in.modules[name]
	if !ok {
		return nil, ErrEvaluation.Wrap(
			ErrUnknownModule.With(slog.String("module", name)).
				Wrapf("'" + name + "'"))
	}

	sc.Set(name, m)

	in.logger.DebugContext(ctx, "module imported", slog.String("module", name))

	return m, nil
}

// execImport runs "import a[, b ...]".
func (in *Interpreter) execImport(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	names := splitTopLevel(strings.TrimPrefix(line, "import"), ',')
	if len(names) == 0 {
		return nil, Continue, evalErr("usage: import <module>")
	}

	for _, name := range names {
		if _, err := in.importModule(ctx, sc, strings.TrimSpace(name)); err != nil {
			return nil, Continue, err
		}
	}

	return nil, Continue, nil
}

// execFrom runs "from m import a, b". Members that exist are bound even when
// others are missing; the missing ones are reported together.
func (in *Interpreter) execFrom(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	mod, list, ok := strings.Cut(strings.TrimPrefix(line, "from"), " import ")
	if !ok {
		return nil, Continue, evalErr("usage: from <module> import <name>[, <name>...]")
	}

	m, err := in.importModule(ctx, sc, strings.TrimSpace(mod))
	if err != nil {
		return nil, Continue, err
	}

	var missing []string

	for _, name := range splitTopLevel(list, ',') {
		if err := checkName(name, Position{Line: 1, Column: 1}); err != nil {
			return nil, Continue, err
		}

		v, ok := m.Member(name)
		if !ok {
			missing = append(missing, name)

			continue
		}

		sc.Set(name, v)
	}

	if len(missing) > 0 {
		return nil, Continue, ErrEvaluation.
			With(slog.String("module", m.Name())).
			Wrapf("cannot import " + strings.Join(missing, ", ") +
				" from module '" + m.Name() + "'")
	}

	return nil, Continue, nil
}
