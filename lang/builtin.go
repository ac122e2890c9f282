package lang

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// maxRangeLen bounds the size of sequences built by range and repetition.
const maxRangeLen = 10_000_000

// BuiltinFunc implements a [Builtin].
type BuiltinFunc func(ctx context.Context, args []Value) (Value, error)

// Builtin is a callable implemented in Go.
type Builtin struct {
	name   string
	params []string
	fn     BuiltinFunc
}

// NewBuiltin returns a builtin named name. The params are shown in signature
// hints and are not checked; fn validates its own arguments.
func NewBuiltin(name string, params []string, fn BuiltinFunc) *Builtin {
	return &Builtin{name: name, params: params, fn: fn}
}

func (*Builtin) Kind() Kind { return KindCallable }
func (*Builtin) Truth() bool { return true }
func (b *Builtin) Name() string { return b.name }
func (b *Builtin) String() string { return "<built-in function " + b.name + ">" }
func (b *Builtin) Params() []string { return b.params }

// Call invokes the builtin.
func (b *Builtin) Call(ctx context.Context, args []Value) (Value, error) {
	return b.fn(ctx, args)
}

// Arity checks that len(args) is in [lo, hi]; a negative hi means no upper
// bound.
func Arity(name string, args []Value, lo, hi int) error {
	n := len(args)
	if n >= lo && (hi < 0 || n <= hi) {
		return nil
	}

	qual, bound := "at most", hi

	switch {
	case lo == hi:
		qual, bound = "exactly", lo
	case n < lo:
		qual, bound = "at least", lo
	}

	noun := "arguments"
	if bound == 1 {
		noun = "argument"
	}

	return evalErr(name+"() takes", qual, strconv.Itoa(bound), noun,
		"("+strconv.Itoa(n), "given)")
}

func typeErr(name, want string, got Value) error {
	return evalErr(name + "() expects " + want + ", got '" + TypeName(got) + "'")
}

// ToString returns the Go string held by a String argument.
func ToString(name string, v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", typeErr(name, "a string", v)
	}

	return string(s), nil
}

// ToInt returns the integer held by an Int or Bool argument.
func ToInt(name string, v Value) (int64, error) {
	switch v := v.(type) {
	case Int:
		return int64(v), nil
	case Bool:
		if v {
			return 1, nil
		}

		return 0, nil
	}

	return 0, typeErr(name, "an integer", v)
}

// ToFloat returns the numeric value of an Int, Float or Bool argument.
func ToFloat(name string, v Value) (float64, error) {
	if _, f, _, ok := number(v); ok {
		return f, nil
	}

	return 0, typeErr(name, "a number", v)
}

// ToList returns a List argument.
func ToList(name string, v Value) (*List, error) {
	l, ok := v.(*List)
	if !ok {
		return nil, typeErr(name, "a list", v)
	}

	return l, nil
}

// ToMap returns a dict argument.
func ToMap(name string, v Value) (*Map, error) {
	m, ok := v.(*Map)
	if !ok {
		return nil, typeErr(name, "a dict", v)
	}

	return m, nil
}

// ToCallable returns a callable argument.
func ToCallable(name string, v Value) (Callable, error) {
	c, ok := v.(Callable)
	if !ok {
		return nil, typeErr(name, "a function", v)
	}

	return c, nil
}

// toInt converts an integral operand for %d formatting.
func toInt(v Value) (int64, error) {
	i, f, isFloat, ok := number(v)

	switch {
	case !ok:
		return 0, evalErr("%d format: a number is required, not " + TypeName(v))
	case isFloat:
		n, err := FloatToInt(f)

		return int64(n), err
	}

	return i, nil
}

// formatFixed renders f with prec digits after the decimal point.
func formatFixed(f float64, prec int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	return strconv.FormatFloat(f, 'f', prec, 64)
}

// fixed builds a builtin taking between lo and hi arguments.
func fixed(name string, params []string, lo, hi int, fn BuiltinFunc) *Builtin {
	return NewBuiltin(name, params, func(ctx context.Context, args []Value) (Value, error) {
		if err := Arity(name, args, lo, hi); err != nil {
			return nil, err
		}

		return fn(ctx, args)
	})
}

// strFunc builds a one-argument string builtin.
func strFunc(name string, fn func(string) Value) *Builtin {
	return fixed(name, []string{"s"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
		s, err := ToString(name, args[0])
		if err != nil {
			return nil, err
		}

		return fn(s), nil
	})
}

// helpText is returned by pleh() with no argument.
const helpText = "jvav - a line-oriented scripting language whose builtins " +
	"are spelled backwards; try rid() to list every name in scope"

// catalog returns every builtin installed into a new environment.
func catalog(in *Interpreter) []*Builtin {
	var all []*Builtin

	for _, group := range [][]*Builtin{
		ioBuiltins(in),
		conversionBuiltins(),
		containerBuiltins(in),
		mathBuiltins(),
		stringBuiltins(),
		logicBuiltins(),
		funcBuiltins(in),
		bitBuiltins(),
		encodingBuiltins(),
		miscBuiltins(in),
	} {
		all = append(all, group...)
	}

	return all
}

func ioBuiltins(in *Interpreter) []*Builtin {
	return []*Builtin{
		NewBuiltin("tnirp", []string{"*args"}, func(_ context.Context, args []Value) (Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.String()
			}

			in.writeLine(parts...)

			return None, nil
		}),
		fixed("tupni", []string{"prompt=''"}, 0, 1, func(ctx context.Context, args []Value) (Value, error) {
			prompt := ""
			if len(args) == 1 {
				prompt = args[0].String()
			}

			if in.input == nil {
				return nil, ErrEvaluation.Wrap(ErrNoInput)
			}

			s, err := in.input(ctx, prompt)
			if err != nil {
				return nil, classify(err)
			}

			return String(strings.TrimRight(s, "\r\n")), nil
		}),
	}
}

func miscBuiltins(in *Interpreter) []*Builtin {
	return []*Builtin{
		fixed("egnar", []string{"start", "stop=None", "step=1"}, 1, 3, builtinRange),
		fixed("rid", nil, 0, 0, func(context.Context, []Value) (Value, error) {
			names := in.env.Names()

			out := make([]Value, len(names))
			for i, n := range names {
				out[i] = String(n)
			}

			return NewList(out...), nil
		}),
		fixed("pleh", []string{"obj=None"}, 0, 1, func(_ context.Context, args []Value) (Value, error) {
			if len(args) == 0 || args[0].Kind() == KindNone {
				return String(helpText), nil
			}

			if sig, ok := args[0].(Signature); ok {
				name := args[0].String()
				if c, ok := args[0].(Callable); ok {
					name = c.Name()
				}

				return String(name + "(" + strings.Join(sig.Params(), ", ") + ")"), nil
			}

			return String("Object: " + args[0].String()), nil
		}),
		fixed("elobisca", []string{"obj"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			_, ok := args[0].(Callable)

			return Bool(ok), nil
		}),
		fixed("seY", nil, 0, 0, func(context.Context, []Value) (Value, error) {
			return True, nil
		}),
	}
}

func builtinRange(_ context.Context, args []Value) (Value, error) {
	bounds := make([]int64, len(args))

	for i, a := range args {
		n, err := ToInt("egnar", a)
		if err != nil {
			return nil, err
		}

		bounds[i] = n
	}

	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) > 1 {
		start, stop = bounds[0], bounds[1]
	}

	if len(bounds) > 2 {
		step = bounds[2]
	}

	if step == 0 {
		return nil, evalErr("egnar() arg 3 must not be zero")
	}

	var n int64

	switch {
	case step > 0 && stop > start:
		n = (stop - start + step - 1) / step
	case step < 0 && stop < start:
		n = (start - stop - step - 1) / -step
	}

	if n > maxRangeLen {
		return nil, evalErr("egnar() result has too many items (" +
			strconv.FormatInt(n, 10) + " > " + strconv.Itoa(maxRangeLen) + ")")
	}

	out := make([]Value, n)
	for i := range n {
		out[i] = Int(start + i*step)
	}

	return NewList(out...), nil
}
