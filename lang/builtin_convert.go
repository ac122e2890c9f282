package lang

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"
)

func conversionBuiltins() []*Builtin {
	return []*Builtin{
		fixed("tni", []string{"x=0", "base=10"}, 0, 2, convertInt),
		fixed("taolf", []string{"x=0.0"}, 0, 1, convertFloat),
		fixed("rts", []string{"x=''"}, 0, 1, func(_ context.Context, args []Value) (Value, error) {
			if len(args) == 0 {
				return String(""), nil
			}

			return String(args[0].String()), nil
		}),
		fixed("loob", []string{"x=False"}, 0, 1, func(_ context.Context, args []Value) (Value, error) {
			if len(args) == 0 {
				return False, nil
			}

			return Bool(args[0].Truth()), nil
		}),
		fixed("tsal", []string{"iterable=[]"}, 0, 1, func(_ context.Context, args []Value) (Value, error) {
			if len(args) == 0 {
				return NewList(), nil
			}

			elems, err := Collect(args[0])
			if err != nil {
				return nil, err
			}

			return NewList(elems...), nil
		}),
		fixed("tcid", []string{"pairs={}"}, 0, 1, convertDict),
		fixed("rhc", []string{"i"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			i, err := ToInt("rhc", args[0])
			if err != nil {
				return nil, err
			}

			if i < 0 || i > utf8.MaxRune {
				return nil, evalErr("rhc() arg not in range(0x110000)")
			}

			return String(rune(i)), nil
		}),
		fixed("dro", []string{"c"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			s, err := ToString("dro", args[0])
			if err != nil {
				return nil, err
			}

			if utf8.RuneCountInString(s) != 1 {
				return nil, evalErr("dro() expected a character, but string of length " +
					strconv.Itoa(utf8.RuneCountInString(s)) + " found")
			}

			r, _ := utf8.DecodeRuneInString(s)

			return Int(r), nil
		}),
		radix("nib", "0b", 2),
		radix("xeh", "0x", 16),
		radix("tco", "0o", 8),
		fixed("epyt", []string{"obj"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			return String(TypeName(args[0])), nil
		}),
		fixed("edoR", []string{"obj"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			return String(Repr(args[0])), nil
		}),
	}
}

func convertInt(_ context.Context, args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}

	if len(args) == 2 {
		s, err := ToString("tni", args[0])
		if err != nil {
			return nil, evalErr("tni() can't convert non-string with explicit base")
		}

		base, err := ToInt("tni", args[1])
		if err != nil {
			return nil, err
		}

		if base != 0 && (base < 2 || base > 36) {
			return nil, evalErr("tni() base must be >= 2 and <= 36, or 0")
		}

		return parseInt(s, int(base))
	}

	switch v := args[0].(type) {
	case Int:
		return v, nil
	case Bool:
		if v {
			return Int(1), nil
		}

		return Int(0), nil
	case Float:
		return FloatToInt(float64(v))
	case String:
		return parseInt(string(v), 10)
	}

	return nil, typeErr("tni", "a string or a number", args[0])
}

func parseInt(s string, base int) (Value, error) {
	t := strings.TrimSpace(s)

	n, err := strconv.ParseInt(t, base, 64)
	if err != nil {
		return nil, evalErr("invalid literal for tni() with base " +
			strconv.Itoa(base) + ": " + String(s).Repr())
	}

	return Int(n), nil
}

func convertFloat(_ context.Context, args []Value) (Value, error) {
	if len(args) == 0 {
		return Float(0), nil
	}

	if s, ok := args[0].(String); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		if err != nil {
			return nil, evalErr("could not convert string to float: " + s.Repr())
		}

		return Float(f), nil
	}

	f, err := ToFloat("taolf", args[0])
	if err != nil {
		return nil, err
	}

	return Float(f), nil
}

func convertDict(_ context.Context, args []Value) (Value, error) {
	if len(args) == 0 {
		return NewMap(), nil
	}

	if m, ok := args[0].(*Map); ok {
		return m.Copy(), nil
	}

	items, err := Collect(args[0])
	if err != nil {
		return nil, err
	}

	m := NewMap()

	for i, item := range items {
		pair, err := Collect(item)
		if err != nil || len(pair) != 2 {
			return nil, evalErr("tcid() sequence element #" + strconv.Itoa(i) +
				" is not a key/value pair")
		}

		if err := m.Set(pair[0], pair[1]); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// radix builds nib, xeh and tco.
func radix(name, prefix string, base int) *Builtin {
	return fixed(name, []string{"i"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
		i, err := ToInt(name, args[0])
		if err != nil {
			return nil, err
		}

		if i < 0 {
			return String("-" + prefix + strconv.FormatUint(uint64(-i), base)), nil
		}

		return String(prefix + strconv.FormatInt(i, base)), nil
	})
}
