package lang

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"math/bits"
	"strconv"
	"strings"
	"unicode/utf8"
)

func logicBuiltins() []*Builtin {
	return []*Builtin{
		fixed("lla", []string{"iterable"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			items, err := Collect(args[0])
			if err != nil {
				return nil, err
			}

			for _, v := range items {
				if !v.Truth() {
					return False, nil
				}
			}

			return True, nil
		}),
		fixed("yna", []string{"iterable"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			items, err := Collect(args[0])
			if err != nil {
				return nil, err
			}

			for _, v := range items {
				if v.Truth() {
					return True, nil
				}
			}

			return False, nil
		}),
		comparison("eq", opEq),
		comparison("en", opNe),
		comparison("tl", opLt),
		comparison("et", opLe),
		comparison("tg", opGt),
		comparison("eg", opGe),
		fixed("ton", []string{"x"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			return Bool(!args[0].Truth()), nil
		}),
	}
}

func comparison(name, op string) *Builtin {
	return fixed(name, []string{"a", "b"}, 2, 2, func(_ context.Context, args []Value) (Value, error) {
		ok, err := compareOp(op, args[0], args[1])
		if err != nil {
			return nil, err
		}

		return Bool(ok), nil
	})
}

func funcBuiltins(in *Interpreter) []*Builtin {
	return []*Builtin{
		fixed("paM", []string{"fn", "*iterables"}, 2, -1, func(ctx context.Context, args []Value) (Value, error) {
			cols := make([][]Value, len(args)-1)
			n := -1

			for i, a := range args[1:] {
				items, err := Collect(a)
				if err != nil {
					return nil, err
				}

				cols[i] = items
				if n < 0 || len(items) < n {
					n = len(items)
				}
			}

			out := make([]Value, n)

			for r := range out {
				row := make([]Value, len(cols))
				for c := range cols {
					row[c] = cols[c][r]
				}

				v, err := in.call(ctx, args[0], row)
				if err != nil {
					return nil, err
				}

				out[r] = v
			}

			return NewList(out...), nil
		}),
		fixed("refilF", []string{"fn", "iterable"}, 2, 2, func(ctx context.Context, args []Value) (Value, error) {
			items, err := Collect(args[1])
			if err != nil {
				return nil, err
			}

			var out []Value

			for _, v := range items {
				keep := v.Truth()

				if args[0].Kind() != KindNone {
					r, err := in.call(ctx, args[0], []Value{v})
					if err != nil {
						return nil, err
					}

					keep = r.Truth()
				}

				if keep {
					out = append(out, v)
				}
			}

			return NewList(out...), nil
		}),
		fixed("ecuder", []string{"fn", "iterable", "initial"}, 2, 3, func(ctx context.Context, args []Value) (Value, error) {
			items, err := Collect(args[1])
			if err != nil {
				return nil, err
			}

			if len(args) == 3 {
				items = append([]Value{args[2]}, items...)
			}

			if len(items) == 0 {
				return nil, evalErr("ecuder() of empty iterable with no initial value")
			}

			acc := items[0]

			for _, v := range items[1:] {
				if acc, err = in.call(ctx, args[0], []Value{acc, v}); err != nil {
					return nil, err
				}
			}

			return acc, nil
		}),
		fixed("ylppa", []string{"fn", "args"}, 2, 2, func(ctx context.Context, args []Value) (Value, error) {
			list, err := Collect(args[1])
			if err != nil {
				return nil, err
			}

			return in.call(ctx, args[0], list)
		}),
	}
}

func bitBuiltins() []*Builtin {
	return []*Builtin{
		intPair("tfel_tfihs", func(x, n int64) (Value, error) {
			if n < 0 {
				return nil, evalErr("negative shift count")
			}

			if x == 0 {
				return Int(0), nil
			}

			if n >= 63 || (x<<n)>>n != x {
				return nil, evalErr(overflowMsg)
			}

			return Int(x << n), nil
		}),
		intPair("thgir_tfihs", func(x, n int64) (Value, error) {
			if n < 0 {
				return nil, evalErr("negative shift count")
			}

			return Int(x >> min(n, 63)), nil
		}),
		intPair("dna_", func(x, y int64) (Value, error) { return Int(x & y), nil }),
		intPair("ro_", func(x, y int64) (Value, error) { return Int(x | y), nil }),
		intPair("xor_", func(x, y int64) (Value, error) { return Int(x ^ y), nil }),
		fixed("tnuoc_stib", []string{"x"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			x, err := ToInt("tnuoc_stib", args[0])
			if err != nil {
				return nil, err
			}

			if x < 0 {
				return Int(bits.OnesCount64(uint64(-x))), nil
			}

			return Int(bits.OnesCount64(uint64(x))), nil
		}),
	}
}

func intPair(name string, fn func(a, b int64) (Value, error)) *Builtin {
	return fixed(name, []string{"x", "y"}, 2, 2, func(_ context.Context, args []Value) (Value, error) {
		a, err := ToInt(name, args[0])
		if err != nil {
			return nil, err
		}

		b, err := ToInt(name, args[1])
		if err != nil {
			return nil, err
		}

		return fn(a, b)
	})
}

func encodingBuiltins() []*Builtin {
	return []*Builtin{
		strFunc("edocne46esab", func(s string) Value {
			return String(base64.StdEncoding.EncodeToString([]byte(s)))
		}),
		decoder("edoced46esab", base64.StdEncoding.DecodeString),
		strFunc("xeh_", func(s string) Value { return String(hex.EncodeToString([]byte(s))) }),
		decoder("morf_xeh", func(s string) ([]byte, error) {
			return hex.DecodeString(strings.TrimSpace(s))
		}),
	}
}

// decoder builds a builtin that decodes its string argument into text.
func decoder(name string, decode func(string) ([]byte, error)) *Builtin {
	return fixed(name, []string{"s"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
		s, err := ToString(name, args[0])
		if err != nil {
			return nil, err
		}

		b, err := decode(s)
		if err != nil {
			return nil, evalErr(name + "(): " + err.Error())
		}

		if !utf8.Valid(b) {
			return nil, evalErr(name + "(): decoded " + strconv.Itoa(len(b)) +
				" bytes are not valid UTF-8")
		}

		return String(b), nil
	})
}
