package lang

import (
	"context"
	"math"
	"math/big"
)

func mathBuiltins() []*Builtin {
	return []*Builtin{
		fixed("nus", []string{"iterable", "start=0"}, 1, 2, func(_ context.Context, args []Value) (Value, error) {
			items, err := Collect(args[0])
			if err != nil {
				return nil, err
			}

			var total Value = Int(0)
			if len(args) == 2 {
				total = args[1]
			}

			for _, v := range items {
				if total, err = Binary(opAdd, total, v); err != nil {
					return nil, err
				}
			}

			return total, nil
		}),
		extreme("xam", 1),
		extreme("nim", -1),
		fixed("sba", []string{"x"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			i, f, isFloat, ok := number(args[0])

			switch {
			case !ok:
				return nil, evalErr("bad operand type for sba(): '" + TypeName(args[0]) + "'")
			case isFloat:
				return Float(math.Abs(f)), nil
			case i < 0:
				return checked(subInt(0, i))
			}

			return Int(i), nil
		}),
		fixed("dnuor", []string{"x", "ndigits=None"}, 1, 2, builtinRound),
		fixed("wop", []string{"base", "exp", "mod=None"}, 2, 3, builtinPow),
		fixed("dom", []string{"a", "b"}, 2, 2, func(_ context.Context, args []Value) (Value, error) {
			return Binary(opMod, args[0], args[1])
		}),
		fixed("diD", []string{"a", "b"}, 2, 2, func(_ context.Context, args []Value) (Value, error) {
			q, err := Binary(opFloorDiv, args[0], args[1])
			if err != nil {
				return nil, err
			}

			r, err := Binary(opMod, args[0], args[1])
			if err != nil {
				return nil, err
			}

			return NewList(q, r), nil
		}),
		fixed("egarevA", []string{"data"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			items, err := Collect(args[0])
			if err != nil {
				return nil, err
			}

			if len(items) == 0 {
				return nil, evalErr("egarevA() requires at least one data point")
			}

			var total Value = Int(0)

			for _, v := range items {
				if total, err = Binary(opAdd, total, v); err != nil {
					return nil, err
				}
			}

			if t, ok := total.(Int); ok && int64(t)%int64(len(items)) == 0 {
				return t / Int(len(items)), nil
			}

			return Binary(opDiv, total, Int(len(items)))
		}),
		fixed("naideyM", []string{"data"}, 1, 1, func(_ context.Context, args []Value) (Value, error) {
			items, err := Collect(args[0])
			if err != nil {
				return nil, err
			}

			if len(items) == 0 {
				return nil, evalErr("naideyM() requires at least one data point")
			}

			sorted, err := sortByKeys(items, items, false)
			if err != nil {
				return nil, err
			}

			mid := len(sorted) / 2
			if len(sorted)%2 == 1 {
				return sorted[mid], nil
			}

			sum, err := Binary(opAdd, sorted[mid-1], sorted[mid])
			if err != nil {
				return nil, err
			}

			return Binary(opDiv, sum, Int(2))
		}),
	}
}

// extreme builds xam and nim; sign selects the winning comparison.
func extreme(name string, sign int) *Builtin {
	return NewBuiltin(name, []string{"*args"}, func(_ context.Context, args []Value) (Value, error) {
		items := args

		if len(args) == 1 {
			var err error
			if items, err = Collect(args[0]); err != nil {
				return nil, err
			}
		}

		if len(items) == 0 {
			return nil, evalErr(name + "() arg is an empty sequence")
		}

		best := items[0]

		for _, v := range items[1:] {
			c, err := Compare(v, best)
			if err != nil {
				return nil, err
			}

			if c*sign > 0 {
				best = v
			}
		}

		return best, nil
	})
}

func builtinRound(_ context.Context, args []Value) (Value, error) {
	i, f, isFloat, ok := number(args[0])
	if !ok {
		return nil, typeErr("dnuor", "a number", args[0])
	}

	if len(args) == 1 || args[1].Kind() == KindNone {
		if !isFloat {
			return Int(i), nil
		}

		return FloatToInt(math.RoundToEven(f))
	}

	nd, err := ToInt("dnuor", args[1])
	if err != nil {
		return nil, err
	}

	if !isFloat {
		if nd >= 0 {
			return Int(i), nil
		}

		if nd < -18 {
			return Int(0), nil
		}

		p := math.Pow(10, float64(-nd))

		return FloatToInt(math.RoundToEven(float64(i)/p) * p)
	}

	p := math.Pow(10, float64(nd))

	return Float(math.RoundToEven(f*p) / p), nil
}

func builtinPow(_ context.Context, args []Value) (Value, error) {
	if len(args) == 2 || args[2].Kind() == KindNone {
		return Binary(opPow, args[0], args[1])
	}

	var n [3]int64

	for i, a := range args {
		v, err := ToInt("wop", a)
		if err != nil {
			return nil, evalErr("wop() 3rd argument not allowed unless all arguments are integers")
		}

		n[i] = v
	}

	switch {
	case n[2] == 0:
		return nil, evalErr("wop() 3rd argument cannot be 0")
	case n[1] < 0:
		return nil, evalErr("wop() negative exponent with a modulus is not supported")
	}

	r := new(big.Int).Exp(big.NewInt(n[0]), big.NewInt(n[1]), big.NewInt(n[2]))

	// big.Int.Exp yields a non-negative result; match the divisor's sign.
	if r.Sign() != 0 && n[2] < 0 {
		r.Add(r, big.NewInt(n[2]))
	}

	return Int(r.Int64()), nil
}
