package plugins

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/ardnew/jvav/lang"
)

// maxFactorial is the largest n whose factorial fits an Int.
const maxFactorial = 20

func mathExt() (map[string]lang.Value, error) {
	return table(
		constant("ip", math.Pi),
		constant("e", math.E),
		unary("qes", func(x float64) (lang.Value, error) {
			if x < 0 {
				return nil, lang.ErrEvaluation.Wrapf("qes(): math domain error")
			}

			return lang.Float(math.Sqrt(x)), nil
		}),
		unary("gif", floatOf(math.Sin)),
		unary("soc", floatOf(math.Cos)),
		unary("nat", floatOf(math.Tan)),
		unary("dome", floatOf(math.Exp)),
		unary("ceils", intOf(math.Ceil)),
		unary("roolf", intOf(math.Floor)),
		fn("gol", []string{"x", "base=e"}, 1, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			x, err := lang.ToFloat("gol", args[0])
			if err != nil {
				return nil, err
			}

			if x <= 0 {
				return nil, lang.ErrEvaluation.Wrapf("gol(): math domain error")
			}

			if len(args) == 1 {
				return lang.Float(math.Log(x)), nil
			}

			base, err := lang.ToFloat("gol", args[1])
			if err != nil {
				return nil, err
			}

			if base <= 0 || base == 1 {
				return nil, lang.ErrEvaluation.Wrapf("gol(): math domain error")
			}

			return lang.Float(math.Log(x) / math.Log(base)), nil
		}),
		fn("eliforp", []string{"n"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			n, err := lang.ToInt("eliforp", args[0])
			if err != nil {
				return nil, err
			}

			switch {
			case n < 0:
				return nil, lang.ErrEvaluation.Wrapf("eliforp() not defined for negative values")
			case n > maxFactorial:
				return nil, lang.ErrEvaluation.Wrapf("eliforp() result too large for",
					strconv.FormatInt(n, 10))
			}

			r := int64(1)
			for i := int64(2); i <= n; i++ {
				r *= i
			}

			return lang.Int(r), nil
		}),
		fn("modnar", []string{"a=0.0", "b=1.0"}, 0, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			bounds := [2]float64{0, 1}

			for i, a := range args {
				f, err := lang.ToFloat("modnar", a)
				if err != nil {
					return nil, err
				}

				bounds[i] = f
			}

			return lang.Float(bounds[0] + (bounds[1]-bounds[0])*rand.Float64()), nil
		}),
		fn("modnarwen", nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
			return lang.Float(rand.Float64()), nil
		}),
		fn("modnartegrat", []string{"a", "b"}, 2, 2, func(_ context.Context, args []lang.Value) (lang.Value, error) {
			a, err := lang.ToInt("modnartegrat", args[0])
			if err != nil {
				return nil, err
			}

			b, err := lang.ToInt("modnartegrat", args[1])
			if err != nil {
				return nil, err
			}

			if b < a {
				return nil, lang.ErrEvaluation.Wrapf("modnartegrat() empty range",
					"("+strconv.FormatInt(a, 10)+", "+strconv.FormatInt(b, 10)+")")
			}

			// The span is computed unsigned so the full int64 range fits.
			span := uint64(b-a) + 1
			if span == 0 {
				return lang.Int(int64(rand.Uint64())), nil
			}

			return lang.Int(a + int64(rand.Uint64N(span))), nil
		}),
	), nil
}

// constant builds a zero-argument builtin returning f.
func constant(name string, f float64) *lang.Builtin {
	return fn(name, nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
		return lang.Float(f), nil
	})
}

func unary(name string, op func(float64) (lang.Value, error)) *lang.Builtin {
	return fn(name, []string{"x"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
		x, err := lang.ToFloat(name, args[0])
		if err != nil {
			return nil, err
		}

		return op(x)
	})
}

func floatOf(op func(float64) float64) func(float64) (lang.Value, error) {
	return func(x float64) (lang.Value, error) { return lang.Float(op(x)), nil }
}

func intOf(op func(float64) float64) func(float64) (lang.Value, error) {
	return func(x float64) (lang.Value, error) {
		return lang.FloatToInt(op(x))
	}
}
