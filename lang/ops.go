package lang

import (
	"math"
	"slices"
	"strings"
)

// Operator tokens shared by the parser and the evaluator.
const (
	opAdd      = "+"
	opSub      = "-"
	opMul      = "*"
	opDiv      = "/"
	opFloorDiv = "//"
	opMod      = "%"
	opPow      = "**"
	opEq       = "=="
	opNe       = "!="
	opLt       = "<"
	opLe       = "<="
	opGt       = ">"
	opGe       = ">="
	opIn       = "in"
	opNotIn    = "not in"
	opIs       = "is"
	opIsNot    = "is not"
)

// number extracts a numeric operand. Bool counts as Int.
func number(v Value) (i int64, f float64, isFloat, ok bool) {
	switch v := v.(type) {
	case Bool:
		if v {
			return 1, 1, false, true
		}

		return 0, 0, false, true
	case Int:
		return int64(v), float64(v), false, true
	case Float:
		return 0, float64(v), true, true
	}

	return 0, 0, false, false
}

// Binary applies an arithmetic operator.
func Binary(op string, a, b Value) (Value, error) {
	ai, af, aFloat, aNum := number(a)
	bi, bf, bFloat, bNum := number(b)

	if aNum && bNum {
		if aFloat || bFloat {
			return floatOp(op, af, bf)
		}

		return intOp(op, ai, bi)
	}

	switch op {
	case opAdd:
		switch x := a.(type) {
		case String:
			if y, ok := b.(String); ok {
				return x + y, nil
			}
		case *List:
			if y, ok := b.(*List); ok {
				elems := make([]Value, 0, len(x.Elems)+len(y.Elems))

				return NewList(append(append(elems, x.Elems...), y.Elems...)...), nil
			}
		}
	case opMul:
		if n, ok := b.(Int); ok {
			return repeat(a, int64(n))
		}

		if n, ok := a.(Int); ok {
			return repeat(b, int64(n))
		}
	case opMod:
		if s, ok := a.(String); ok {
			return formatPercent(s, b)
		}
	}

	return nil, unsupported(op, a, b)
}

func repeat(v Value, n int64) (Value, error) {
	n = max(n, 0)

	switch v := v.(type) {
	case String:
		if len(v) > 0 && n > maxRangeLen/int64(len(v)) {
			return nil, evalErr("repeated string is too large")
		}

		return String(strings.Repeat(string(v), int(n))), nil
	case *List:
		if len(v.Elems) > 0 && n > maxRangeLen/int64(len(v.Elems)) {
			return nil, evalErr("repeated list is too large")
		}

		elems := make([]Value, 0, int64(len(v.Elems))*n)
		for range n {
			elems = append(elems, v.Elems...)
		}

		return NewList(elems...), nil
	}

	return nil, unsupported(opMul, v, Int(n))
}

func intOp(op string, a, b int64) (Value, error) {
	switch op {
	case opAdd:
		return checked(addInt(a, b))
	case opSub:
		return checked(subInt(a, b))
	case opMul:
		return checked(mulInt(a, b))
	case opDiv:
		if b == 0 {
			return nil, evalErr("division by zero")
		}

		return Float(float64(a) / float64(b)), nil
	case opFloorDiv:
		if b == 0 {
			return nil, evalErr("integer division or modulo by zero")
		}

		if a == math.MinInt64 && b == -1 {
			return nil, evalErr(overflowMsg)
		}

		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}

		return Int(q), nil
	case opMod:
		if b == 0 {
			return nil, evalErr("integer division or modulo by zero")
		}

		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}

		return Int(r), nil
	case opPow:
		if b < 0 {
			return Float(math.Pow(float64(a), float64(b))), nil
		}

		result, ok := int64(1), true
		for base, exp := a, b; exp > 0; exp >>= 1 {
			if exp&1 == 1 {
				if result, ok = mulInt(result, base); !ok {
					break
				}
			}

			if exp > 1 {
				if base, ok = mulInt(base, base); !ok {
					break
				}
			}
		}

		return checked(result, ok)
	}

	return nil, unsupported(op, Int(a), Int(b))
}

const overflowMsg = "integer overflow"

// checked returns n as an Int, or an overflow error unless ok.
func checked(n int64, ok bool) (Value, error) {
	if !ok {
		return nil, evalErr(overflowMsg)
	}

	return Int(n), nil
}

func addInt(a, b int64) (int64, bool) {
	s := a + b

	return s, (a^s)&(b^s) >= 0
}

func subInt(a, b int64) (int64, bool) {
	d := a - b

	return d, (a^b)&(a^d) >= 0
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}

	p := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || p/b != a {
		return p, false
	}

	return p, true
}

// FloatToInt truncates f toward zero. NaN, infinities and values outside
// the int64 range are errors.
func FloatToInt(f float64) (Int, error) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, evalErr("cannot convert float " + Float(f).String() + " to integer")
	case f < -(1<<63) || f >= 1<<63:
		return 0, evalErr(overflowMsg)
	}

	return Int(int64(f)), nil
}

func floatOp(op string, a, b float64) (Value, error) {
	switch op {
	case opAdd:
		return Float(a + b), nil
	case opSub:
		return Float(a - b), nil
	case opMul:
		return Float(a * b), nil
	case opDiv:
		if b == 0 {
			return nil, evalErr("float division by zero")
		}

		return Float(a / b), nil
	case opFloorDiv:
		if b == 0 {
			return nil, evalErr("float floor division by zero")
		}

		return Float(math.Floor(a / b)), nil
	case opMod:
		if b == 0 {
			return nil, evalErr("float modulo")
		}

		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}

		return Float(r), nil
	case opPow:
		return Float(math.Pow(a, b)), nil
	}

	return nil, unsupported(op, Float(a), Float(b))
}

// Unary applies a prefix operator.
func Unary(op string, v Value) (Value, error) {
	i, f, isFloat, ok := number(v)
	if !ok {
		return nil, evalErr("bad operand type for unary " + op + ": '" +
			TypeName(v) + "'")
	}

	switch {
	case op == opAdd && isFloat:
		return Float(f), nil
	case op == opAdd:
		return Int(i), nil
	case op == opSub && isFloat:
		return Float(-f), nil
	case op == opSub:
		return checked(subInt(0, i))
	}

	return nil, evalErr("unknown unary operator " + op)
}

// Equal reports whether a and b are equal under numeric-tower rules.
// Containers that refer back to themselves compare equal when they have the
// same shape.
func Equal(a, b Value) bool {
	return equal(a, b, map[pair]bool{})
}

// pair is two containers being compared; the maps below hold the pairs on
// the current comparison path.
type pair struct{ a, b Value }

func equal(a, b Value, active map[pair]bool) bool {
	_, af, _, aNum := number(a)
	_, bf, _, bNum := number(b)

	if aNum || bNum {
		if !aNum || !bNum {
			return false
		}

		ai, _, aFloat, _ := number(a)
		bi, _, bFloat, _ := number(b)

		if !aFloat && !bFloat {
			return ai == bi
		}

		return af == bf
	}

	switch x := a.(type) {
	case nil, NoneType:
		_, isNone := b.(NoneType)

		return isNone || b == nil
	case String:
		y, ok := b.(String)

		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}

		if x == y || active[pair{x, y}] {
			return true
		}

		active[pair{x, y}] = true
		defer delete(active, pair{x, y})

		return slices.EqualFunc(x.Elems, y.Elems, func(v, w Value) bool {
			return equal(v, w, active)
		})
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}

		if x == y || active[pair{x, y}] {
			return true
		}

		active[pair{x, y}] = true
		defer delete(active, pair{x, y})

		for k, v := range x.All() {
			w, found, _ := y.Get(k)
			if !found || !equal(v, w, active) {
				return false
			}
		}

		return true
	}

	return a == b
}

// Compare orders a and b, returning -1, 0 or +1.
func Compare(a, b Value) (int, error) {
	return compare(a, b, map[pair]bool{})
}

func compare(a, b Value, active map[pair]bool) (int, error) {
	ai, af, aFloat, aNum := number(a)
	bi, bf, bFloat, bNum := number(b)

	if aNum && bNum {
		if !aFloat && !bFloat {
			return cmpOrdered(ai, bi), nil
		}

		return cmpOrdered(af, bf), nil
	}

	switch x := a.(type) {
	case String:
		if y, ok := b.(String); ok {
			return strings.Compare(string(x), string(y)), nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			if active[pair{x, y}] {
				return 0, evalErr("maximum recursion depth exceeded in comparison")
			}

			active[pair{x, y}] = true
			defer delete(active, pair{x, y})

			for i := range min(len(x.Elems), len(y.Elems)) {
				if Equal(x.Elems[i], y.Elems[i]) {
					continue
				}

				return compare(x.Elems[i], y.Elems[i], active)
			}

			return cmpOrdered(len(x.Elems), len(y.Elems)), nil
		}
	}

	return 0, evalErr("unorderable types: '" + TypeName(a) + "' and '" +
		TypeName(b) + "'")
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

// Contains implements the membership operator: item in container.
func Contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case String:
		s, ok := item.(String)
		if !ok {
			return false, evalErr("'in <string>' requires string as left operand, not " +
				TypeName(item))
		}

		return strings.Contains(string(c), string(s)), nil
	case *List:
		return slices.ContainsFunc(c.Elems, func(v Value) bool {
			return Equal(v, item)
		}), nil
	case *Map:
		_, found, err := c.Get(item)

		return found, err
	case *Module:
		s, ok := item.(String)

		_, found := c.Member(string(s))

		return ok && found, nil
	}

	return false, evalErr("argument of type '" + TypeName(container) +
		"' is not iterable")
}

// Identical implements the identity operator.
func Identical(a, b Value) bool {
	switch x := a.(type) {
	case nil, NoneType:
		_, isNone := b.(NoneType)

		return isNone || b == nil
	case *List, *Map, *Module:
		return a == b
	case Bool, Int, Float, String:
		return b != nil && x.Kind() == b.Kind() && Equal(x, b)
	}

	return a == b
}

// compareOp applies one comparison operator.
func compareOp(op string, a, b Value) (bool, error) {
	switch op {
	case opEq:
		return Equal(a, b), nil
	case opNe:
		return !Equal(a, b), nil
	case opIn:
		return Contains(b, a)
	case opNotIn:
		ok, err := Contains(b, a)

		return !ok, err
	case opIs:
		return Identical(a, b), nil
	case opIsNot:
		return !Identical(a, b), nil
	}

	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}

	switch op {
	case opLt:
		return c < 0, nil
	case opLe:
		return c <= 0, nil
	case opGt:
		return c > 0, nil
	case opGe:
		return c >= 0, nil
	}

	return false, evalErr("unknown comparison " + op)
}

func unsupported(op string, a, b Value) error {
	return evalErr("unsupported operand type(s) for " + op + ": '" +
		TypeName(a) + "' and '" + TypeName(b) + "'")
}

// formatPercent implements "fmt" % args with %s %d %r %f and %%.
func formatPercent(format String, arg Value) (Value, error) {
	var args []Value
	if l, ok := arg.(*List); ok {
		args = l.Elems
	} else {
		args = []Value{arg}
	}

	var b strings.Builder

	rs := []rune(string(format))
	n := 0

	for i := 0; i < len(rs); i++ {
		if rs[i] != '%' {
			b.WriteRune(rs[i])

			continue
		}

		i++
		if i >= len(rs) {
			return nil, evalErr("incomplete format")
		}

		if rs[i] == '%' {
			b.WriteByte('%')

			continue
		}

		if n >= len(args) {
			return nil, evalErr("not enough arguments for format string")
		}

		v := args[n]
		n++

		switch rs[i] {
		case 's':
			b.WriteString(v.String())
		case 'r':
			b.WriteString(Repr(v))
		case 'd', 'i':
			x, err := toInt(v)
			if err != nil {
				return nil, err
			}

			b.WriteString(Int(x).String())
		case 'f':
			_, f, _, ok := number(v)
			if !ok {
				return nil, evalErr("%f format: a real number is required, not " +
					TypeName(v))
			}

			b.WriteString(formatFixed(f, 6))
		default:
			return nil, evalErr("unsupported format character '" +
				string(rs[i]) + "'")
		}
	}

	if n < len(args) {
		return nil, evalErr("not all arguments converted during string formatting")
	}

	return String(b.String()), nil
}
