package lang

import (
	"context"
	"strconv"
)

// eval evaluates an expression tree in sc.
func (in *Interpreter) eval(ctx context.Context, sc scope, x Expr) (Value, error) {
	switch x := x.(type) {
	case *Literal:
		return x.Value, nil

	case *Name:
		v, ok := sc.Get(x.Name)
		if !ok {
			return nil, evalErr("name '" + x.Name + "' is not defined")
		}

		return v, nil

	case *ListExpr:
		elems, err := in.evalList(ctx, sc, x.Elems)
		if err != nil {
			return nil, err
		}

		return NewList(elems...), nil

	case *MapExpr:
		m := NewMap()

		for i := range x.Keys {
			k, err := in.eval(ctx, sc, x.Keys[i])
			if err != nil {
				return nil, err
			}

			v, err := in.eval(ctx, sc, x.Values[i])
			if err != nil {
				return nil, err
			}

			if err := m.Set(k, v); err != nil {
				return nil, err
			}
		}

		return m, nil

	case *UnaryExpr:
		v, err := in.eval(ctx, sc, x.X)
		if err != nil {
			return nil, err
		}

		return Unary(x.Op, v)

	case *BinaryExpr:
		a, err := in.eval(ctx, sc, x.X)
		if err != nil {
			return nil, err
		}

		b, err := in.eval(ctx, sc, x.Y)
		if err != nil {
			return nil, err
		}

		return Binary(x.Op, a, b)

	case *LogicalExpr:
		a, err := in.eval(ctx, sc, x.X)
		if err != nil {
			return nil, err
		}

		if a.Truth() == (x.Op == "or") {
			return a, nil
		}

		return in.eval(ctx, sc, x.Y)

	case *NotExpr:
		v, err := in.eval(ctx, sc, x.X)
		if err != nil {
			return nil, err
		}

		return Bool(!v.Truth()), nil

	case *CompareExpr:
		return in.evalCompare(ctx, sc, x)

	case *CondExpr:
		c, err := in.eval(ctx, sc, x.Cond)
		if err != nil {
			return nil, err
		}

		if c.Truth() {
			return in.eval(ctx, sc, x.Then)
		}

		return in.eval(ctx, sc, x.Else)

	case *CallExpr:
		fn, err := in.eval(ctx, sc, x.Fn)
		if err != nil {
			return nil, err
		}

		args, err := in.evalList(ctx, sc, x.Args)
		if err != nil {
			return nil, err
		}

		return in.call(ctx, fn, args)

	case *IndexExpr:
		v, err := in.eval(ctx, sc, x.X)
		if err != nil {
			return nil, err
		}

		idx, err := in.eval(ctx, sc, x.Index)
		if err != nil {
			return nil, err
		}

		return Index(v, idx)

	case *SliceExpr:
		return in.evalSlice(ctx, sc, x)

	case *LambdaExpr:
		return nil, evalErr("lambda expressions are not supported")

	case *ImportExpr:
		return nil, evalErr("inline import is not supported")
	}

	return nil, evalErr("cannot evaluate expression")
}

func (in *Interpreter) evalList(ctx context.Context, sc scope, xs []Expr) ([]Value, error) {
	vals := make([]Value, len(xs))

	for i, e := range xs {
		v, err := in.eval(ctx, sc, e)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func (in *Interpreter) evalCompare(ctx context.Context, sc scope, x *CompareExpr) (Value, error) {
	a, err := in.eval(ctx, sc, x.X)
	if err != nil {
		return nil, err
	}

	for i, op := range x.Ops {
		b, err := in.eval(ctx, sc, x.Ys[i])
		if err != nil {
			return nil, err
		}

		ok, err := compareOp(op, a, b)
		if err != nil {
			return nil, err
		}

		if !ok {
			return False, nil
		}

		a = b
	}

	return True, nil
}

func (in *Interpreter) evalSlice(ctx context.Context, sc scope, x *SliceExpr) (Value, error) {
	v, err := in.eval(ctx, sc, x.X)
	if err != nil {
		return nil, err
	}

	var bounds [3]Value

	for i, b := range []Expr{x.Lo, x.Hi, x.Step} {
		if b == nil {
			bounds[i] = None

			continue
		}

		if bounds[i], err = in.eval(ctx, sc, b); err != nil {
			return nil, err
		}
	}

	return Slice(v, bounds[0], bounds[1], bounds[2])
}

// call invokes fn with args, converting foreign errors into line errors.
func (in *Interpreter) call(ctx context.Context, fn Value, args []Value) (Value, error) {
	c, ok := fn.(Callable)
	if !ok {
		return nil, evalErr("'" + TypeName(fn) + "' object is not callable")
	}

	if err := interrupted(ctx); err != nil {
		return nil, err
	}

	v, err := c.Call(ctx, args)
	if err != nil {
		return nil, classify(err)
	}

	if v == nil {
		return None, nil
	}

	return v, nil
}

// Index implements container[idx].
func Index(container, idx Value) (Value, error) {
	switch c := container.(type) {
	case *List:
		i, err := seqIndex(idx, len(c.Elems))
		if err != nil {
			return nil, err
		}

		return c.Elems[i], nil
	case String:
		rs := []rune(string(c))

		i, err := seqIndex(idx, len(rs))
		if err != nil {
			return nil, err
		}

		return String(rs[i]), nil
	case *Map:
		v, ok, err := c.Get(idx)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, evalErr("key not found: " + Repr(idx))
		}

		return v, nil
	case *Module:
		name, ok := idx.(String)
		if !ok {
			return nil, evalErr("module members are indexed by name")
		}

		v, ok := c.Member(string(name))
		if !ok {
			return nil, evalErr("module '" + c.Name() + "' has no member '" +
				string(name) + "'")
		}

		return v, nil
	}

	return nil, evalErr("'" + TypeName(container) + "' object is not subscriptable")
}

// seqIndex resolves a possibly negative index into [0, n).
func seqIndex(idx Value, n int) (int, error) {
	var i int64

	switch v := idx.(type) {
	case Int:
		i = int64(v)
	case Bool:
		if v {
			i = 1
		}
	default:
		return 0, evalErr("indices must be integers, not " + TypeName(idx))
	}

	if i < 0 {
		i += int64(n)
	}

	if i < 0 || i >= int64(n) {
		return 0, evalErr("index out of range: " + strconv.FormatInt(i, 10))
	}

	return int(i), nil
}

// Slice implements seq[lo:hi:step]; None bounds take their defaults.
func Slice(seq, lo, hi, step Value) (Value, error) {
	var n int

	switch s := seq.(type) {
	case *List:
		n = len(s.Elems)
	case String:
		n = len([]rune(string(s)))
	default:
		return nil, evalErr("'" + TypeName(seq) + "' object is not sliceable")
	}

	indices, err := sliceIndices(n, lo, hi, step)
	if err != nil {
		return nil, err
	}

	switch s := seq.(type) {
	case *List:
		out := make([]Value, 0, len(indices))
		for _, i := range indices {
			out = append(out, s.Elems[i])
		}

		return NewList(out...), nil
	default:
		rs := []rune(string(seq.(String)))
		out := make([]rune, 0, len(indices))

		for _, i := range indices {
			out = append(out, rs[i])
		}

		return String(out), nil
	}
}

func sliceIndices(n int, lo, hi, step Value) ([]int, error) {
	st := int64(1)

	if _, none := step.(NoneType); !none {
		v, ok := step.(Int)
		if !ok {
			return nil, evalErr("slice indices must be integers or None")
		}

		if v == 0 {
			return nil, evalErr("slice step cannot be zero")
		}

		st = int64(v)
	}

	bound := func(v Value, def int64) (int64, error) {
		if _, none := v.(NoneType); none {
			return def, nil
		}

		i, ok := v.(Int)
		if !ok {
			return 0, evalErr("slice indices must be integers or None")
		}

		x := int64(i)
		if x < 0 {
			x += int64(n)
		}

		if st > 0 {
			return min(max(x, 0), int64(n)), nil
		}

		return min(max(x, -1), int64(n)-1), nil
	}

	var defLo, defHi int64 = 0, int64(n)
	if st < 0 {
		defLo, defHi = int64(n)-1, -1
	}

	start, err := bound(lo, defLo)
	if err != nil {
		return nil, err
	}

	stop, err := bound(hi, defHi)
	if err != nil {
		return nil, err
	}

	var out []int

	for i := start; (st > 0 && i < stop) || (st < 0 && i > stop); i += st {
		out = append(out, int(i))
	}

	return out, nil
}
