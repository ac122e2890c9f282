package lang

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// Function is a user-defined function created by def.
type Function struct {
	in       *Interpreter
	name     string
	params   []string
	defaults []Value // aligned with params; nil marks a required parameter
	body     []string
}

func (*Function) Kind() Kind { return KindCallable }
func (*Function) Truth() bool { return true }
func (f *Function) Name() string { return f.name }
func (f *Function) String() string { return "<function " + f.name + ">" }

// Params returns the parameter list with default values rendered.
func (f *Function) Params() []string {
	out := make([]string, len(f.params))

	for i, p := range f.params {
		if d := f.defaults[i]; d != nil {
			p += "=" + Repr(d)
		}

		out[i] = p
	}

	return out
}

// Call binds args to the parameters in a fresh frame and runs the body until
// it returns.
func (f *Function) Call(ctx context.Context, args []Value) (Value, error) {
	in := f.in

	if in.depth >= in.maxDepth {
		return nil, evalErr("maximum recursion depth exceeded")
	}

	if len(args) > len(f.params) {
		return nil, evalErr(f.name+"() takes", strconv.Itoa(len(f.params)),
			"positional arguments but", strconv.Itoa(len(args)), "were given")
	}

	fr := newFrame(in.env)

	for i, p := range f.params {
		switch {
		case i < len(args):
			fr.Set(p, args[i])
		case f.defaults[i] != nil:
			fr.Set(p, f.defaults[i])
		default:
			return nil, evalErr(f.name + "() missing required argument: '" + p + "'")
		}
	}

	in.depth++
	defer func() { in.depth-- }()

	in.logger.TraceContext(ctx, "call",
		slog.String("function", f.name),
		slog.Int("depth", in.depth))

	for _, stmt := range f.body {
		v, sig, err := in.dispatch(ctx, fr, stmt)

		switch {
		case err != nil:
			return nil, err
		case sig == Return:
			return v, nil
		case sig == Break:
			return nil, evalErr("'break' outside loop")
		}
	}

	return None, nil
}

// execDef binds "def NAME(PARAMS): BODY" as a [Function].
func (in *Interpreter) execDef(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	f, err := in.parseDef(ctx, sc, line)
	if err != nil {
		return nil, Continue, err
	}

	sc.Set(f.name, f)

	in.logger.DebugContext(ctx, "function defined",
		slog.String("name", f.name),
		slog.Any("params", f.params))

	return nil, Continue, nil
}

func (in *Interpreter) parseDef(ctx context.Context, sc scope, line string) (*Function, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "def"))

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil, defSyntax("expected '(' after function name")
	}

	name := strings.TrimSpace(rest[:open])
	if !isIdentifier(name) {
		return nil, defSyntax("invalid function name " + strconv.Quote(name))
	}

	if err := checkName(name, Position{Line: 1, Column: 5}); err != nil {
		return nil, err
	}

	closing := matchParen(rest, open)
	if closing < 0 {
		return nil, defSyntax("unbalanced parentheses in parameter list")
	}

	params, defaults, err := in.parseParams(ctx, sc, rest[open+1:closing])
	if err != nil {
		return nil, err
	}

	after := strings.TrimSpace(rest[closing+1:])
	if !strings.HasPrefix(after, ":") {
		return nil, defSyntax("expected ':' after parameter list")
	}

	body := Clauses(splitTopLevel(after[1:], ';'))
	for _, stmt := range body {
		if err := validateBodyShape(stmt, sc); err != nil {
			return nil, err
		}
	}

	return &Function{
		in:       in,
		name:     name,
		params:   params,
		defaults: defaults,
		body:     body,
	}, nil
}

// matchParen returns the index of the parenthesis closing s[open], or -1.
func matchParen(s string, open int) int {
	depth := 0

	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// parseParams parses "a, b=expr, c=expr"; defaults are evaluated once, now.
func (in *Interpreter) parseParams(
	ctx context.Context,
	sc scope,
	src string,
) ([]string, []Value, error) {
	var (
		params   []string
		defaults []Value
		seen     = map[string]bool{}
	)

	for _, part := range splitTopLevel(src, ',') {
		name, def, hasDefault := strings.Cut(part, "=")
		name = strings.TrimSpace(name)

		if !isIdentifier(name) {
			return nil, nil, defSyntax("invalid parameter " + strconv.Quote(part))
		}

		if err := checkName(name, Position{Line: 1, Column: 1}); err != nil {
			return nil, nil, err
		}

		if seen[name] {
			return nil, nil, defSyntax("duplicate parameter '" + name + "'")
		}

		seen[name] = true

		var dv Value

		if hasDefault {
			v, err := in.evalSource(ctx, sc, strings.TrimSpace(def), ModeStatement)
			if err != nil {
				return nil, nil, err
			}

			dv = v
		} else if len(defaults) > 0 && defaults[len(defaults)-1] != nil {
			return nil, nil, defSyntax("parameter without a default follows parameter with a default")
		}

		params = append(params, name)
		defaults = append(defaults, dv)
	}

	return params, defaults, nil
}

// validateBodyShape checks one body statement in statement mode without
// executing it. Block statements are checked when they run.
func validateBodyShape(stmt string, sc scope) error {
	if routeOf(stmt) != "" {
		return nil
	}

	if x, err := ParseExpr(stmt); err == nil {
		return Validate(x, ModeStatement, sc)
	}

	prog, err := ParseProgram(stmt)
	if err != nil {
		return ErrEvaluation.Wrap(err)
	}

	return Validate(prog, ModeStatement, sc)
}

func defSyntax(msg string) error {
	return ErrEvaluation.Wrap(ErrSyntax.Wrapf(msg))
}

// Class is a constructor created by a class statement. Calling it returns a
// new Map holding copies of the fields and the methods.
type Class struct {
	name    string
	fields  *Map
	methods *Map
}

func (*Class) Kind() Kind { return KindCallable }
func (*Class) Truth() bool { return true }
func (c *Class) Name() string { return c.name }
func (c *Class) String() string { return "<class " + c.name + ">" }

// Params describes the constructor arguments, taken from init when present.
func (c *Class) Params() []string {
	if v, ok := c.methods.GetString(initMethod); ok {
		if sig, ok := v.(Signature); ok {
			if p := sig.Params(); len(p) > 0 {
				return p[1:]
			}
		}
	}

	return nil
}

// initMethod is called with a new instance and the constructor arguments.
const initMethod = "init"

// Call builds a new instance.
func (c *Class) Call(ctx context.Context, args []Value) (Value, error) {
	inst := NewMap()

	for k, v := range c.fields.All() {
		_ = inst.Set(k, copyValue(v))
	}

	for k, v := range c.methods.All() {
		_ = inst.Set(k, v)
	}

	if m, ok := c.methods.GetString(initMethod); ok {
		fn, ok := m.(Callable)
		if !ok {
			return nil, evalErr(c.name + "." + initMethod + " is not callable")
		}

		if _, err := fn.Call(ctx, append([]Value{inst}, args...)); err != nil {
			return nil, err
		}
	} else if len(args) > 0 {
		return nil, evalErr(c.name + "() takes no arguments")
	}

	return inst, nil
}

// copyValue returns a shallow copy of lists and maps.
func copyValue(v Value) Value {
	switch v := v.(type) {
	case *List:
		return NewList(append([]Value(nil), v.Elems...)...)
	case *Map:
		return v.Copy()
	}

	return v
}

// execClass binds "class NAME: FIELD = EXPR; def METHOD(self): BODY".
//
// Fields precede methods; every statement after a def belongs to that
// method's body until the next def.
func (in *Interpreter) execClass(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	head, body, ok := cutTopLevel(strings.TrimPrefix(line, "class"), ":")
	if !ok {
		return nil, Continue, defSyntax("expected ':' after class name")
	}

	name := strings.TrimSpace(head)
	if !isIdentifier(name) {
		return nil, Continue, defSyntax("invalid class name " + strconv.Quote(name))
	}

	if err := checkName(name, Position{Line: 1, Column: 7}); err != nil {
		return nil, Continue, err
	}

	cls := &Class{name: name, fields: NewMap(), methods: NewMap()}
	fr := newFrame(sc)

	var method []string

	flush := func() error {
		if len(method) == 0 {
			return nil
		}

		f, err := in.parseDef(ctx, fr, strings.Join(method, bodySep))
		if err != nil {
			return err
		}

		cls.methods.SetString(f.name, f)
		f.name = name + "." + f.name
		method = nil

		return nil
	}

	for _, stmt := range Clauses(splitTopLevel(body, ';')) {
		if strings.HasPrefix(stmt, "def ") {
			if err := flush(); err != nil {
				return nil, Continue, err
			}

			method = []string{stmt}

			continue
		}

		if len(method) > 0 {
			method = append(method, stmt)

			continue
		}

		if _, sig, err := in.dispatch(ctx, fr, stmt); err != nil {
			return nil, Continue, err
		} else if sig != Continue {
			return nil, Continue, evalErr("'" + sig.String() + "' outside function")
		}
	}

	if err := flush(); err != nil {
		return nil, Continue, err
	}

	for _, k := range sortedKeys(fr.locals) {
		cls.fields.SetString(k, fr.locals[k])
	}

	sc.Set(name, cls)

	in.logger.DebugContext(ctx, "class defined",
		slog.String("name", name),
		slog.Int("fields", cls.fields.Len()),
		slog.Int("methods", cls.methods.Len()))

	return nil, Continue, nil
}
