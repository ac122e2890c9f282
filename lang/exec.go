package lang

import (
	"context"
	"log/slog"
	"strings"
)

// execProgram runs a parsed statement sequence.
func (in *Interpreter) execProgram(
	ctx context.Context,
	sc scope,
	prog *Program,
) (Value, Signal, error) {
	for _, stmt := range prog.Stmts {
		if err := interrupted(ctx); err != nil {
			return nil, Continue, err
		}

		v, sig, err := in.execStmt(ctx, sc, stmt)
		if err != nil || sig != Continue {
			return v, sig, err
		}
	}

	return nil, Continue, nil
}

func (in *Interpreter) execStmt(
	ctx context.Context,
	sc scope,
	stmt Stmt,
) (Value, Signal, error) {
	switch s := stmt.(type) {
	case *ExprStmt:
		_, err := in.eval(ctx, sc, s.X)

		return nil, Continue, err

	case *AssignStmt:
		v, err := in.eval(ctx, sc, s.Value)
		if err != nil {
			return nil, Continue, err
		}

		for _, t := range s.Targets {
			if err := in.assign(ctx, sc, t, v); err != nil {
				return nil, Continue, err
			}
		}

		return nil, Continue, nil

	case *AugAssignStmt:
		return nil, Continue, in.augAssign(ctx, sc, s)

	case *PassStmt:
		return nil, Continue, nil

	case *BreakStmt:
		return nil, Break, nil

	case *ReturnStmt:
		if in.depth == 0 {
			return nil, Continue, evalErr("'return' outside function")
		}

		if s.Value == nil {
			return None, Return, nil
		}

		v, err := in.eval(ctx, sc, s.Value)
		if err != nil {
			return nil, Continue, err
		}

		return v, Return, nil

	case *DelStmt:
		for _, t := range s.Targets {
			if err := in.del(ctx, sc, t); err != nil {
				return nil, Continue, err
			}
		}

		return nil, Continue, nil

	case *ImportStmt, *FromStmt:
		return nil, Continue, rejectImport(s.Pos())

	case *RawStmt:
		return in.dispatch(ctx, sc, s.Text)
	}

	return nil, Continue, evalErr("unsupported statement")
}

// assign binds v to target.
func (in *Interpreter) assign(ctx context.Context, sc scope, target Expr, v Value) error {
	switch t := target.(type) {
	case *Name:
		if err := checkName(t.Name, t.At); err != nil {
			return err
		}

		sc.Set(t.Name, v)

		return nil

	case *IndexExpr:
		container, err := in.eval(ctx, sc, t.X)
		if err != nil {
			return err
		}

		idx, err := in.eval(ctx, sc, t.Index)
		if err != nil {
			return err
		}

		return SetIndex(container, idx, v)

	case *ListExpr:
		items, err := Collect(v)
		if err != nil {
			return err
		}

		if len(items) != len(t.Elems) {
			return evalErr("cannot unpack", Int(len(items)).String(),
				"values into", Int(len(t.Elems)).String(), "targets")
		}

		for i, e := range t.Elems {
			if err := in.assign(ctx, sc, e, items[i]); err != nil {
				return err
			}
		}

		return nil
	}

	return evalErr("cannot assign to expression")
}

// SetIndex implements container[idx] = v.
func SetIndex(container, idx, v Value) error {
	switch c := container.(type) {
	case *List:
		i, err := seqIndex(idx, len(c.Elems))
		if err != nil {
			return err
		}

		c.Elems[i] = v

		return nil
	case *Map:
		return c.Set(idx, v)
	}

	return evalErr("'" + TypeName(container) + "' object does not support item assignment")
}

func (in *Interpreter) augAssign(ctx context.Context, sc scope, s *AugAssignStmt) error {
	cur, err := in.eval(ctx, sc, s.Target)
	if err != nil {
		return err
	}

	rhs, err := in.eval(ctx, sc, s.Value)
	if err != nil {
		return err
	}

	if l, ok := cur.(*List); ok && s.Op == opAdd {
		items, err := Collect(rhs)
		if err != nil {
			return err
		}

		l.Append(items...)

		return nil
	}

	v, err := Binary(s.Op, cur, rhs)
	if err != nil {
		return err
	}

	return in.assign(ctx, sc, s.Target, v)
}

func (in *Interpreter) del(ctx context.Context, sc scope, target Expr) error {
	switch t := target.(type) {
	case *Name:
		if err := checkName(t.Name, t.At); err != nil {
			return err
		}

		if !sc.Delete(t.Name) {
			return evalErr("name '" + t.Name + "' is not defined")
		}

		return nil

	case *IndexExpr:
		container, err := in.eval(ctx, sc, t.X)
		if err != nil {
			return err
		}

		idx, err := in.eval(ctx, sc, t.Index)
		if err != nil {
			return err
		}

		switch c := container.(type) {
		case *List:
			i, err := seqIndex(idx, len(c.Elems))
			if err != nil {
				return err
			}

			c.Elems = append(c.Elems[:i], c.Elems[i+1:]...)

			return nil
		case *Map:
			ok, err := c.Delete(idx)
			if err == nil && !ok {
				err = evalErr("key not found: " + Repr(idx))
			}

			return err
		}

		return evalErr("'" + TypeName(container) + "' object does not support item deletion")
	}

	return evalErr("cannot delete expression")
}

// evalSource parses, validates and evaluates an expression given as text.
func (in *Interpreter) evalSource(
	ctx context.Context,
	sc scope,
	src string,
	mode Mode,
) (Value, error) {
	x, err := ParseExpr(src)
	if err != nil {
		return nil, ErrEvaluation.Wrap(err)
	}

	if err := Validate(x, mode, sc); err != nil {
		return nil, err
	}

	return in.eval(ctx, sc, x)
}

// execFor runs "for VAR in EXPR: BODY".
//
// The loop variable's prior binding is restored after every iteration, or
// removed when it had none.
func (in *Interpreter) execFor(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	header, body, ok := cutTopLevel(line, ": ")
	if !ok {
		return nil, Continue, loopSyntax("for", line)
	}

	words := strings.Fields(header)
	if len(words) != 4 || words[0] != "for" || words[2] != "in" {
		return nil, Continue, loopSyntax("for", line)
	}

	name := words[1]
	if !isIdentifier(name) {
		return nil, Continue, loopSyntax("for", line)
	}

	if err := checkName(name, Position{Line: 1, Column: len("for ") + 1}); err != nil {
		return nil, Continue, err
	}

	iterable, err := in.evalSource(ctx, sc, words[3], ModeExpression)
	if err != nil {
		return nil, Continue, err
	}

	seq, err := Iterate(iterable)
	if err != nil {
		return nil, Continue, err
	}

	for item := range seq {
		if err := interrupted(ctx); err != nil {
			return nil, Continue, err
		}

		prior, present := sc.Get(name)

		sc.Set(name, item)

		v, sig, err := in.dispatch(ctx, sc, body)

		if present {
			sc.Set(name, prior)
		} else {
			sc.Delete(name)
		}

		switch {
		case err != nil:
			return nil, Continue, err
		case sig == Break:
			in.logger.TraceContext(ctx, "loop break", slog.String("loop", "for"))

			return nil, Continue, nil
		case sig == Return:
			return v, Return, nil
		}
	}

	return nil, Continue, nil
}

// execWhile runs "while COND: BODY".
func (in *Interpreter) execWhile(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	header, body, ok := cutTopLevel(line, ": ")
	if !ok {
		return nil, Continue, loopSyntax("while", line)
	}

	cond := strings.TrimSpace(strings.TrimPrefix(header, "while"))
	if cond == "" {
		return nil, Continue, loopSyntax("while", line)
	}

	stmts := Clauses(splitTopLevel(body, ';'))

	for {
		if err := interrupted(ctx); err != nil {
			return nil, Continue, err
		}

		c, err := in.evalSource(ctx, sc, cond, ModeExpression)
		if err != nil {
			return nil, Continue, err
		}

		if !c.Truth() {
			return nil, Continue, nil
		}

		for _, stmt := range stmts {
			v, sig, err := in.dispatch(ctx, sc, stmt)

			switch {
			case err != nil:
				return nil, Continue, err
			case sig == Break:
				in.logger.TraceContext(ctx, "loop break", slog.String("loop", "while"))

				return nil, Continue, nil
			case sig == Return:
				return v, Return, nil
			}
		}
	}
}

func loopSyntax(kind, line string) error {
	return ErrLoopSyntax.
		With(slog.String("loop", kind)).
		Wrapf("expected '" + kind + " " + loopShape[kind] + "', got: " + line)
}

var loopShape = map[string]string{
	"for":   "<name> in <iterable>: <body>",
	"while": "<condition>: <body>",
}

// clause is one arm of an if or try chain.
type clause struct {
	keyword string // if, elif, else, try, except, finally
	head    string // condition, or except filter
	body    []string
}

// parseClauses splits a one-line if or try chain into its arms.
func parseClauses(line string) ([]clause, error) {
	var clauses []clause

	for _, seg := range splitTopLevel(line, ';') {
		kw := ""

		for _, k := range []string{"if", "elif", "else", "try", "except", "finally"} {
			if hasKeyword(seg, k) {
				kw = k

				break
			}
		}

		opens := kw != "" && (len(clauses) == 0) == (kw == "if" || kw == "try")
		if kw == "" || !opens {
			if len(clauses) == 0 {
				return nil, ErrEvaluation.Wrap(ErrSyntax.Wrapf("expected 'if' or 'try'"))
			}

			last := &clauses[len(clauses)-1]
			last.body = append(last.body, seg)

			continue
		}

		head, body, ok := cutTopLevel(seg, ":")
		if !ok {
			return nil, ErrEvaluation.Wrap(ErrSyntax.Wrapf("expected ':' after '" + kw + "'"))
		}

		c := clause{
			keyword: kw,
			head:    strings.TrimSpace(strings.TrimPrefix(head, kw)),
		}

		if body = strings.TrimSpace(body); body != "" {
			c.body = append(c.body, body)
		}

		clauses = append(clauses, c)
	}

	return clauses, nil
}

// execIf runs "if C: A; elif D: B; else: E".
func (in *Interpreter) execIf(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	clauses, err := parseClauses(line)
	if err != nil {
		return nil, Continue, err
	}

	for i, c := range clauses {
		switch {
		case i == 0 && c.keyword != "if",
			i > 0 && c.keyword != "elif" && c.keyword != "else",
			c.keyword == "else" && i != len(clauses)-1:
			return nil, Continue, ErrEvaluation.Wrap(
				ErrSyntax.Wrapf("unexpected '" + c.keyword + "' clause"))
		case c.keyword != "else" && c.head == "":
			return nil, Continue, ErrEvaluation.Wrap(
				ErrSyntax.Wrapf("missing condition after '" + c.keyword + "'"))
		case c.keyword == "else" && c.head != "":
			return nil, Continue, ErrEvaluation.Wrap(
				ErrSyntax.Wrapf("'else' takes no condition"))
		}
	}

	for _, c := range clauses {
		if c.keyword != "else" {
			cond, err := in.evalSource(ctx, sc, c.head, ModeStatement)
			if err != nil {
				return nil, Continue, err
			}

			if !cond.Truth() {
				continue
			}
		}

		return in.execBody(ctx, sc, c.body)
	}

	return nil, Continue, nil
}

// Error kinds that an except clause can name.
var exceptKinds = map[string]*Error{
	"ValidationError": ErrValidation,
	"LoopSyntaxError": ErrLoopSyntax,
	"EvaluationError": ErrEvaluation,
	"Error":           nil,
	"Exception":       nil,
}

// execTry runs "try: A; except [Kind] [as name]: B; finally: C".
// Interrupts are never caught.
func (in *Interpreter) execTry(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	clauses, err := parseClauses(line)
	if err != nil {
		return nil, Continue, err
	}

	var (
		handlers []clause
		final    *clause
	)

	for i := range clauses[1:] {
		c := &clauses[i+1]

		switch {
		case c.keyword == "except" && final == nil:
			handlers = append(handlers, *c)
		case c.keyword == "finally" && final == nil:
			final = c
		default:
			return nil, Continue, ErrEvaluation.Wrap(
				ErrSyntax.Wrapf("unexpected '" + c.keyword + "' clause in try"))
		}
	}

	if len(handlers) == 0 && final == nil {
		return nil, Continue, ErrEvaluation.Wrap(
			ErrSyntax.Wrapf("'try' requires an 'except' or 'finally' clause"))
	}

	v, sig, err := in.execBody(ctx, sc, clauses[0].body)

	if err != nil && !IsInterrupt(err) {
		for _, h := range handlers {
			kind, name, perr := parseExcept(h.head)
			if perr != nil {
				return nil, Continue, perr
			}

			if kind != nil && !errorIs(err, kind) {
				continue
			}

			in.logger.TraceContext(ctx, "exception handled",
				slog.String("kind", Describe(err)),
				slog.Any("error", err))

			if name != "" {
				sc.Set(name, String(Message(err)))
			}

			v, sig, err = in.execBody(ctx, sc, h.body)

			break
		}
	}

	if final != nil {
		fv, fsig, ferr := in.execBody(ctx, sc, final.body)
		if ferr != nil || fsig != Continue {
			return fv, fsig, ferr
		}
	}

	return v, sig, err
}

// parseExcept parses the filter of an except clause: [Kind] [as name].
func parseExcept(head string) (*Error, string, error) {
	var (
		kind *Error
		name string
	)

	words := strings.Fields(head)

	if len(words) >= 2 && words[len(words)-2] == "as" {
		name = words[len(words)-1]
		if !isIdentifier(name) {
			return nil, "", ErrEvaluation.Wrap(ErrSyntax.Wrapf("invalid name after 'as'"))
		}

		if err := checkName(name, Position{Line: 1, Column: 1}); err != nil {
			return nil, "", err
		}

		words = words[:len(words)-2]
	}

	switch len(words) {
	case 0:
	case 1:
		k, ok := exceptKinds[words[0]]
		if !ok {
			return nil, "", evalErr("unknown error kind '" + words[0] + "'")
		}

		kind = k
	default:
		return nil, "", ErrEvaluation.Wrap(ErrSyntax.Wrapf("invalid except clause"))
	}

	return kind, name, nil
}

func errorIs(err error, kind *Error) bool {
	return IsLineError(err) && Describe(err) == Describe(kind)
}

// cutTopLevel slices s around the first occurrence of sep that is outside
// brackets and string literals.
func cutTopLevel(s, sep string) (before, after string, found bool) {
	if i := indexTopLevel(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}

	// A header with an empty body may end with the bare separator.
	if trimmed := strings.TrimRight(sep, " "); trimmed != sep &&
		strings.HasSuffix(strings.TrimSpace(s), trimmed) {
		t := strings.TrimSpace(s)

		if i := indexTopLevel(t, trimmed); i == len(t)-len(trimmed) {
			return t[:i], "", true
		}
	}

	return s, "", false
}

// splitTopLevel splits s at every sep outside brackets and string literals.
// Empty parts are dropped.
func splitTopLevel(s string, sep byte) []string {
	var parts []string

	for {
		i := indexTopLevel(s, string(sep))
		if i < 0 {
			break
		}

		if p := strings.TrimSpace(s[:i]); p != "" {
			parts = append(parts, p)
		}

		s = s[i+1:]
	}

	if p := strings.TrimSpace(s); p != "" {
		parts = append(parts, p)
	}

	return parts
}

// indexTopLevel returns the byte index of the first sep in s at bracket
// depth zero and outside string literals, or -1.
func indexTopLevel(s, sep string) int {
	depth := 0

	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

			continue
		case c == '\'' || c == '"':
			quote = c

			continue
		case c == '(' || c == '[' || c == '{':
			depth++

			continue
		case c == ')' || c == ']' || c == '}':
			depth--

			continue
		}

		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			return i
		}
	}

	return -1
}

func isIdentifier(s string) bool {
	if s == "" || keywords[s] {
		return false
	}

	for i, r := range s {
		if (i == 0 && !isIdentStart(r)) || !isIdentPart(r) {
			return false
		}
	}

	return true
}
