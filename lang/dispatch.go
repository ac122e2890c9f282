package lang

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Signal reports how a statement finished.
type Signal uint8

// Statement completion signals.
const (
	Continue Signal = iota // normal completion
	Break                  // leave the innermost loop
	Return                 // leave the current function
)

func (s Signal) String() string {
	switch s {
	case Continue:
		return "continue"
	case Break:
		return "break"
	case Return:
		return "return"
	}

	return "unknown"
}

// routeOf names the dispatcher branch for a trimmed logical line, or returns
// "" when the line is an expression or statement sequence.
func routeOf(line string) string {
	for _, kw := range []string{
		"def ", "class ", "if ", "try:", "import ", "from ",
		"for ", "while ", "plugin ",
	} {
		if strings.HasPrefix(line, kw) {
			return strings.TrimRight(kw, " :")
		}
	}

	switch {
	case line == "break":
		return "break"
	case isClauseContinuation(line):
		return "clause"
	case line == "pass":
		return "pass"
	}

	return ""
}

// Route names the form of a logical line: a block keyword such as "for" or
// "def", "break", "pass", "clause" for a dangling elif/else/except/finally,
// "comment" for blank and comment lines, or "statement".
func Route(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "comment"
	}

	if r := routeOf(line); r != "" {
		return r
	}

	return "statement"
}

// Evaluate evaluates one logical line. The result is nil (Unit) unless the
// line is an expression.
//
// Errors belong to one of the kinds [ErrValidation], [ErrLoopSyntax] or
// [ErrEvaluation], or wrap [ErrInterrupted] when ctx is cancelled.
func (in *Interpreter) Evaluate(ctx context.Context, line string) (Value, error) {
	v, sig, err := in.dispatch(ctx, in.env, line)
	if err != nil {
		in.logger.DebugContext(ctx, "line failed",
			slog.String("line", line),
			slog.Any("error", err))

		return nil, err
	}

	if sig != Continue {
		// A break with no enclosing loop is consumed here.
		in.logger.TraceContext(ctx, "signal discarded",
			slog.String("signal", sig.String()))

		return nil, nil
	}

	return v, nil
}

// dispatch routes one logical line by its leading keyword.
func (in *Interpreter) dispatch(
	ctx context.Context,
	sc scope,
	line string,
) (Value, Signal, error) {
	if err := interrupted(ctx); err != nil {
		return nil, Continue, err
	}

	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, Continue, nil
	}

	r := routeOf(line)
	if r != "" {
		in.logger.TraceContext(ctx, "dispatch",
			slog.String("route", r),
			slog.String("line", line))
	}

	switch r {
	case "def":
		return in.execDef(ctx, sc, line)
	case "class":
		return in.execClass(ctx, sc, line)
	case "if":
		return in.execIf(ctx, sc, line)
	case "try":
		return in.execTry(ctx, sc, line)
	case "import":
		return in.execImport(ctx, sc, line)
	case "from":
		return in.execFrom(ctx, sc, line)
	case "for":
		return in.execFor(ctx, sc, line)
	case "while":
		return in.execWhile(ctx, sc, line)
	case "plugin":
		return in.execPlugin(ctx, line)
	case "break":
		return nil, Break, nil
	case "pass":
		return nil, Continue, nil
	case "clause":
		kw, _, _ := strings.Cut(line, " ")

		return nil, Continue, evalErr("'" + strings.TrimSuffix(kw, ":") +
			"' without a matching 'if' or 'try'")
	}

	if x, err := ParseExpr(line); err == nil {
		in.logger.TraceContext(ctx, "dispatch",
			slog.String("route", "expression"),
			slog.String("line", line))

		if err := Validate(x, ModeExpression, sc); err != nil {
			return nil, Continue, err
		}

		v, err := in.eval(ctx, sc, x)

		return v, Continue, err
	}

	prog, err := ParseProgram(line)
	if err != nil {
		return nil, Continue, ErrEvaluation.Wrap(err)
	}

	in.logger.TraceContext(ctx, "dispatch",
		slog.String("route", "statement"),
		slog.String("line", line),
		slog.Int("statements", len(prog.Stmts)))

	if err := Validate(prog, ModeStatement, sc); err != nil {
		return nil, Continue, err
	}

	return in.execProgram(ctx, sc, prog)
}

// execBody runs each statement through the dispatcher, stopping at the
// first error or non-Continue signal.
func (in *Interpreter) execBody(
	ctx context.Context,
	sc scope,
	stmts []string,
) (Value, Signal, error) {
	for _, stmt := range stmts {
		v, sig, err := in.dispatch(ctx, sc, stmt)
		if err != nil || sig != Continue {
			return v, sig, err
		}
	}

	return nil, Continue, nil
}

// interrupted returns an [ErrInterrupted] if ctx is done.
func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ErrInterrupted.Wrap(err)
	}

	return nil
}

// classify converts an error returned by a callable into a line error.
func classify(err error) error {
	switch {
	case err == nil, IsLineError(err), IsInterrupt(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrInterrupted.Wrap(err)
	}

	return ErrEvaluation.Wrap(err)
}

// Message returns the user-facing text of err without its kind prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.err != nil && e.msg != "" {
		return Message(e.err)
	}

	return err.Error()
}

// Describe names the error kind of err the way scripts spell it in except
// clauses.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrLoopSyntax):
		return "LoopSyntaxError"
	case errors.Is(err, ErrEvaluation):
		return "EvaluationError"
	case errors.Is(err, ErrInterrupted):
		return "Interrupted"
	}

	return "Error"
}
