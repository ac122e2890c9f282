// Package lang implements jvav, a small line-oriented scripting language whose
// builtins are spelled backwards.
//
// An [Interpreter] owns one flat [Env] of names. Source text is first turned
// into logical lines by [Preprocess] and [Clauses]; each logical line is then
// handed to [Interpreter.Evaluate], which routes it by its leading keyword:
//
//	def NAME(PARAMS): BODY             user function
//	class NAME: FIELDS; def ...        constructor returning a dict
//	if C: A; elif D: B; else: E        conditional
//	try: A; except [Kind] [as e]: B    error handling
//	import m[, n]                      bind a module
//	from m import a[, b]               bind module members
//	for VAR in EXPR: BODY              loop over a list, string or dict
//	while COND: BODY                   loop while COND is truthy
//	plugin load|unload NAME            manage plugin bindings
//	plugin list
//	break | pass
//
// Any other line is parsed as a single expression or, failing that, as a
// ';'-separated sequence of simple statements (assignment, augmented
// assignment, del, return).
//
// # Validation
//
// Every expression is checked by [Validate] before it runs. Names starting
// with "__", lambda and attribute access other than on modules are rejected.
// A bare expression line may only call functions that are already bound, so
// a typo is reported as a validation error, with suggestions, before anything
// is evaluated.
//
// # Errors
//
// Line errors wrap one of [ErrValidation], [ErrLoopSyntax] or
// [ErrEvaluation]. Drivers report them and move on to the next line. An
// error wrapping [ErrInterrupted] means the context was cancelled and the
// whole run should stop.
//
// # Example
//
//	in := lang.New(lang.WithOutput(os.Stdout))
//
//	src := `
//	def fib(n):
//	    if n < 2: return n
//	    return fib(n - 1) + fib(n - 2)
//	tnirp(fib(10))
//	`
//
//	err := in.RunScript(ctx, src, nil, func(line string, err error) {
//		fmt.Fprintln(os.Stderr, "[error]", lang.Message(err))
//	})
package lang
