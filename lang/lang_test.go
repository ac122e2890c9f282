package lang

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestInterpreter(t *testing.T, opts ...Option) (*Interpreter, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	return New(append([]Option{WithOutput(&out)}, opts...)...), &out
}

func mustEval(t *testing.T, in *Interpreter, line string) Value {
	t.Helper()

	v, err := in.Evaluate(t.Context(), line)
	if err != nil {
		t.Fatalf("Evaluate(%q) error: %v", line, err)
	}

	return v
}

func lookup(t *testing.T, in *Interpreter, name string) Value {
	t.Helper()

	v, ok := in.Env().Get(name)
	if !ok {
		t.Fatalf("%s is not bound", name)
	}

	return v
}

func TestScenarioAssignThenRead(t *testing.T) {
	in, _ := newTestInterpreter(t)

	if v := mustEval(t, in, "x = 1 + 2"); v != nil {
		t.Errorf("assignment returned %v, want no value", v)
	}

	if v := mustEval(t, in, "x"); !Equal(v, Int(3)) || v.Kind() != KindInt {
		t.Errorf("x = %v (%s), want int 3", v, TypeName(v))
	}
}

func TestScenarioUnknownFunction(t *testing.T) {
	in, _ := newTestInterpreter(t)

	_, err := in.Evaluate(t.Context(), "foo(1)")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}

	if !strings.Contains(err.Error(), "foo") {
		t.Errorf("error %q does not mention foo", err)
	}
}

func TestScenarioWhileTerminates(t *testing.T) {
	in, _ := newTestInterpreter(t)

	in.Env().Set("x", Int(0))
	mustEval(t, in, "while x < 3: x = x + 1")

	if v := lookup(t, in, "x"); !Equal(v, Int(3)) {
		t.Errorf("x = %v, want 3", v)
	}
}

func TestScenarioPluginUnload(t *testing.T) {
	in, _ := newTestInterpreter(t)

	in.RegisterPlugin("greet", func() (map[string]Value, error) {
		return map[string]Value{
			"olleh": NewBuiltin("olleh", nil, func(context.Context, []Value) (Value, error) {
				return String("hello"), nil
			}),
			"eybdoog": NewBuiltin("eybdoog", nil, func(context.Context, []Value) (Value, error) {
				return String("goodbye"), nil
			}),
		}, nil
	})

	if !in.LoadPlugin("greet") {
		t.Fatal("LoadPlugin failed")
	}

	if v := mustEval(t, in, "olleh()"); !Equal(v, String("hello")) {
		t.Errorf("olleh() = %v", v)
	}

	if !in.UnloadPlugin("greet") {
		t.Fatal("UnloadPlugin failed")
	}

	for _, name := range []string{"olleh", "eybdoog"} {
		if in.Env().Contains(name) {
			t.Errorf("%s still bound after unload", name)
		}

		if _, err := in.Evaluate(t.Context(), name+"()"); !errors.Is(err, ErrValidation) {
			t.Errorf("%s() error = %v, want validation error", name, err)
		}
	}
}

func TestRunScript(t *testing.T) {
	in, out := newTestInterpreter(t)

	src := `
# totals
total = 0
for i in egnar(5):
    total = total + i

def fib(n):
    if n < 2: return n
    return fib(n - 1) + fib(n - 2)

tnirp(total, fib(10))
undefined_thing(1)
total
`

	var (
		results []Value
		failed  []string
	)

	err := in.RunScript(t.Context(), src,
		func(v Value) { results = append(results, v) },
		func(line string, _ error) { failed = append(failed, line) })
	if err != nil {
		t.Fatalf("RunScript error: %v", err)
	}

	if got := out.String(); got != "10 55\n" {
		t.Errorf("output = %q, want %q", got, "10 55\n")
	}

	if len(failed) != 1 || failed[0] != "undefined_thing(1)" {
		t.Errorf("failed lines = %q", failed)
	}

	if len(results) != 1 || !Equal(results[0], Int(10)) {
		t.Errorf("results = %v, want [10]", results)
	}
}

func TestRunScriptInterrupted(t *testing.T) {
	in, _ := newTestInterpreter(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := in.RunScript(ctx, "x = 1\nx = 2", nil, nil)
	if !IsInterrupt(err) {
		t.Fatalf("error = %v, want interrupt", err)
	}

	if in.Env().Contains("x") {
		t.Error("x bound after interrupted run")
	}
}

func TestInputProvider(t *testing.T) {
	in, _ := newTestInterpreter(t)

	if _, err := in.Evaluate(t.Context(), "tupni()"); !errors.Is(err, ErrEvaluation) {
		t.Fatalf("tupni() without provider: error = %v, want evaluation error", err)
	}

	var prompts []string

	in.SetInputProvider(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)

		return "42\n", nil
	})

	if v := mustEval(t, in, "tni(tupni('n? '))"); !Equal(v, Int(42)) {
		t.Errorf("tni(tupni()) = %v, want 42", v)
	}

	if len(prompts) != 1 || prompts[0] != "n? " {
		t.Errorf("prompts = %q", prompts)
	}
}

func TestDescribe(t *testing.T) {
	in, _ := newTestInterpreter(t)

	tests := []struct {
		line string
		kind string
	}{
		{"foo(1)", "ValidationError"},
		{"for x: y", "LoopSyntaxError"},
		{"1 / 0", "EvaluationError"},
		{"x = (", "EvaluationError"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := in.Evaluate(t.Context(), tt.line)
			if err == nil {
				t.Fatal("expected error")
			}

			if got := Describe(err); got != tt.kind {
				t.Errorf("Describe(%v) = %s, want %s", err, got, tt.kind)
			}

			if !IsLineError(err) {
				t.Errorf("IsLineError(%v) = false", err)
			}
		})
	}
}

func TestNumericLiteralSeparators(t *testing.T) {
	in, _ := newTestInterpreter(t)

	tests := []struct {
		src  string
		want Value
	}{
		{"1_000", Int(1000)},
		{"0x_ff", Int(255)},
		{"0b1_0", Int(2)},
		{"1_0.2_5", Float(10.25)},
		{"1e1_0", Float(1e10)},
	}

	for _, tt := range tests {
		if v := mustEval(t, in, tt.src); !Equal(v, tt.want) || v.Kind() != tt.want.Kind() {
			t.Errorf("%s = %s, want %s", tt.src, Repr(v), Repr(tt.want))
		}
	}

	for _, src := range []string{"1_", "1__0", "1_.5", "1._5", "0xff_", "0x", "x = 2_"} {
		t.Run(src, func(t *testing.T) {
			_, err := in.Evaluate(t.Context(), src)
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("Evaluate(%q) error = %v, want syntax error", src, err)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	in, _ := newTestInterpreter(t)

	_, err := in.Evaluate(t.Context(), "1 / 0")
	if got := Message(err); got != "division by zero" {
		t.Errorf("Message = %q, want %q", got, "division by zero")
	}
}

func TestRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
	}{
		{"", "comment"},
		{"  # note", "comment"},
		{"x = 1", "statement"},
		{"tnirp(x)", "statement"},
		{"for i in egnar(3): tnirp(i)", "for"},
		{"while x < 3: x += 1", "while"},
		{"if x: y = 1", "if"},
		{"try: x = 1", "try"},
		{"def f(a): return a", "def"},
		{"import yaml", "import"},
		{"plugin load network", "plugin"},
		{"break", "break"},
		{"pass", "pass"},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.line, func(t *testing.T) {
			t.Parallel()

			if got := Route(tt.line); got != tt.want {
				t.Errorf("Route(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
