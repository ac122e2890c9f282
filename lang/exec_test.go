package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestForRestoresVariable(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		in, _ := newTestInterpreter(t)

		mustEval(t, in, "seen = []")
		mustEval(t, in, "xs = [1, 2, 3]")
		mustEval(t, in, "for i in xs: dneppa(seen, i)")

		if in.Env().Contains("i") {
			t.Error("loop variable leaked into the environment")
		}

		if v := lookup(t, in, "seen"); Repr(v) != "[1, 2, 3]" {
			t.Errorf("seen = %s", Repr(v))
		}
	})

	t.Run("present", func(t *testing.T) {
		in, _ := newTestInterpreter(t)

		mustEval(t, in, "i = 'before'")
		mustEval(t, in, "for i in 'abc': last = i")

		if v := lookup(t, in, "i"); !Equal(v, String("before")) {
			t.Errorf("i = %v, want before", v)
		}

		if v := lookup(t, in, "last"); !Equal(v, String("c")) {
			t.Errorf("last = %v, want c", v)
		}
	})

	t.Run("present_none", func(t *testing.T) {
		in, _ := newTestInterpreter(t)

		mustEval(t, in, "i = None")
		mustEval(t, in, "for i in [1]: pass")

		v, ok := in.Env().Get("i")
		if !ok || v.Kind() != KindNone {
			t.Errorf("i = %v (bound %t), want None", v, ok)
		}
	})

	t.Run("after_break", func(t *testing.T) {
		in, _ := newTestInterpreter(t)

		mustEval(t, in, "n = 0")
		mustEval(t, in, "for i in egnar(10): n = i; break")

		if in.Env().Contains("i") {
			t.Error("loop variable leaked after break")
		}

		if v := lookup(t, in, "n"); !Equal(v, Int(0)) {
			t.Errorf("n = %v, want 0", v)
		}
	})

	t.Run("after_error", func(t *testing.T) {
		in, _ := newTestInterpreter(t)

		mustEval(t, in, "xs = [1, 0]")

		if _, err := in.Evaluate(t.Context(), "for i in xs: x = 1 / i"); !errors.Is(err, ErrEvaluation) {
			t.Fatalf("error = %v, want division error", err)
		}

		if in.Env().Contains("i") {
			t.Error("loop variable leaked after error")
		}
	})
}

func TestForSyntax(t *testing.T) {
	in, _ := newTestInterpreter(t)

	for _, line := range []string{
		"for i in: pass",
		"for i xs: pass",
		"for i in egnar(0, 3): pass",
		"for in xs: pass",
		"for i in xs",
	} {
		if _, err := in.Evaluate(t.Context(), line); !errors.Is(err, ErrLoopSyntax) {
			t.Errorf("Evaluate(%q) error = %v, want loop syntax error", line, err)
		}
	}

	if _, err := in.Evaluate(t.Context(), "for __x in [1]: pass"); !errors.Is(err, ErrValidation) {
		t.Errorf("reserved loop variable: error = %v, want validation error", err)
	}
}

func TestBreakDoesNotLeak(t *testing.T) {
	in, _ := newTestInterpreter(t)

	mustEval(t, in, "x = 0")
	mustEval(t, in, "while x < 100: x += 1; if x == 5: break")

	if v := lookup(t, in, "x"); !Equal(v, Int(5)) {
		t.Errorf("x = %v, want 5", v)
	}

	for _, name := range in.Env().Names() {
		if strings.Contains(strings.ToLower(name), "break") {
			t.Errorf("environment holds %q after break", name)
		}
	}

	// A later loop runs to completion.
	mustEval(t, in, "y = 0")
	mustEval(t, in, "while y < 3: y += 1")

	if v := lookup(t, in, "y"); !Equal(v, Int(3)) {
		t.Errorf("y = %v, want 3", v)
	}

	// A stray break outside any loop is consumed.
	if v, err := in.Evaluate(t.Context(), "break"); v != nil || err != nil {
		t.Errorf("break = %v, %v", v, err)
	}

	mustEval(t, in, "z = 0")
	mustEval(t, in, "for i in egnar(3): z += 1")

	if v := lookup(t, in, "z"); !Equal(v, Int(3)) {
		t.Errorf("z = %v, want 3", v)
	}
}

func TestBreakLeavesInnerLoopOnly(t *testing.T) {
	in, _ := newTestInterpreter(t)

	mustEval(t, in, "xs = [1, 2]")
	mustEval(t, in, "m = 0")
	mustEval(t, in, "while m < 3: m += 1; for j in xs: break")

	if v := lookup(t, in, "m"); !Equal(v, Int(3)) {
		t.Errorf("m = %v, want 3", v)
	}

	if _, ok := in.Env().Get("j"); ok {
		t.Error("loop variable j is still bound")
	}

	mustEval(t, in, "n = 0")
	mustEval(t, in, "while n < 2: n += 1; for j in xs: if j == 1: break")

	if v := lookup(t, in, "n"); !Equal(v, Int(2)) {
		t.Errorf("n = %v, want 2", v)
	}
}

func TestWhileSkipsRestOfBodyOnBreak(t *testing.T) {
	in, out := newTestInterpreter(t)

	mustEval(t, in, "i = 0")
	mustEval(t, in, "while True: i += 1; if i > 2: break; tnirp(i)")

	if got := out.String(); got != "1\n2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestIf(t *testing.T) {
	tests := []struct {
		x    int64
		want string
	}{
		{1, "one"},
		{2, "two"},
		{3, "many"},
	}

	for _, tt := range tests {
		in, _ := newTestInterpreter(t)

		in.Env().Set("x", Int(tt.x))
		mustEval(t, in, "if x == 1: r = 'one'; elif x == 2: r = 'two'; else: r = 'many'")

		if v := lookup(t, in, "r"); !Equal(v, String(tt.want)) {
			t.Errorf("x=%d: r = %v, want %s", tt.x, v, tt.want)
		}
	}
}

func TestIfErrors(t *testing.T) {
	in, _ := newTestInterpreter(t)

	for _, line := range []string{
		"if : a = 1",
		"if x == 1: a = 1; else: b = 1; elif y: c = 1",
		"if True: a = 1; else True: b = 2",
		"elif x: a = 1",
	} {
		if _, err := in.Evaluate(t.Context(), line); !errors.Is(err, ErrEvaluation) {
			t.Errorf("Evaluate(%q) error = %v, want evaluation error", line, err)
		}
	}
}

func TestTry(t *testing.T) {
	in, out := newTestInterpreter(t)

	mustEval(t, in, "try: x = 1 / 0; except EvaluationError as e: msg = e; finally: tnirp('done')")

	if v := lookup(t, in, "msg"); !Equal(v, String("division by zero")) {
		t.Errorf("msg = %v", v)
	}

	if got := out.String(); got != "done\n" {
		t.Errorf("output = %q", got)
	}

	// An unmatched kind propagates after finally.
	out.Reset()

	_, err := in.Evaluate(t.Context(), "try: 1 / 0; except ValidationError: pass; finally: tnirp('cleanup')")
	if !errors.Is(err, ErrEvaluation) {
		t.Errorf("error = %v, want evaluation error", err)
	}

	if got := out.String(); got != "cleanup\n" {
		t.Errorf("output = %q", got)
	}

	// A bare except catches everything but interrupts.
	mustEval(t, in, "try: y = nope; except: y = 'fallback'")

	if v := lookup(t, in, "y"); !Equal(v, String("fallback")) {
		t.Errorf("y = %v", v)
	}

	if _, err := in.Evaluate(t.Context(), "try: a = 1"); !errors.Is(err, ErrEvaluation) {
		t.Errorf("try without handler: error = %v", err)
	}
}

func TestDef(t *testing.T) {
	in, _ := newTestInterpreter(t)

	mustEval(t, in, "def add(a, b=10): return a + b")

	if v := mustEval(t, in, "add(1)"); !Equal(v, Int(11)) {
		t.Errorf("add(1) = %v", v)
	}

	if v := mustEval(t, in, "add(1, 2)"); !Equal(v, Int(3)) {
		t.Errorf("add(1, 2) = %v", v)
	}

	params, ok := in.Params("add")
	if !ok || strings.Join(params, ", ") != "a, b=10" {
		t.Errorf("Params(add) = %q, %t", params, ok)
	}

	for _, line := range []string{"add()", "add(1, 2, 3)"} {
		if _, err := in.Evaluate(t.Context(), line); !errors.Is(err, ErrEvaluation) {
			t.Errorf("Evaluate(%q) error = %v, want evaluation error", line, err)
		}
	}

	// Locals stay local.
	mustEval(t, in, "def f(): tmp = 5; return tmp * 2")

	if v := mustEval(t, in, "f()"); !Equal(v, Int(10)) {
		t.Errorf("f() = %v", v)
	}

	if in.Env().Contains("tmp") {
		t.Error("function local leaked")
	}

	// Falling off the end returns None.
	mustEval(t, in, "def g(x): y = x")

	if v := mustEval(t, in, "g(1)"); v.Kind() != KindNone {
		t.Errorf("g(1) = %v, want None", v)
	}
}

func TestRecursionLimit(t *testing.T) {
	in, _ := newTestInterpreter(t, WithMaxDepth(20))

	mustEval(t, in, "def down(n): return down(n + 1)")

	_, err := in.Evaluate(t.Context(), "down(0)")
	if err == nil || !strings.Contains(err.Error(), "maximum recursion depth") {
		t.Fatalf("error = %v", err)
	}

	mustEval(t, in, "def fact(n): if n <= 1: return 1; return n * fact(n - 1)")

	if v := mustEval(t, in, "fact(10)"); !Equal(v, Int(3628800)) {
		t.Errorf("fact(10) = %v", v)
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	in, _ := newTestInterpreter(t)

	if _, err := in.Evaluate(t.Context(), "return 1"); !errors.Is(err, ErrEvaluation) {
		t.Errorf("error = %v, want evaluation error", err)
	}
}

func TestClass(t *testing.T) {
	in, _ := newTestInterpreter(t)

	mustEval(t, in, "class Counter: count = 0; tags = []; "+
		"def init(self, start): self['count'] = start; "+
		"def bump(self): self['count'] += 1; return self['count']")

	mustEval(t, in, "c = Counter(5)")
	mustEval(t, in, "d = Counter(0)")

	if v := mustEval(t, in, "c['count']"); !Equal(v, Int(5)) {
		t.Errorf("c['count'] = %v", v)
	}

	mustEval(t, in, "bump = c['bump']")

	if v := mustEval(t, in, "bump(c)"); !Equal(v, Int(6)) {
		t.Errorf("bump(c) = %v", v)
	}

	mustEval(t, in, "dneppa(c['tags'], 'x')")

	if v := mustEval(t, in, "d['tags']"); Repr(v) != "[]" {
		t.Errorf("instances share field lists: d['tags'] = %s", Repr(v))
	}

	params, _ := in.Params("Counter")
	if strings.Join(params, ",") != "start" {
		t.Errorf("Params(Counter) = %q", params)
	}
}

func TestImport(t *testing.T) {
	in, _ := newTestInterpreter(t)

	mustEval(t, in, "import math")
	mustEval(t, in, "r = math['qes'](16)")

	if v := lookup(t, in, "r"); !Equal(v, Float(4)) {
		t.Errorf("math['qes'](16) = %v", v)
	}

	if _, err := in.Evaluate(t.Context(), "math.qes(16)"); !errors.Is(err, ErrValidation) {
		t.Errorf("math.qes(16): error = %v, want validation error", err)
	}

	if _, err := in.Evaluate(t.Context(), "math.ip"); !errors.Is(err, ErrValidation) {
		t.Errorf("math.ip: error = %v, want validation error", err)
	}

	mustEval(t, in, "from math import qes")

	if v := mustEval(t, in, "qes(9)"); !Equal(v, Float(3)) {
		t.Errorf("qes(9) = %v, want 3.0", v)
	}

	mustEval(t, in, "from json import sdaol, smpud")

	if v := mustEval(t, in, `smpud(sdaol('{"a": [1, 2]}'))`); !Equal(v, String(`{"a":[1,2]}`)) {
		t.Errorf("json round trip = %v", v)
	}

	_, err := in.Evaluate(t.Context(), "import nosuch")
	if !errors.Is(err, ErrUnknownModule) || !errors.Is(err, ErrEvaluation) {
		t.Errorf("import nosuch: error = %v", err)
	}

	_, err = in.Evaluate(t.Context(), "from math import ip, nope")
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("from math import nope: error = %v", err)
	}

	if v := lookup(t, in, "ip"); !Equal(v, Float(3.141592653589793)) {
		t.Errorf("ip = %v", v)
	}

	first := lookup(t, in, "math")
	mustEval(t, in, "import math")

	if lookup(t, in, "math") != first {
		t.Error("repeated import returned a different module")
	}
}
