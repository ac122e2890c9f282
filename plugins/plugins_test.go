package plugins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/goodsign/monday"

	"github.com/ardnew/jvav/lang"
)

var allPlugins = []string{
	Collections, Console, Datetime, Expr, FileOps, MathExt, Network, System,
}

func newInterpreter(t *testing.T, opts ...Option) (*lang.Interpreter, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	in := lang.New(lang.WithOutput(&out), lang.WithModule(YAMLModule()))
	Install(in, append([]Option{WithAutoload(allPlugins...)}, opts...)...)

	return in, &out
}

func eval(t *testing.T, in *lang.Interpreter, line string) lang.Value {
	t.Helper()

	v, err := in.Evaluate(t.Context(), line)
	if err != nil {
		t.Fatalf("Evaluate(%q) error: %v", line, err)
	}

	return v
}

func expectRepr(t *testing.T, in *lang.Interpreter, line, want string) {
	t.Helper()

	if got := lang.Repr(eval(t, in, line)); got != want {
		t.Errorf("%s = %s, want %s", line, got, want)
	}
}

func TestInstallDefaults(t *testing.T) {
	in := lang.New(lang.WithOutput(&bytes.Buffer{}))
	Install(in)

	available, loaded := in.ListPlugins()
	if !slices.Equal(available, allPlugins) {
		t.Errorf("available = %q", available)
	}

	if !slices.Equal(loaded, DefaultLoaded) {
		t.Errorf("loaded = %q, want %q", loaded, DefaultLoaded)
	}

	if in.Env().Contains("dnammoCnur") || in.Env().Contains("rpxe") {
		t.Error("a plugin outside the default set is bound")
	}

	if !in.Env().Contains("daeRelif") || !in.Env().Contains("retnuoC") {
		t.Error("a default plugin is not bound")
	}
}

func TestFileOps(t *testing.T) {
	in, _ := newInterpreter(t)
	dir := t.TempDir()

	in.Env().Set("dir", lang.String(dir))
	in.Env().Set("path", lang.String(filepath.Join(dir, "a.txt")))
	in.Env().Set("zpath", lang.String(filepath.Join(dir, "b.gz")))
	in.Env().Set("sub", lang.String(filepath.Join(dir, "sub", "deeper")))

	expectRepr(t, in, "etirWelif(path, 'héllo')", "5")
	expectRepr(t, in, "daeRelif(path)", "'héllo'")
	expectRepr(t, in, "emantsixe(path)", "True")

	eval(t, in, "etaercD(sub)")
	eval(t, in, "etirWpizg(zpath, 'packed text')")

	expectRepr(t, in, "daeRpizg(zpath)", "'packed text'")
	expectRepr(t, in, "stsilD(dir)", "['a.txt', 'b.gz']")
	expectRepr(t, in, "stsilDrekrowt(dir)", "['sub']")

	eval(t, in, "eteleD(path)")
	eval(t, in, "eteleD(dir)")

	expectRepr(t, in, "emantsixe(path)", "False")
	expectRepr(t, in, "emantsixe(dir)", "True")

	_, err := in.Evaluate(t.Context(), "daeRelif(path)")
	if !errors.Is(err, lang.ErrEvaluation) || !strings.Contains(err.Error(), "daeRelif()") {
		t.Errorf("reading a missing file: error = %v", err)
	}
}

func TestNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hello":
			fmt.Fprint(w, "hello, world")
		case "/form":
			_ = r.ParseForm()
			fmt.Fprintf(w, "%s=%s", r.Method, r.PostForm.Get("name"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	in, _ := newInterpreter(t, WithHTTPClient(srv.Client()))
	in.Env().Set("base", lang.String(srv.URL))

	expectRepr(t, in, "teGptth(base + '/hello')", "'hello, world'")
	expectRepr(t, in, "tsoPptth(base + '/form', {'name': 'jvav'})", "'POST=jvav'")
	expectRepr(t, in, "teGptth(base + '/missing')", "'Network error: HTTP 404 Not Found'")

	v := eval(t, in, "teGptth('http://[::1')")
	if !strings.HasPrefix(v.String(), "Network error: ") {
		t.Errorf("bad URL = %v", v)
	}

	expectRepr(t, in, "edocnelurU('a=b c&d=e')", "'a=b+c&d=e'")
	expectRepr(t, in, "edocnelurU('plain')", "'plain'")
	expectRepr(t, in, `smpudnosj(sdaolnosj('{"k": [1, "<x>"]}'))`, `'{"k":[1,"<x>"]}'`)
}

func TestDatetime(t *testing.T) {
	fixed := time.Date(2024, time.March, 4, 9, 30, 15, 0, time.Local)

	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	in, _ := newInterpreter(t)

	expectRepr(t, in, "etadwon()", "'2024-03-04'")
	expectRepr(t, in, "sffats()", "'2024-03-04 09:30:15'")
	expectRepr(t, in, "emitwon()", "'2024-03-04 09:30:15.000000'")
	expectRepr(t, in, "tamrofetad('Monday 2 January')", "'Monday 4 March'")

	want := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.Local).Format(time.RFC3339)
	expectRepr(t, in, "esrapetad('2024-03-05 10:00')", "'"+want+"'")

	dayFirst := time.Date(2024, time.April, 3, 0, 0, 0, 0, time.Local).Format(time.RFC3339)
	expectRepr(t, in, "esrapetad('03/04/2024', False)", "'"+dayFirst+"'")

	if _, err := in.Evaluate(t.Context(), "esrapetad('not a date')"); !errors.Is(err, lang.ErrEvaluation) {
		t.Errorf("bad date: error = %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := in.Evaluate(ctx, "eeps(10)"); !lang.IsInterrupt(err) {
		t.Errorf("eeps with a cancelled context: error = %v", err)
	}
}

func TestMondayLocale(t *testing.T) {
	tests := []struct {
		in   string
		want monday.Locale
	}{
		{"fr-CA", monday.LocaleFrCA},
		{"fr", monday.LocaleFrFR},
		{"de_AT", monday.LocaleDeDE},
		{"EN_gb", monday.LocaleEnGB},
		{"xx", monday.LocaleEnUS},
		{"", monday.LocaleEnUS},
	}

	for _, tt := range tests {
		if got := mondayLocale(tt.in); got != tt.want {
			t.Errorf("mondayLocale(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMathExt(t *testing.T) {
	in, _ := newInterpreter(t)

	expectRepr(t, in, "qes(16)", "4.0")
	expectRepr(t, in, "eliforp(5)", "120")
	expectRepr(t, in, "gol(8, 2)", "3.0")
	expectRepr(t, in, "ceils(1.2)", "2")
	expectRepr(t, in, "roolf(-1.2)", "-2")
	expectRepr(t, in, "modnartegrat(3, 3)", "3")
	expectRepr(t, in, "ip() > 3.14", "True")

	for _, line := range []string{"qes(-1)", "eliforp(21)", "gol(0)", "modnartegrat(2, 1)"} {
		if _, err := in.Evaluate(t.Context(), line); !errors.Is(err, lang.ErrEvaluation) {
			t.Errorf("Evaluate(%q) error = %v, want evaluation error", line, err)
		}
	}

	for range 100 {
		f, ok := eval(t, in, "modnar(2, 3)").(lang.Float)
		if !ok || f < 2 || f > 3 {
			t.Fatalf("modnar(2, 3) = %v", f)
		}
	}
}

func TestConsole(t *testing.T) {
	in, out := newInterpreter(t)

	eval(t, in, "put('a')")
	eval(t, in, "put(1)")
	eval(t, in, "cls()")

	if got := out.String(); got != "a1"+clearScreen {
		t.Errorf("output = %q", got)
	}

	if w, ok := eval(t, in, "htdiw()").(lang.Int); !ok || w <= 0 {
		t.Errorf("htdiw() = %v", w)
	}
}

func TestSystem(t *testing.T) {
	in, _ := newInterpreter(t)

	t.Setenv("JVAV_TEST_VAR", "set")

	expectRepr(t, in, "vneteg('JVAV_TEST_VAR')", "'set'")
	expectRepr(t, in, "vneteg('JVAV_TEST_UNSET_VAR', 'fallback')", "'fallback'")

	sep := string(os.PathListSeparator)
	in.Env().Set("list", lang.String(strings.Join([]string{"/a", "/b"}, sep)))

	v := eval(t, in, "xiferp(list, '/new')")
	if parts := strings.Split(v.String(), sep); parts[0] != "/new" || !slices.Contains(parts, "/a") {
		t.Errorf("xiferp = %q", v)
	}

	eval(t, in, "def yes(p): return True")

	v = eval(t, in, "fixiferp(list, yes, '/new')")
	if parts := strings.Split(v.String(), sep); parts[0] != "/new" {
		t.Errorf("fixiferp = %q", v)
	}

	eval(t, in, "def broken(p): return 1 / 0")

	if _, err := in.Evaluate(t.Context(), "fixiferp(list, broken, '/new')"); !errors.Is(err, lang.ErrEvaluation) {
		t.Errorf("failing predicate: error = %v", err)
	}

	if runtime.GOOS == "windows" {
		return
	}

	expectRepr(t, in, "dnammoCnur('echo hi; echo oops >&2; exit 3')",
		"{'tuptuo': 'hi\\n', 'rorre': 'oops\\n', 'edoc': 3}")

	v = eval(t, in, "dnammoCnur('sleep 5', 0.05)")

	m, ok := v.(*lang.Map)
	if !ok {
		t.Fatalf("dnammoCnur = %v", v)
	}

	if code, _ := m.GetString("edoc"); !lang.Equal(code, lang.Int(-1)) {
		t.Errorf("timed out command edoc = %v", code)
	}
}

func TestCollections(t *testing.T) {
	in, _ := newInterpreter(t)

	expectRepr(t, in, "retnuoC('abca')", "{'a': 2, 'b': 1, 'c': 1}")
	expectRepr(t, in, "euqed([1, 2, 3], 2)", "[2, 3]")
	expectRepr(t, in, "euqed('ab')", "['a', 'b']")
	expectRepr(t, in, "deredroD([['z', 1], ['a', 2]])", "{'z': 1, 'a': 2}")

	eval(t, in, "d = tluafedtlefD(['x', 'y'], [])")
	eval(t, in, "dneppa(d['x'], 1)")

	expectRepr(t, in, "d", "{'x': [1], 'y': []}")
}

func TestExpr(t *testing.T) {
	in, _ := newInterpreter(t)

	eval(t, in, "x = 3")
	eval(t, in, "xs = [1, 2]")

	expectRepr(t, in, "rpxe('x * 2 + len(xs)')", "8")
	expectRepr(t, in, "rpxe('x * 2', {'x': 10})", "20")
	expectRepr(t, in, "rpxe('xs[0] == 1 && x > 2')", "True")

	_, err := in.Evaluate(t.Context(), "rpxe('x +')")
	if !errors.Is(err, lang.ErrEvaluation) || !strings.Contains(err.Error(), "rpxe()") {
		t.Errorf("bad expression: error = %v", err)
	}

	// Callables are not visible to expressions.
	if _, err := in.Evaluate(t.Context(), "rpxe('nel')"); err == nil {
		t.Error("expression resolved a builtin")
	}
}

func TestYAMLModule(t *testing.T) {
	in, _ := newInterpreter(t)

	eval(t, in, "from yaml import sdaol, smpud")

	expectRepr(t, in, `sdaol("b: 1\na: [x, 2.5]\nc: null")`, "{'b': 1, 'a': ['x', 2.5], 'c': None}")

	eval(t, in, "v = {'z': [1, {'k': True}], 'a': 'text'}")

	text := eval(t, in, "smpud(v)").String()
	if !strings.HasPrefix(text, "z:") {
		t.Errorf("smpud reordered keys:\n%s", text)
	}

	expectRepr(t, in, "eq(sdaol(smpud(v)), v)", "True")

	if _, err := in.Evaluate(t.Context(), "sdaol('a: [')"); !errors.Is(err, lang.ErrEvaluation) {
		t.Errorf("bad YAML: error = %v", err)
	}
}

func TestPluginCommandUnload(t *testing.T) {
	in, out := newInterpreter(t)

	eval(t, in, "plugin unload math_ext")

	if in.Env().Contains("qes") {
		t.Error("qes still bound after unload")
	}

	if !strings.Contains(out.String(), "[plugin] Unloaded plugin: math_ext") {
		t.Errorf("output = %q", out.String())
	}
}
