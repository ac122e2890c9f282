package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const fmtSource = `# greeting
x = 1
for i in egnar(2):
    tnirp(i)

if x: tnirp("yes")
`

func TestFmtLines(t *testing.T) {
	path := writeScript(t, t.TempDir(), "f.jvav", fmtSource)

	out, err := execute(t, "", "fmt", "lines", path)
	if err != nil {
		t.Fatalf("fmt error = %v", err)
	}

	want := "x = 1\nfor i in egnar(2): tnirp(i)\nif x: tnirp(\"yes\")\n"
	if out != want {
		t.Errorf("fmt lines = %q, want %q", out, want)
	}
}

func TestFmtJSON(t *testing.T) {
	path := writeScript(t, t.TempDir(), "f.jvav", fmtSource)

	out, err := execute(t, "", "fmt", "json", path)
	if err != nil {
		t.Fatalf("fmt json error = %v", err)
	}

	var lines []Line
	if err := json.Unmarshal([]byte(out), &lines); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	routes := make([]string, len(lines))
	for i, l := range lines {
		routes[i] = l.Route
	}

	if got := strings.Join(routes, ","); got != "statement,for,if" {
		t.Errorf("routes = %s, want statement,for,if", got)
	}

	if lines[1].Number != 2 {
		t.Errorf("second line number = %d", lines[1].Number)
	}
}

func TestFmtYAML(t *testing.T) {
	path := writeScript(t, t.TempDir(), "f.jvav", fmtSource)

	out, err := execute(t, "", "fmt", "yaml", path)
	if err != nil {
		t.Fatalf("fmt yaml error = %v", err)
	}

	for _, want := range []string{"- line: 1", "route: for", "text: x = 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestFmtCheck(t *testing.T) {
	path := writeScript(t, t.TempDir(), "bad.jvav", "x = 1\ny = (\n")

	out, err := execute(t, "", "fmt", "lines", "--check", path)
	if !errors.Is(err, ErrReported) {
		t.Fatalf("fmt --check error = %v, want ErrReported", err)
	}

	if !strings.HasPrefix(out, "[error] line 2: ") {
		t.Errorf("output = %q", out)
	}
}

func TestInfo(t *testing.T) {
	out, err := execute(t, "", "info")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out, "jvav ") || !strings.Contains(out, "Features:\n  * ") {
		t.Errorf("info = %q", out)
	}
}

func TestPluginList(t *testing.T) {
	out, err := execute(t, "", "plugin")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Available plugins:", "  * datetime\n", "    network\n", "(* loaded by default)"} {
		if !strings.Contains(out, want) {
			t.Errorf("plugin list missing %q:\n%s", want, out)
		}
	}
}
