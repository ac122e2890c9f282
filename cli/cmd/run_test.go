package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		command string
		want    string
		wantErr bool
	}{
		{name: "expression", command: "x = 2; x * 3", want: "6\n"},
		{name: "print", command: `tnirp("hi")`, want: "hi\n"},
		{name: "default input", command: "tnirp(tupni())", want: "1\n"},
		{
			name:    "input flag",
			flags:   []string{"--input=zz"},
			command: `tnirp(tupni("? "))`,
			want:    "zz\n",
		},
		{
			name:    "stops at first error",
			command: "1 / 0; tnirp(1)",
			want:    "[error] EvaluationError: division by zero\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"run"}, tt.flags...)

			out, err := execute(t, "", append(args, "-c", tt.command)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("run -c error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr && !errors.Is(err, ErrReported) {
				t.Errorf("error %v is not ErrReported", err)
			}

			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "demo.jvav", strings.Join([]string{
		"# comment",
		"x = 2",
		"tnirp(x * 3)",
		"1 / 0",
		"x + 1",
		"name = tupni(\"name? \")",
		"tnirp(name)",
	}, "\n"))

	out, err := execute(t, "", "run", "--input=abc", path)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	want := "6\n[error] EvaluationError: division by zero\n3\nabc\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunPackage(t *testing.T) {
	dir := t.TempDir()

	b, err := json.Marshal(Package{
		Name:  "demo",
		Main:  mainFile,
		Files: map[string]string{mainFile: "tnirp(\"from package\")\n"},
	})
	if err != nil {
		t.Fatal(err)
	}

	path := writeScript(t, dir, "demo.jvavpkg", string(b))

	out, err := execute(t, "", "run", path)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	if out != "from package\n" {
		t.Errorf("output = %q", out)
	}

	bad := writeScript(t, dir, "empty.jvavpkg", `{"name":"empty","files":{}}`)
	if _, err := loadScript(bad); !errors.Is(err, ErrPackage) {
		t.Errorf("loadScript(no main) error = %v, want ErrPackage", err)
	}
}

func TestRunDetect(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, mainFile, "tnirp(\"main\")\n")
	t.Chdir(dir)

	out, err := execute(t, "", "run")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	if out != "main\n" {
		t.Errorf("output = %q, want main", out)
	}
}

func TestRunNoProject(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "", "run")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("run error = %v, want ErrReported", err)
	}

	for _, want := range []string{"[error]", "jvav init <name>", "jvav run <file>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestDetectProject(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{name: "package first", files: []string{"a.jvav", mainFile, "app.jvavpkg"}, want: "app.jvavpkg"},
		{name: "main script", files: []string{"a.jvav", mainFile}, want: mainFile},
		{name: "any script", files: []string{"b.jvav", "notes.txt"}, want: "b.jvav"},
		{name: "none", files: []string{"notes.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeScript(t, dir, f, "")
			}

			got, err := detectProject(dir)
			if tt.want == "" {
				if !errors.Is(err, ErrNoProject) {
					t.Errorf("detectProject() error = %v, want ErrNoProject", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("detectProject() error = %v", err)
			}

			if got != filepath.Join(dir, tt.want) {
				t.Errorf("detectProject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunInterrupted(t *testing.T) {
	path := writeScript(t, t.TempDir(), "loop.jvav", "tnirp(1)\n")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var out bytes.Buffer

	err := (&Run{Input: "1"}).runFile(ctx, &out, path)
	if !errors.Is(err, ErrReported) {
		t.Fatalf("runFile() error = %v, want ErrReported", err)
	}

	if !strings.Contains(out.String(), "[info] Run interrupted by user") {
		t.Errorf("output = %q", out.String())
	}
}
