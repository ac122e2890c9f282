package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/jvav/pkg"
)

func TestInitBuildVerify(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "", "init", "demo")
	if err != nil {
		t.Fatalf("init error = %v\n%s", err, out)
	}

	for _, f := range []string{mainFile, projectConfig, "README.md", distDir} {
		if _, err := os.Stat(filepath.Join("demo", f)); err != nil {
			t.Errorf("init did not create %s: %v", f, err)
		}
	}

	var settings projectSettings

	b, err := os.ReadFile(filepath.Join("demo", projectConfig))
	if err != nil {
		t.Fatal(err)
	}

	if err := yaml.Unmarshal(b, &settings); err != nil {
		t.Fatalf("project.yaml: %v", err)
	}

	if settings.Project.Name != "demo" || settings.Project.Main != mainFile {
		t.Errorf("settings = %+v", settings.Project)
	}

	out, err = execute(t, "", "run", filepath.Join("demo", mainFile))
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}

	for _, want := range []string{"Hello from demo!", "Channel 7: 0.8", "Average: 0.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "", "build", "-C", "demo")
	if err != nil {
		t.Fatalf("build error = %v\n%s", err, out)
	}

	path := filepath.Join("demo", distDir, "demo"+pkg.PackageExt)

	out, err = execute(t, "", "verify", path)
	if err != nil {
		t.Fatalf("verify error = %v\n%s", err, out)
	}

	for _, want := range []string{"verified successfully", "Package: demo v1.0.0", "JVAV Version: " + pkg.Version} {
		if !strings.Contains(out, want) {
			t.Errorf("verify output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "", "run", path)
	if err != nil || !strings.Contains(out, "Hello from demo!") {
		t.Errorf("run package error = %v\n%s", err, out)
	}
}

func TestInitExisting(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := os.Mkdir("taken", 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "init", "taken")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("init error = %v, want ErrReported", err)
	}

	if !strings.Contains(out, "[error] Failed to initialize project") {
		t.Errorf("output = %q", out)
	}
}

func TestBuildPackage(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, mainFile, "tnirp(1)\n")
	writeScript(t, dir, "util.jvav", "def f(x): return x\n")
	writeScript(t, dir, projectConfig, "project:\n  name: app\n")
	writeScript(t, dir, "notes.txt", "ignored")

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	path, sum, err := buildPackage(io.Discard, dir, now)
	if err != nil {
		t.Fatalf("buildPackage() error = %v", err)
	}

	p, got, err := verifyPackage(path)
	if err != nil {
		t.Fatalf("verifyPackage() error = %v", err)
	}

	if got != sum {
		t.Errorf("verify hash = %s, build hash = %s", got, sum)
	}

	if p.Name != filepath.Base(dir) || p.BuildInfo.Timestamp != "2024-05-06T07:08:09Z" {
		t.Errorf("package = %+v", p)
	}

	if len(p.Files) != 3 {
		t.Errorf("files = %v, want main, util and project.yaml", p.Files)
	}

	sig, err := os.ReadFile(path + sigExt)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(string(sig), sigPrefix+sum+"\nSigned-by: ") {
		t.Errorf("signature = %q", sig)
	}
}

func TestBuildNoProject(t *testing.T) {
	if _, _, err := buildPackage(io.Discard, t.TempDir(), time.Now()); !errors.Is(err, ErrNoProject) {
		t.Errorf("buildPackage() error = %v, want ErrNoProject", err)
	}
}

func TestVerifyPackage(t *testing.T) {
	build := func(t *testing.T) string {
		t.Helper()

		dir := t.TempDir()
		writeScript(t, dir, mainFile, "tnirp(1)\n")
		writeScript(t, dir, projectConfig, "")

		path, _, err := buildPackage(io.Discard, dir, time.Now())
		if err != nil {
			t.Fatal(err)
		}

		return path
	}

	tests := []struct {
		name   string
		mangle func(t *testing.T, path string) string
		want   error
	}{
		{
			name: "tampered content",
			mangle: func(t *testing.T, path string) string {
				b, _ := os.ReadFile(path)
				writeScript(t, filepath.Dir(path), filepath.Base(path), strings.Replace(string(b), "tnirp(1)", "tnirp(2)", 1))

				return path
			},
			want: ErrVerify,
		},
		{
			name: "missing signature",
			mangle: func(t *testing.T, path string) string {
				if err := os.Remove(path + sigExt); err != nil {
					t.Fatal(err)
				}

				return path
			},
			want: ErrSignature,
		},
		{
			name: "bad signature header",
			mangle: func(t *testing.T, path string) string {
				writeScript(t, filepath.Dir(path), filepath.Base(path)+sigExt, "MD5:abc\n")

				return path
			},
			want: ErrSignature,
		},
		{
			name: "wrong extension",
			mangle: func(t *testing.T, path string) string {
				return strings.TrimSuffix(path, pkg.PackageExt) + ".zip"
			},
			want: ErrVerify,
		},
		{
			name: "missing field",
			mangle: func(t *testing.T, path string) string {
				doc := `{"name":"x","version":"1","main":"main.jvav","files":{"main.jvav":""},"build_info":{}}`
				writeScript(t, filepath.Dir(path), filepath.Base(path), doc)
				writeScript(t, filepath.Dir(path), filepath.Base(path)+sigExt, sigPrefix+digest([]byte(doc))+"\n")

				return path
			},
			want: ErrPackage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.mangle(t, build(t))

			if _, _, err := verifyPackage(path); !errors.Is(err, tt.want) {
				t.Errorf("verifyPackage() error = %v, want %v", err, tt.want)
			}
		})
	}
}
