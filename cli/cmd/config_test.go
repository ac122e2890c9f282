package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
)

func runConfig(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()

	var (
		cli struct {
			Level  string   `default:"warn"`
			Pretty bool     `negatable:""`
			Depth  int      `default:"3"`
			Tags   []string `default:"a,b"`
			Secret string   `hidden:""`

			Config Config `cmd:""`
		}
		buf bytes.Buffer
	)

	parser, err := kong.New(&cli, kong.Writers(&buf, &buf), kong.Vars{ConfigIdentifier: path})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"config"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	ktx.BindTo(WithContext(t.Context(), ktx), (*context.Context)(nil))

	err = ktx.Run()

	return buf.String(), err
}

func TestConfigWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := runConfig(t, path, "--level=debug")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}

	if out != path+"\n" {
		t.Errorf("output = %q, want path", out)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "level: debug\npretty: false\ndepth: 3\ntags:\n- a\n- b\n"
	if string(b) != want {
		t.Errorf("config =\n%s\nwant\n%s", b, want)
	}

	if _, err := runConfig(t, path); !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
		t.Errorf("second write error = %v, want ErrWriteConfig wrapping ErrFileExists", err)
	}

	if _, err := runConfig(t, path, "--force", "--level=error"); err != nil {
		t.Fatalf("forced write error = %v", err)
	}

	if b, _ := os.ReadFile(path); !bytes.HasPrefix(b, []byte("level: error\n")) {
		t.Errorf("forced config = %q", b)
	}
}
