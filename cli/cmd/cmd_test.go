package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/jvav/pkg"
)

// commands mirrors the command tree of the root CLI.
type commands struct {
	Run    Run    `cmd:""`
	Fmt    Fmt    `cmd:""`
	Info   Info   `cmd:""`
	Plugin Plugin `cmd:""`
	Init   Init   `cmd:""`
	Build  Build  `cmd:""`
	Verify Verify `cmd:""`
	Config Config `cmd:""`
}

// execute parses args against the command tree and runs the selected
// command, returning its error and everything it printed.
func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var (
		cli commands
		buf bytes.Buffer
	)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Writers(&buf, &buf),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %q", args) }),
		kong.Vars{
			ConfigIdentifier: configPath,
			CacheIdentifier:  t.TempDir(),
			"src":            pkg.SourceExt,
			"pkg":            pkg.PackageExt,
		},
	)
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", args, err)
	}

	ktx.BindTo(WithContext(t.Context(), ktx), (*context.Context)(nil))
	err = ktx.Run()

	return buf.String(), err
}

// writeScript writes content to name in dir and returns its path.
func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestVariable(t *testing.T) {
	if got := variable(context.Background(), ConfigIdentifier); got != "" {
		t.Errorf("variable() without kong context = %q, want empty", got)
	}

	var cli struct{}

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: "/tmp/x.yaml"})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithContext(t.Context(), ktx)
	if got := variable(ctx, ConfigIdentifier); got != "/tmp/x.yaml" {
		t.Errorf("variable() = %q, want /tmp/x.yaml", got)
	}
}

func TestErrorIs(t *testing.T) {
	err := ErrReported.Wrap(ErrNoProject.With())
	if !errors.Is(err, ErrReported) {
		t.Error("wrapped ErrReported does not match its sentinel")
	}

	if errors.Is(ErrPackage.Wrap(os.ErrNotExist), ErrReported) {
		t.Error("ErrPackage matches ErrReported")
	}
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func (b *syncBuffer) Contains(s string) bool { return strings.Contains(b.String(), s) }
