package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/jvav/lang"
	"github.com/ardnew/jvav/log"
	"github.com/ardnew/jvav/plugins"
)

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer that receives command output.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// variable returns the kong variable named id, or "" if unset.
func variable(ctx context.Context, id string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[id]
}

// newInterpreter builds an interpreter with the standard plugins installed
// and the yaml module available. Script output goes to w.
func newInterpreter(w io.Writer, opts ...lang.Option) *lang.Interpreter {
	logger := log.With(slog.String("component", "lang"))

	in := lang.New(append([]lang.Option{
		lang.WithOutput(w),
		lang.WithLogger(logger),
		lang.WithModule(plugins.YAMLModule()),
	}, opts...)...)

	plugins.Install(in, plugins.WithLogger(logger.WithGroup("plugins")))

	return in
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// readSource returns the content of path, or of stdin when path is "-".
func readSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)

	if path == stdinSource {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}

	if err != nil {
		return "", ErrSource.With(slog.String("path", path)).Wrap(err)
	}

	return string(b), nil
}
