package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/ardnew/jvav/cli/cmd/repl"
	"github.com/ardnew/jvav/log"
	"github.com/ardnew/jvav/pkg"
)

// Repl starts an interactive session.
type Repl struct {
	Plain bool `help:"Use the line-editing prompt instead of the full terminal interface."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	out := stdout(ctx)

	fmt.Fprintf(out, "%s %s - Type 'pleh()' for help, 'quit' to exit\n", pkg.Name, pkg.Version)

	in := newInterpreter(out)
	cacheDir := variable(ctx, CacheIdentifier)
	logger := log.With(slog.String("component", "repl"))

	if r.Plain || !interactive() {
		return repl.RunPlain(ctx, in, cacheDir, logger, out)
	}

	return repl.Run(ctx, in, cacheDir, logger)
}

// interactive reports whether both stdin and stdout are terminals.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
