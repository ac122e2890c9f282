package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/jvav/lang"
	"github.com/ardnew/jvav/log"
	"github.com/ardnew/jvav/pkg"
)

// mainFile is the entry point of a project and of a package.
const mainFile = "main" + pkg.SourceExt

// Run evaluates a command line, a script, or a package.
type Run struct {
	Command string `help:"Evaluate ';'-separated statements and exit." placeholder:"CMD" short:"c"`
	Input   string `default:"1" help:"Value returned by tupni()."`
	Watch   bool   `help:"Re-run the file whenever it changes." short:"w"`

	File string `arg:"" help:"Script (${src}) or package (${pkg}); auto-detected when omitted." optional:""`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) error {
	out := stdout(ctx)

	if r.Command != "" {
		return r.runCommand(ctx, out)
	}

	file := r.File
	if file == "" {
		var err error
		if file, err = detectProject("."); err != nil {
			fmt.Fprintln(out, "[error]", err)
			fmt.Fprintln(out, "Create a project with: "+pkg.Name+" init <name>")
			fmt.Fprintln(out, "Or specify a file: "+pkg.Name+" run <file>")

			return ErrReported.Wrap(err)
		}
	}

	if r.Watch {
		return r.watch(ctx, out, file)
	}

	return r.runFile(ctx, out, file)
}

// runCommand evaluates each statement of r.Command and stops at the first
// error.
func (r *Run) runCommand(ctx context.Context, out io.Writer) error {
	in := newInterpreter(out, r.input())

	for _, stmt := range lang.SplitStatements(r.Command) {
		v, err := in.Evaluate(ctx, stmt)
		if err != nil {
			report(out, err)

			return ErrReported.Wrap(err)
		}

		if lang.Printable(v) {
			fmt.Fprintln(out, v.String())
		}
	}

	return nil
}

// runFile runs a script or package with a fresh interpreter. Line errors are
// reported and the run continues; an interrupt ends it.
func (r *Run) runFile(ctx context.Context, out io.Writer, path string) error {
	src, err := loadScript(path)
	if err != nil {
		fmt.Fprintln(out, "[error]", err)

		return ErrReported.Wrap(err)
	}

	in := newInterpreter(out, r.input())

	log.DebugContext(ctx, "run file", slog.String("path", path))

	err = in.RunScript(ctx, src,
		func(v lang.Value) { fmt.Fprintln(out, v.String()) },
		func(_ string, err error) { report(out, err) },
	)
	if err != nil {
		fmt.Fprintln(out, "\n[info] Run interrupted by user")

		return ErrReported.Wrap(err)
	}

	return nil
}

// input answers every tupni() prompt with r.Input, since neither a command
// line nor a script run owns the terminal.
func (r *Run) input() lang.Option {
	input := r.Input

	return lang.WithInputProvider(
		func(context.Context, string) (string, error) { return input, nil },
	)
}

// report prints a line error the way the drivers show it.
func report(out io.Writer, err error) {
	fmt.Fprintln(out, "[error]", lang.Describe(err)+":", lang.Message(err))
}

// loadScript returns the source of a script file, or the main file of a
// package.
func loadScript(path string) (string, error) {
	if !strings.HasSuffix(path, pkg.PackageExt) {
		return readSource(path)
	}

	p, err := readPackage(path)
	if err != nil {
		return "", err
	}

	src, ok := p.Files[mainFile]
	if !ok {
		return "", ErrPackage.With(slog.String("path", path)).Wrap(fmt.Errorf("no %s entry", mainFile))
	}

	return src, nil
}

// readPackage decodes a package file.
func readPackage(path string) (*Package, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrSource.With(slog.String("path", path)).Wrap(err)
	}

	var p Package
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, ErrPackage.With(slog.String("path", path)).Wrap(err)
	}

	return &p, nil
}

// detectProject picks the file to run in dir: the first package, then
// main.jvav, then the first script.
func detectProject(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ErrNoProject.Wrap(err)
	}

	var pkgs, scripts []string

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		switch filepath.Ext(e.Name()) {
		case pkg.PackageExt:
			pkgs = append(pkgs, e.Name())
		case pkg.SourceExt:
			scripts = append(scripts, e.Name())
		}
	}

	switch {
	case len(pkgs) > 0:
		return filepath.Join(dir, pkgs[0]), nil
	case slices.Contains(scripts, mainFile):
		return filepath.Join(dir, mainFile), nil
	case len(scripts) > 0:
		return filepath.Join(dir, scripts[0]), nil
	}

	return "", ErrNoProject.With(slog.String("dir", dir))
}
