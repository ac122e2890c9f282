package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/jvav/lang"
)

// Fmt prints the logical lines of a script, the form the runner executes.
type Fmt struct {
	Lines Lines `cmd:"" default:"withargs" help:"Print one logical line per line (default)."`
	JSON  JSON  `cmd:""                    help:"Print logical lines as JSON."`
	YAML  YAML  `cmd:""                    help:"Print logical lines as YAML."`
}

// Script is the input shared by the fmt subcommands.
type Script struct {
	Check bool `help:"Parse each statement line and fail on syntax errors." short:"k"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Line is one logical line of a script.
type Line struct {
	Number int    `json:"line"  yaml:"line"`
	Route  string `json:"route" yaml:"route"`
	Text   string `json:"text"  yaml:"text"`
}

// load reads the source and joins it into logical lines. Blank and comment
// lines are dropped.
func (s *Script) load() ([]Line, error) {
	src, err := readSource(s.Source)
	if err != nil {
		return nil, err
	}

	var lines []Line

	for _, text := range lang.Clauses(lang.Preprocess(src)) {
		route := lang.Route(text)
		if route == "comment" {
			continue
		}

		lines = append(lines, Line{Number: len(lines) + 1, Route: route, Text: strings.TrimSpace(text)})
	}

	return lines, nil
}

// check parses every statement line and reports the ones that fail.
func (s *Script) check(out io.Writer, lines []Line) error {
	if !s.Check {
		return nil
	}

	var failed int

	for _, l := range lines {
		if l.Route != "statement" {
			continue
		}

		if _, err := lang.ParseProgram(l.Text); err != nil {
			failed++

			fmt.Fprintf(out, "[error] line %d: %s\n", l.Number, lang.Message(err))
		}
	}

	if failed > 0 {
		return ErrReported.With(slog.Int("failed", failed))
	}

	return nil
}

// run loads the source, runs the check and then writes the lines with emit.
func (s *Script) run(ctx context.Context, emit func(io.Writer, []Line) error) error {
	out := stdout(ctx)

	lines, err := s.load()
	if err != nil {
		return err
	}

	if err := s.check(out, lines); err != nil {
		return err
	}

	return emit(out, lines)
}

// Lines prints one logical line per output line.
type Lines struct {
	Script `embed:""`
}

// Run executes the lines command.
func (f *Lines) Run(ctx context.Context) error {
	return f.run(ctx, func(w io.Writer, lines []Line) error {
		for _, l := range lines {
			if _, err := fmt.Fprintln(w, l.Text); err != nil {
				return err
			}
		}

		return nil
	})
}

// JSON prints the logical lines as a JSON array.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Script `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return j.run(ctx, func(w io.Writer, lines []Line) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", strings.Repeat(" ", j.Indent))
		enc.SetEscapeHTML(false)

		if lines == nil {
			lines = []Line{}
		}

		return enc.Encode(lines)
	})
}

// YAML prints the logical lines as a YAML sequence.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Script `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return y.run(ctx, func(w io.Writer, lines []Line) error {
		b, err := yaml.MarshalWithOptions(lines, yaml.Indent(y.Indent), yaml.IndentSequence(true))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = w.Write(b)

		return err
	})
}
