package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterh/liner"

	"github.com/ardnew/jvav/lang"
	"github.com/ardnew/jvav/log"
)

const continuationPrompt = "....  "

// RunPlain starts the line-editing REPL on in, writing to out. It works
// without a capable terminal and shares the eval history with [Run].
func RunPlain(
	ctx context.Context,
	in *lang.Interpreter,
	cacheDir string,
	logger log.Logger,
	out io.Writer,
) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	history := NewHistory(historyPath(cacheDir))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	for _, h := range history.Lines(modeEval) {
		line.AppendHistory(h)
	}

	in.SetOutput(out)
	in.SetInputProvider(func(_ context.Context, prompt string) (string, error) {
		return line.Prompt(prompt)
	})

	line.SetWordCompleter(func(text string, pos int) (string, []string, string) {
		return completeWord(takeSnapshot(in), text, pos)
	})

	logger.TraceContext(ctx, "plain repl start", slog.Int("history", history.Len()))

	for {
		src, err := readStatement(line)

		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(out, "^C")

			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(out)

			return nil
		case err != nil:
			return err
		}

		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}

		if isQuit(trimmed) {
			return nil
		}

		line.AppendHistory(trimmed)

		if err := history.Add(trimmed, modeEval); err != nil {
			logger.WarnContext(ctx, "could not save history", slog.Any("error", err))
		}

		err = in.RunScript(ctx, src,
			func(v lang.Value) { fmt.Fprintln(out, v.String()) },
			func(_ string, err error) { fmt.Fprintln(out, errorText(err)) },
		)
		if err != nil {
			fmt.Fprintln(out, "[exit]")

			return nil
		}
	}
}

// readStatement reads one line, or a block header ending in ':' followed by
// its indented body up to the first empty line.
func readStatement(line *liner.State) (string, error) {
	first, err := line.Prompt(evalPrompt)
	if err != nil {
		return "", err
	}

	if !opensBlock(first) {
		return first, nil
	}

	lines := []string{first}

	for {
		next, err := line.Prompt(continuationPrompt)
		if err != nil {
			return "", err
		}

		if strings.TrimSpace(next) == "" {
			return strings.Join(lines, "\n"), nil
		}

		lines = append(lines, next)
	}
}

// opensBlock reports whether text is a block header whose body follows on
// the next lines.
func opensBlock(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !strings.HasSuffix(trimmed, ":") {
		return false
	}

	switch lang.Route(trimmed) {
	case "statement", "comment":
		return false
	}

	return true
}

// completeWord splits text at pos around the name being typed and returns
// the snapshot names that start with it.
func completeWord(s snapshot, text string, pos int) (head string, completions []string, tail string) {
	word, start, end := wordBounds(text, pos)
	if word == "" {
		return text[:pos], nil, text[pos:]
	}

	for _, c := range s.candidates(fromModule(text, start)) {
		if strings.HasPrefix(c, word) {
			completions = append(completions, c)
		}
	}

	return text[:start], completions, text[end:]
}
