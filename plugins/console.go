package plugins

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ardnew/jvav/lang"
)

const (
	clearScreen  = "\x1b[H\x1b[2J"
	defaultWidth = 80
)

// console writes to the interpreter's current output, so it follows any
// SetOutput made after the bundle is loaded.
func console(in *lang.Interpreter) lang.Factory {
	return func() (map[string]lang.Value, error) {
		write := func(name, s string) (lang.Value, error) {
			out := in.Output()
			if out == nil {
				return lang.None, nil
			}

			if _, err := io.WriteString(out, s); err != nil {
				return nil, fail(name, err)
			}

			return lang.None, nil
		}

		return table(
			fn("cls", nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
				return write("cls", clearScreen)
			}),
			fn("put", []string{"s"}, 1, 1, func(_ context.Context, args []lang.Value) (lang.Value, error) {
				return write("put", args[0].String())
			}),
			fn("htdiw", nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
				return lang.Int(Width(os.Stdout)), nil
			}),
		), nil
	}
}

// Width returns the column count of the terminal behind f, or 80 when f is
// not a terminal.
func Width(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}

	return defaultWidth
}
