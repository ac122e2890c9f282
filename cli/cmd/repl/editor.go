package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/jvav/lang"
	"github.com/ardnew/jvav/log"
)

const defaultEditor = "vi"

const editTemplate = `# Compose a script. Indented blocks are allowed.
# Save and quit to run it; leave it empty to cancel.
`

// editScriptCommand implements [tea.ExecCommand] for the compose-check-retry
// loop. It opens the user's editor on a temp file holding the previous script
// and syntax-checks the result. On a syntax error the user is asked to
// re-edit; declining cancels the edit.
type editScriptCommand struct {
	ctxFunc func() context.Context
	logger  log.Logger
	initial string
	script  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editScriptCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editScriptCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editScriptCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. The accepted script is left in c.script; it is
// empty when the user cleared the file.
func (c *editScriptCommand) Run() error {
	ctx := c.ctxFunc()

	content := c.initial
	if strings.TrimSpace(content) == "" {
		content = editTemplate
	}

	f, err := os.CreateTemp(os.TempDir(), "jvav-repl-*.jvav")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		content = string(data)

		if !hasCode(content) {
			return nil
		}

		checkErr := checkScript(content)
		c.logger.TraceContext(
			ctx,
			"editor check attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", checkErr == nil),
		)

		if checkErr == nil {
			c.script = content

			return nil
		}

		fmt.Fprintf(c.stderr, "\nSyntax error: %s\n", checkErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}
	}
}

// hasCode reports whether src holds anything but blank and comment lines.
func hasCode(src string) bool {
	for _, line := range lang.Preprocess(src) {
		if lang.Route(line) != "comment" {
			return true
		}
	}

	return false
}

// checkScript parses every statement line of src and returns the first
// syntax error.
func checkScript(src string) error {
	for i, line := range lang.Clauses(lang.Preprocess(src)) {
		if lang.Route(line) != "statement" {
			continue
		}

		if _, err := lang.ParseProgram(strings.TrimSpace(line)); err != nil {
			return fmt.Errorf("logical line %d: %s", i+1, lang.Message(err))
		}
	}

	return nil
}

// runEditor launches the user's editor on the given file path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
