package repl

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/jvav/lang"
)

// outputMsg carries one line of script output.
type outputMsg string

// printMsg carries a rendered line to print above the prompt.
type printMsg string

// inputRequestMsg asks the model to read a line for the input builtin. The
// evaluation goroutine blocks until the reply arrives.
type inputRequestMsg struct {
	prompt string
	reply  chan<- string
}

// evalDoneMsg reports the end of a single-line evaluation.
type evalDoneMsg struct {
	value lang.Value
	err   error
}

// scriptDoneMsg reports the end of an edited script run.
type scriptDoneMsg struct{ err error }

// sender forwards messages from the evaluation goroutine to the program. It
// drops messages sent before the program is attached.
type sender struct {
	p atomic.Pointer[tea.Program]
}

func (s *sender) attach(p *tea.Program) { s.p.Store(p) }

func (s *sender) Send(msg tea.Msg) {
	if p := s.p.Load(); p != nil {
		p.Send(msg)
	}
}

// lineWriter turns interpreter output into one outputMsg per line.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	send func(tea.Msg)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		w.send(outputMsg(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Flush emits a trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.send(outputMsg(w.buf))
		w.buf = nil
	}
}

// session owns the interpreter. Only one evaluation runs at a time; the model
// is busy until the done message arrives, so the environment is never used
// from two goroutines at once.
type session struct {
	in   *lang.Interpreter
	out  *lineWriter
	tx   *sender
	send func(tea.Msg)
}

func newSession(in *lang.Interpreter) *session {
	tx := &sender{}
	s := &session{in: in, tx: tx, send: tx.Send, out: &lineWriter{send: tx.Send}}

	in.SetOutput(s.out)
	in.SetInputProvider(s.readInput)

	return s
}

// readInput asks the model for a line and waits for it.
func (s *session) readInput(ctx context.Context, prompt string) (string, error) {
	s.out.Flush()

	reply := make(chan string, 1)
	s.send(inputRequestMsg{prompt: prompt, reply: reply})

	select {
	case line := <-reply:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// evaluate returns a command that evaluates line off the UI goroutine.
func (s *session) evaluate(ctx context.Context, line string) tea.Cmd {
	return func() tea.Msg {
		v, err := s.in.Evaluate(ctx, line)
		s.out.Flush()

		return evalDoneMsg{value: v, err: err}
	}
}

// runScript returns a command that runs a multi-line script off the UI
// goroutine, printing results and line errors as they occur.
func (s *session) runScript(ctx context.Context, src string) tea.Cmd {
	return func() tea.Msg {
		err := s.in.RunScript(ctx, src,
			func(v lang.Value) {
				s.out.Flush()
				s.send(printMsg(resultStyle.Render(v.String())))
			},
			func(_ string, err error) {
				s.out.Flush()
				s.send(printMsg(errorStyle.Render(errorText(err))))
			},
		)
		s.out.Flush()

		return scriptDoneMsg{err: err}
	}
}

// errorText formats a line error the way every driver prints it.
func errorText(err error) string {
	return "[error] " + lang.Describe(err) + ": " + lang.Message(err)
}
