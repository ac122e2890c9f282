package repl

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/jvav/lang"
)

func TestLineWriter(t *testing.T) {
	t.Parallel()

	var got []string

	w := &lineWriter{send: func(msg tea.Msg) { got = append(got, string(msg.(outputMsg))) }}

	for _, chunk := range []string{"one\ntw", "o\n", "three"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatal(err)
		}
	}

	if want := []string{"one", "two"}; !slices.Equal(got, want) {
		t.Errorf("lines before flush = %v, want %v", got, want)
	}

	w.Flush()
	w.Flush()

	if want := []string{"one", "two", "three"}; !slices.Equal(got, want) {
		t.Errorf("lines after flush = %v, want %v", got, want)
	}
}

// collect runs cmd and gathers the messages the session sends, plus the
// final message returned by cmd.
func collect(t *testing.T, s *session, cmd tea.Cmd, reply func(inputRequestMsg)) ([]tea.Msg, tea.Msg) {
	t.Helper()

	sent := make(chan tea.Msg, 16)
	s.send = func(msg tea.Msg) { sent <- msg }
	s.out.send = s.send

	var msgs []tea.Msg

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	for {
		select {
		case msg := <-sent:
			if req, ok := msg.(inputRequestMsg); ok {
				reply(req)

				continue
			}

			msgs = append(msgs, msg)
		case final := <-done:
			for len(sent) > 0 {
				msgs = append(msgs, <-sent)
			}

			return msgs, final
		case <-time.After(5 * time.Second):
			t.Fatal("evaluation did not finish")
		}
	}
}

func TestSessionEvaluate(t *testing.T) {
	s := newSession(newTestInterpreter(t))

	msgs, final := collect(t, s, s.evaluate(t.Context(), `tnirp("hi")`), nil)

	if len(msgs) != 1 || msgs[0] != outputMsg("hi") {
		t.Errorf("output = %v, want [hi]", msgs)
	}

	done, ok := final.(evalDoneMsg)
	if !ok {
		t.Fatalf("final message %T, want evalDoneMsg", final)
	}

	if done.err != nil || lang.Printable(done.value) {
		t.Errorf("tnirp result = (%v, %v), want no printable value", done.value, done.err)
	}

	_, final = collect(t, s, s.evaluate(t.Context(), "1 + 2"), nil)

	if done := final.(evalDoneMsg); done.value == nil || done.value.String() != "3" {
		t.Errorf("value = %v, want 3", done.value)
	}
}

func TestSessionInput(t *testing.T) {
	s := newSession(newTestInterpreter(t))

	var prompts []string

	_, final := collect(t, s, s.evaluate(t.Context(), `name = tupni("who? ")`), func(req inputRequestMsg) {
		prompts = append(prompts, req.prompt)
		req.reply <- "bob"
	})

	if done := final.(evalDoneMsg); done.err != nil {
		t.Fatalf("evaluate error: %v", done.err)
	}

	if !slices.Equal(prompts, []string{"who? "}) {
		t.Errorf("prompts = %q", prompts)
	}

	if v, ok := s.in.Env().Get("name"); !ok || v.String() != "bob" {
		t.Errorf("name = %v, want bob", v)
	}
}

func TestSessionRunScript(t *testing.T) {
	s := newSession(newTestInterpreter(t))

	src := "total = 0\nfor i in egnar(3):\n    total += i\ntotal\nnel(5)\n"

	msgs, final := collect(t, s, s.runScript(t.Context(), src), nil)

	if done := final.(scriptDoneMsg); done.err != nil {
		t.Fatalf("script error: %v", done.err)
	}

	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want result and error", msgs)
	}

	if got := string(msgs[0].(printMsg)); !strings.Contains(got, "3") {
		t.Errorf("result line = %q, want 3", got)
	}

	if got := string(msgs[1].(printMsg)); !strings.Contains(got, "[error]") {
		t.Errorf("error line = %q", got)
	}
}

func TestSessionInterrupted(t *testing.T) {
	s := newSession(newTestInterpreter(t))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, final := collect(t, s, s.evaluate(ctx, "x = 1"), nil)

	if done := final.(evalDoneMsg); !lang.IsInterrupt(done.err) {
		t.Errorf("err = %v, want interrupt", done.err)
	}
}

func TestErrorText(t *testing.T) {
	t.Parallel()

	in := newTestInterpreter(t)

	_, err := in.Evaluate(t.Context(), "1 / 0")
	if err == nil {
		t.Fatal("expected error")
	}

	if got, want := errorText(err), "[error] EvaluationError: division by zero"; got != want {
		t.Errorf("errorText = %q, want %q", got, want)
	}

	if !strings.HasPrefix(errorText(errors.New("x")), "[error] ") {
		t.Error("errorText lost prefix")
	}
}
