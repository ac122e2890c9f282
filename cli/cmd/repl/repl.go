package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/jvav/lang"
	"github.com/ardnew/jvav/log"
)

// editScriptMsg is sent when the user saved a script in the editor.
type editScriptMsg struct{ script string }

// editCancelledMsg is sent when the user cleared the editor content or
// declined to re-edit after a syntax error.
type editCancelledMsg struct{}

// editErrorMsg is sent when the edit process encounters an error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "jvav> "
	ctrlPrompt = "   : "
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help      Print this text
  list      List user bindings (list all: every name)
  plugins   List available and loaded plugins
  edit      Compose a multi-line script in $EDITOR and run it
  clear     Clear screen
  quit      Exit REPL

Usage:
  Type a statement or expression to evaluate it
  Single-line blocks work: for i in egnar(3): tnirp(i)
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C to interrupt a running evaluation and leave
  Press Ctrl+C on empty line or Ctrl+D to exit
  quit, exit or q in eval mode also exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	askPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the command echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the control command echo line with prompt and input
// styled.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// isQuit reports whether an eval-mode line asks to leave the session.
func isQuit(line string) bool {
	switch line {
	case "quit", "exit", "q":
		return true
	}

	return false
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	sess         *session
	snap         snapshot
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	evalText     string
	evalCursor   int
	ctrlText     string
	ctrlCursor   int
	lastScript   string

	busy   bool               // an evaluation is running
	cancel context.CancelFunc // cancels the running evaluation
	asking chan<- string      // pending input request, if any
}

// Run starts the terminal REPL on in. History is kept in cacheDir.
func Run(
	ctx context.Context,
	in *lang.Interpreter,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
	)

	history := NewHistory(historyPath(cacheDir))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	sess := newSession(in)
	m := newModel(ctx, sess, history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	sess.tx.attach(p)

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

// historyPath returns the history file in cacheDir, or "" to keep history in
// memory.
func historyPath(cacheDir string) string {
	if cacheDir == "" {
		return ""
	}

	return filepath.Join(cacheDir, baseHistory)
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sess *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		sess:       sess,
		snap:       takeSnapshot(sess.in),
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case outputMsg:
		return m, tea.Println(string(msg))

	case printMsg:
		return m, tea.Println(string(msg))

	case inputRequestMsg:
		m.asking = msg.reply
		m.input.Prompt = askPromptStyle.Render(msg.prompt)
		m.input.SetValue("")
		m.matches = nil

		return m, nil

	case evalDoneMsg:
		return m.finishEval(msg)

	case scriptDoneMsg:
		m = m.idle()

		if lang.IsInterrupt(msg.err) {
			m.quitting = true

			return m, tea.Sequence(tea.Println(hintStyle.Render("[exit]")), tea.Quit)
		}

		return m, tea.Println(hintStyle.Render("script finished"))

	case editScriptMsg:
		m.lastScript = msg.script
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("script_length", len(msg.script)),
		)

		return m.startEval(func(ctx context.Context) tea.Cmd {
			return m.sess.runScript(ctx, msg.script)
		})

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("[error] edit: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// startEval marks the model busy and returns the command built by run with
// a cancellable evaluation context.
func (m model) startEval(run func(context.Context) tea.Cmd) (model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctxFunc())
	m.busy = true
	m.cancel = cancel
	m.matches = nil

	return m, run(ctx)
}

// idle clears the busy state and refreshes the completion snapshot.
func (m model) idle() model {
	if m.cancel != nil {
		m.cancel()
	}

	m.busy = false
	m.cancel = nil
	m.asking = nil
	m.snap = takeSnapshot(m.sess.in)
	m.input.Prompt = promptStyle.Render(evalPrompt)

	if m.mode == modeCtrl {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	return m
}

func (m model) finishEval(msg evalDoneMsg) (model, tea.Cmd) {
	m = m.idle()

	switch {
	case lang.IsInterrupt(msg.err):
		m.quitting = true

		return m, tea.Sequence(tea.Println(hintStyle.Render("[exit]")), tea.Quit)

	case msg.err != nil:
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl eval result",
			slog.String("result_type", "error"),
			slog.String("error", msg.err.Error()),
		)

		return m, tea.Println(errorStyle.Render(errorText(msg.err)))

	case lang.Printable(msg.value):
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl eval result",
			slog.String("result_type", lang.TypeName(msg.value)),
		)

		return m, tea.Println(resultStyle.Render(msg.value.String()))
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	viewingHistory := m.historyIdx < m.history.Len()
	funcCall := detectFunctionCall(input, m.input.Position())

	switch {
	case m.asking != nil:
		b.WriteString(hintStyle.Render("Input requested; press Enter to submit"))

	case m.busy:
		b.WriteString(hintStyle.Render("Running... (Ctrl+C to interrupt)"))

	case viewingHistory:
		pos := m.historyIdx + 1
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(pos)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type a statement or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case funcCall.inCall && m.mode == modeEval:
		if signature, params := m.snap.signature(funcCall.name); signature != "" {
			b.WriteString(renderSignatureHint(signature, params, funcCall.argIndex))
		} else if len(m.matches) > 0 {
			b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width, m.snap.callable))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width, m.snap.callable))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	if m.busy {
		return m.handleBusyKey(msg)
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.toggleMode()

	case tea.KeyRunes:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// handleBusyKey handles keys while an evaluation runs. Only an input request
// accepts text; Ctrl+C interrupts the evaluation and ends the session.
func (m model) handleBusyKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.cancel != nil {
			m.cancel()
		}

		m.quitting = true

		return m, tea.Sequence(tea.Println(hintStyle.Render("[exit]")), tea.Quit)

	case tea.KeyEnter:
		if m.asking == nil {
			return m, nil
		}

		line := m.input.Value()
		m.asking <- line
		m.asking = nil
		m.input.SetValue("")
		m.input.Prompt = promptStyle.Render(evalPrompt)

		return m, tea.Println(hintStyle.Render(line))
	}

	if m.asking == nil {
		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// cycle moves the tab selection by step, completing the current word.
func (m model) cycle(step int) model {
	if len(m.matches) == 0 {
		return m
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0

		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.evalText = ""
	m.evalCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl command",
			slog.String("input", input),
		)

		return m.executeCommand(input)
	}

	echoCmd := tea.Println(formatCommand(input))

	if isQuit(input) {
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)
	}

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval",
		slog.String("input", input),
	)

	m, evalCmd := m.startEval(func(ctx context.Context) tea.Cmd {
		return m.sess.evaluate(ctx, input)
	})

	return m, tea.Sequence(echoCmd, evalCmd)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(formatCtrlCommand(input))

	cmd := parts[0]
	args := parts[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.Any("args", args),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case "l", "list":
		all := len(args) > 0 && args[0] == "all"

		return m, tea.Sequence(echoCmd, tea.Println(m.listBindings(all)))

	case "p", "plugins":
		return m, tea.Sequence(echoCmd, tea.Println(m.listPlugins()))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.handleEdit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editScriptCommand{
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
		initial: m.lastScript,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editCancelledMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if cmd.script == "" {
			return editCancelledMsg{}
		}

		return editScriptMsg{script: cmd.script}
	})
}

// historyStep moves through history by step. With sameMode only entries of
// the current mode are visited; otherwise the mode follows the entry.
func (m model) historyStep(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m, _ = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

func (m model) listBindings(all bool) string {
	var b strings.Builder

	if all {
		b.WriteString("  " + strings.Join(m.snap.names, " ") + "\n")

		return b.String()
	}

	if len(m.snap.bindings) == 0 {
		return hintStyle.Render("  (no bindings; try 'list all')")
	}

	for _, e := range m.snap.bindings {
		fmt.Fprintf(&b, "  %s %s\n", e.name, hintStyle.Render(e.preview))
	}

	return b.String()
}

func (m model) listPlugins() string {
	available, loaded := m.sess.in.ListPlugins()

	return fmt.Sprintf("  available: %s\n  loaded:    %s\n",
		strings.Join(available, ", "),
		hintStyle.Render(strings.Join(loaded, ", ")))
}

// toggleMode switches between eval and control modes, preserving input state.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
