package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/jvav/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "plugins", "edit", "clear", "quit"}

const previewWidth = 40

// binding is a user-visible name and a short preview of its value.
type binding struct {
	name    string
	preview string
}

// snapshot is a copy of the names and signatures of an interpreter's
// environment. The model reads it while an evaluation may be running, so it
// never touches the environment itself.
type snapshot struct {
	names    []string
	members  map[string][]string
	params   map[string][]string
	bindings []binding
}

// takeSnapshot copies what completion and hints need from in. It must not
// run concurrently with an evaluation.
func takeSnapshot(in *lang.Interpreter) snapshot {
	env := in.Env()
	s := snapshot{
		members: map[string][]string{},
		params:  map[string][]string{},
	}

	for _, name := range env.Names() {
		if strings.HasPrefix(name, "__") {
			continue
		}

		v, _ := env.Get(name)
		s.names = append(s.names, name)

		if sig, ok := v.(lang.Signature); ok {
			s.params[name] = sig.Params()
		}

		if _, ok := v.(*lang.Builtin); !ok {
			s.bindings = append(s.bindings, binding{name: name, preview: preview(v)})
		}
	}

	s.names = append(s.names, lang.Keywords()...)

	for _, name := range in.Modules() {
		if mod, ok := in.Module(name); ok {
			s.members[name] = mod.Names()
		}
	}

	return s
}

// preview renders a short description of v for the list command.
func preview(v lang.Value) string {
	text := lang.TypeName(v) + " " + lang.Repr(v)
	if utf8.RuneCountInString(text) > previewWidth {
		r := []rune(text)

		return string(r[:previewWidth-3]) + "..."
	}

	return text
}

// isIdentRune reports whether r can appear in a name.
func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds returns the name at the cursor position and its byte boundaries
// within input. The word is empty when the cursor sits between two non-name
// characters.
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isIdentRune(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isIdentRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// fromModule returns the module of a "from MOD import" statement whose
// member list the word at wordStart belongs to, as in "from math import q".
// It returns "" for any other word.
func fromModule(input string, wordStart int) string {
	prefix := input[:wordStart]
	if i := strings.LastIndexByte(prefix, ';'); i >= 0 {
		prefix = prefix[i+1:]
	}

	fields := strings.Fields(strings.ReplaceAll(prefix, ",", " , "))
	if len(fields) < 3 || fields[0] != "from" || fields[2] != "import" {
		return ""
	}

	// Members so far alternate with commas; the word must start a new one.
	rest := fields[3:]
	if len(rest)%2 != 0 || (len(rest) > 0 && rest[len(rest)-1] != ",") {
		return ""
	}

	if !strings.HasSuffix(prefix, " ") && !strings.HasSuffix(prefix, ",") {
		return ""
	}

	return fields[1]
}

// candidates returns the completion candidates for a word: the members of
// module when it is set, otherwise every name.
func (s snapshot) candidates(module string) []string {
	if module == "" {
		return s.names
	}

	return s.members[module]
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty in the member list of a from-import, it
// returns all members of the module as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		module := fromModule(input, wordStart)
		candidates = m.snap.candidates(module)

		if word == "" {
			if module == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style. Callables are suffixed with "()".
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	callable func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected, callable != nil && callable(match.Str))
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected, fn bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	if fn {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}
