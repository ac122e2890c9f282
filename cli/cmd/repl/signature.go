package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall describes the call whose argument list holds the cursor.
type functionCall struct {
	name     string // callee, possibly "module.member"
	argIndex int    // 0-based index of the argument under the cursor
	inCall   bool
}

// detectFunctionCall reports the innermost open call before cursor. Brackets
// and quoted strings are skipped when counting arguments.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Track the open parens on a stack while scanning forward so that
	// strings are skipped correctly.
	type open struct {
		pos  int
		args int
	}

	var (
		stack []open
		quote rune
	)

	for i := 0; i < cursor; {
		r, size := utf8.DecodeRuneInString(input[i:])

		switch {
		case quote != 0:
			if r == '\\' {
				i += size
			} else if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			stack = append(stack, open{pos: i})
		case r == ')' || r == ']' || r == '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case r == ',':
			if len(stack) > 0 {
				stack[len(stack)-1].args++
			}
		}

		i += size
	}

	if len(stack) == 0 {
		return functionCall{}
	}

	top := stack[len(stack)-1]
	if input[top.pos] != '(' {
		return functionCall{}
	}

	nameStart := top.pos

	for nameStart > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:nameStart])
		if !isIdentRune(r) {
			break
		}

		nameStart -= size
	}

	// Attribute calls are not valid syntax, so they get no hint.
	name := input[nameStart:top.pos]
	if name == "" || (nameStart > 0 && input[nameStart-1] == '.') {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: top.args, inCall: true}
}

// signature returns the formatted signature and parameter names of the
// callable bound to name, or "" if it is unknown.
func (s snapshot) signature(name string) (string, []string) {
	params, ok := s.params[name]
	if !ok {
		return "", nil
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// callable reports whether name is bound to a callable.
func (s snapshot) callable(name string) bool {
	_, ok := s.params[name]

	return ok
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted. A parameter prefixed with "*" absorbs every
// remaining argument.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "*")

		if (variadic && currentArgIdx >= i) || (!variadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
