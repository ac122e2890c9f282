package lang

import (
	"slices"
	"strings"
	"unicode"
)

// bodySep joins the statements of a collapsed block.
const bodySep = "; "

// Preprocess turns raw source text into logical lines.
// See [PreprocessLines].
func Preprocess(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	return PreprocessLines(strings.Split(raw, "\n"))
}

// PreprocessLines flattens physical lines into logical lines.
//
// Blank lines and comment lines are dropped, backslash continuations are
// joined, and a header line ending in ':' absorbs the following run of more
// deeply indented lines as its "; "-joined body. Only one level of
// indentation is collapsed.
func PreprocessLines(lines []string) []string {
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isSkippable(line) {
			continue
		}

		for {
			trimmed := strings.TrimRightFunc(line, unicode.IsSpace)
			if !strings.HasSuffix(trimmed, `\`) {
				line = trimmed

				break
			}

			line = strings.TrimSuffix(trimmed, `\`)
			if i+1 >= len(lines) {
				break
			}

			i++
			line += " " + strings.TrimLeftFunc(lines[i], unicode.IsSpace)
		}

		header := strings.TrimSpace(line)
		if header == "" {
			continue
		}

		if !strings.HasSuffix(header, ":") {
			out = append(out, header)

			continue
		}

		width := indentWidth(line)
		body := make([]string, 0)

		for i+1 < len(lines) {
			next := lines[i+1]
			if isSkippable(next) {
				i++

				continue
			}

			if indentWidth(next) <= width {
				break
			}

			i++

			body = append(body, strings.TrimSpace(next))
		}

		if len(body) == 0 {
			out = append(out, header)

			continue
		}

		out = append(out, header+" "+strings.Join(body, bodySep))
	}

	return out
}

// Clauses merges logical lines that continue a clause chain (elif, else,
// except, finally) into the preceding line so that multi-clause if and try
// blocks reach the dispatcher as one logical line.
func Clauses(lines []string) []string {
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if len(out) > 0 && isClauseContinuation(line) && opensClauseChain(out[len(out)-1]) {
			out[len(out)-1] += bodySep + line

			continue
		}

		out = append(out, line)
	}

	return out
}

func isClauseContinuation(line string) bool {
	return hasKeyword(line, "elif") || hasKeyword(line, "else") ||
		hasKeyword(line, "except") || hasKeyword(line, "finally")
}

func opensClauseChain(line string) bool {
	return hasKeyword(line, "if") || hasKeyword(line, "try")
}

func isSkippable(line string) bool {
	s := strings.TrimSpace(line)

	return s == "" || strings.HasPrefix(s, "#")
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// hasKeyword reports whether line starts with kw followed by a word
// boundary.
func hasKeyword(line, kw string) bool {
	if !strings.HasPrefix(line, kw) {
		return false
	}

	rest := line[len(kw):]
	if rest == "" {
		return true
	}

	r := rune(rest[0])

	return !isIdentPart(r)
}

// SplitStatements splits a command line at every ';' outside brackets and
// string literals, dropping empty parts.
func SplitStatements(line string) []string {
	return splitTopLevel(line, ';')
}

// Keywords returns the reserved words of the language, sorted.
func Keywords() []string {
	words := make([]string, 0, len(keywords)+len(blockKeywords))

	for w := range keywords {
		words = append(words, w)
	}

	for w := range blockKeywords {
		if !keywords[w] {
			words = append(words, w)
		}
	}

	for _, w := range []string{"break", "return", "plugin", "pass"} {
		if !keywords[w] && !blockKeywords[w] {
			words = append(words, w)
		}
	}

	slices.Sort(words)

	return words
}
