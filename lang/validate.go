package lang

import (
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Mode selects the rule set applied by [Validate].
type Mode uint8

// Validation modes.
const (
	ModeExpression Mode = iota
	ModeStatement
)

func (m Mode) String() string {
	switch m {
	case ModeExpression:
		return "expression"
	case ModeStatement:
		return "statement"
	}

	return "unknown"
}

// reservedPrefix marks names that scripts may never reference.
const reservedPrefix = "__"

// maxSuggestions bounds the "did you mean" list of an unknown function.
const maxSuggestions = 3

// Validate rejects unsafe node shapes in the tree rooted at n. It never
// mutates sc; in expression mode sc is consulted to check that every called
// function exists.
func Validate(n Node, mode Mode, sc scope) error {
	var err error

	Inspect(n, func(n Node) bool {
		if err != nil {
			return false
		}

		err = validateNode(n, mode, sc)

		return err == nil
	})

	return err
}

func validateNode(n Node, mode Mode, sc scope) error {
	switch n := n.(type) {
	case *Name:
		return checkName(n.Name, n.At)
	case *LambdaExpr:
		return reject(n.At, "forbidden syntax: lambda")
	case *AttrExpr:
		if err := checkName(n.Name, n.At); err != nil {
			return err
		}

		return reject(n.At, "attribute access is blocked in "+mode.String()+"s")
	case *ImportExpr:
		if mode == ModeExpression {
			return reject(n.At, "import statements are not allowed in expressions")
		}

		return rejectImport(n.At)
	case *ImportStmt:
		return rejectImport(n.At)
	case *FromStmt:
		return rejectImport(n.At)
	case *CallExpr:
		if mode != ModeExpression {
			return nil
		}

		fn, ok := n.Fn.(*Name)
		if !ok {
			return reject(n.At, "only simple function names are allowed in calls")
		}

		if err := checkName(fn.Name, fn.At); err != nil {
			return err
		}

		if !sc.Contains(fn.Name) {
			return unknownFunction(fn, sc)
		}
	}

	return nil
}

// checkName rejects reserved identifiers.
func checkName(name string, at Position) error {
	if strings.HasPrefix(name, reservedPrefix) {
		return ErrValidation.WithPosition(at).
			With(slog.String("name", name)).
			Wrapf("access to reserved name", "'"+name+"'", "is blocked")
	}

	return nil
}

// checkNames applies checkName to each of names.
func checkNames(at Position, names ...string) error {
	for _, name := range names {
		if err := checkName(name, at); err != nil {
			return err
		}
	}

	return nil
}

func reject(at Position, msg string) error {
	return ErrValidation.WithPosition(at).Wrapf(msg)
}

func rejectImport(at Position) error {
	return reject(at, "use the top-level import command: 'import <module>'")
}

func unknownFunction(fn *Name, sc scope) error {
	msg := "unknown function: " + fn.Name

	if s := suggest(fn.Name, sc.Names()); len(s) > 0 {
		msg += " (did you mean: " + strings.Join(s, ", ") + "?)"
	}

	return ErrValidation.WithPosition(fn.At).
		With(slog.String("name", fn.Name)).
		Wrapf(msg)
}

// suggest returns up to maxSuggestions visible names that fuzzily match name.
func suggest(name string, names []string) []string {
	visible := names[:0:0]

	for _, n := range names {
		if !strings.HasPrefix(n, reservedPrefix) {
			visible = append(visible, n)
		}
	}

	matches := fuzzy.Find(name, visible)

	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}

		out = append(out, m.Str)
	}

	return out
}
