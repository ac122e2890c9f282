package repl

import "errors"

var (
	// ErrHistoryRange is returned when a history lookup is past either end.
	ErrHistoryRange = errors.New("no history entry at index")

	// ErrEditDeclined is returned when the external editor exits without
	// saving, so the input line is left untouched.
	ErrEditDeclined = errors.New("edit declined")
)
