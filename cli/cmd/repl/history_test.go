package repl

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}

	for _, e := range []HistoryEntry{
		{"x = 1", modeEval},
		{"list", modeCtrl},
		{"tnirp(x)", modeEval},
		{"tnirp(x)", modeEval}, // repeated last entry is skipped
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q): %v", e.Line, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := "E:x = 1\nC:list\nE:tnirp(x)\n"; string(data) != want {
		t.Errorf("history file = %q, want %q", data, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}

	if reloaded.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reloaded.Len())
	}

	e, err := reloaded.Entry(1)
	if err != nil {
		t.Fatal(err)
	}

	if e.Line != "list" || e.Mode != modeCtrl {
		t.Errorf("Entry(1) = %+v, want ctrl list", e)
	}

	if _, err := reloaded.Entry(3); err == nil {
		t.Error("Entry(3) succeeded on 3 entries")
	}
}

func TestHistoryMovesDuplicateToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, line := range []string{"a = 1", "b = 2", "a = 1"} {
		if err := h.Add(line, modeEval); err != nil {
			t.Fatal(err)
		}
	}

	if got, want := h.Lines(modeEval), []string{"b = 2", "a = 1"}; !slices.Equal(got, want) {
		t.Errorf("Lines = %v, want %v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := "E:b = 2\nE:a = 1\n"; string(data) != want {
		t.Errorf("rewritten file = %q, want %q", data, want)
	}
}

func TestHistoryLegacyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	if err := os.WriteFile(path, []byte("nel(x)\n\nC:help\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if got := h.Lines(modeEval); !slices.Equal(got, []string{"nel(x)"}) {
		t.Errorf("eval lines = %v", got)
	}

	if got := h.Lines(modeCtrl); !slices.Equal(got, []string{"help"}) {
		t.Errorf("ctrl lines = %v", got)
	}
}

func TestHistoryInMemory(t *testing.T) {
	t.Parallel()

	h := NewHistory("")
	if err := h.Add("x = 1", modeEval); err != nil {
		t.Fatal(err)
	}

	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}
}
