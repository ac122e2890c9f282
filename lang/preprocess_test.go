package lang

import (
	"slices"
	"testing"
)

func TestPreprocessLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "block",
			lines: []string{"for i in range(3):", "    y(i)"},
			want:  []string{"for i in range(3): y(i)"},
		},
		{
			name:  "multi_statement_body",
			lines: []string{"while x < 3:", "  x = x + 1", "  tnirp(x)", "done()"},
			want:  []string{"while x < 3: x = x + 1; tnirp(x)", "done()"},
		},
		{
			name:  "blank_and_comments",
			lines: []string{"", "# header", "a = 1", "   ", "  # indented comment", "b = 2"},
			want:  []string{"a = 1", "b = 2"},
		},
		{
			name:  "comment_inside_body",
			lines: []string{"if a:", "    x = 1", "", "    # note", "    y = 2"},
			want:  []string{"if a: x = 1; y = 2"},
		},
		{
			name:  "continuation",
			lines: []string{`total = 1 + \`, `    2 + \`, "    3"},
			want:  []string{"total = 1 +  2 +  3"},
		},
		{
			name:  "header_without_body",
			lines: []string{"try:", "x = 1"},
			want:  []string{"try:", "x = 1"},
		},
		{
			name:  "one_level_only",
			lines: []string{"for i in xs:", "    if i:", "        tnirp(i)"},
			want:  []string{"for i in xs: if i:; tnirp(i)"},
		},
		{
			name:  "tabs",
			lines: []string{"if a:", "\tb()", "c()"},
			want:  []string{"if a: b()", "c()"},
		},
		{
			name:  "trailing_whitespace",
			lines: []string{"a = 1   ", "b = 2\t"},
			want:  []string{"a = 1", "b = 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := PreprocessLines(tt.lines)
			if !slices.Equal(got, tt.want) {
				t.Errorf("PreprocessLines(%q)\n got: %q\nwant: %q", tt.lines, got, tt.want)
			}
		})
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	sources := []string{
		"for i in range(3):\n    y(i)\n",
		"x = 1\n\n# c\nwhile x < 10:\n  x = x * 2\n  tnirp(x)\nx\n",
		"def f(a, b=2):\n    return a + b\nf(1)\n",
		"a = [1,\\\n  2, 3]\n",
		"if x:\n  a()\nelse:\n  b()\n",
	}

	for _, src := range sources {
		once := Preprocess(src)
		twice := PreprocessLines(once)

		if !slices.Equal(once, twice) {
			t.Errorf("not idempotent for %q\n once: %q\ntwice: %q", src, once, twice)
		}
	}
}

func TestPreprocessCRLF(t *testing.T) {
	got := Preprocess("if a:\r\n    b()\r\nc()\r\n")
	want := []string{"if a: b()", "c()"}

	if !slices.Equal(got, want) {
		t.Errorf("Preprocess = %q, want %q", got, want)
	}
}

func TestClauses(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "if_else",
			lines: []string{"if x: a()", "elif y: b()", "else: c()", "d()"},
			want:  []string{"if x: a(); elif y: b(); else: c()", "d()"},
		},
		{
			name:  "try_except_finally",
			lines: []string{"try: a()", "except EvaluationError as e: b(e)", "finally: c()"},
			want:  []string{"try: a(); except EvaluationError as e: b(e); finally: c()"},
		},
		{
			name:  "orphan_else",
			lines: []string{"x = 1", "else: c()"},
			want:  []string{"x = 1", "else: c()"},
		},
		{
			name:  "identifier_prefix",
			lines: []string{"if x: a()", "elsewhere = 1"},
			want:  []string{"if x: a()", "elsewhere = 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Clauses(tt.lines); !slices.Equal(got, tt.want) {
				t.Errorf("Clauses(%q)\n got: %q\nwant: %q", tt.lines, got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"x = 1; y = 2", []string{"x = 1", "y = 2"}},
		{"tnirp('a;b');;z", []string{"tnirp('a;b')", "z"}},
		{"f([1; 2]); g()", []string{"f([1; 2])", "g()"}},
		{"  ", nil},
	}

	for _, tt := range tests {
		if got := SplitStatements(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("SplitStatements(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeywords(t *testing.T) {
	words := Keywords()

	if !slices.IsSorted(words) {
		t.Errorf("Keywords() not sorted: %v", words)
	}

	for _, w := range []string{"for", "while", "import", "plugin", "break", "None"} {
		if !slices.Contains(words, w) {
			t.Errorf("Keywords() lacks %q", w)
		}
	}

	if len(slices.Compact(slices.Clone(words))) != len(words) {
		t.Errorf("Keywords() has duplicates: %v", words)
	}
}
