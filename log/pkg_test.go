package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPackage_UsesDefaultLogger(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer

	Config(WithOutput(&buf), WithLevel(LevelTrace), WithFormat(FormatJSON))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Trace", Trace, "TRACE"},
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"TraceContext", ctxFunc(TraceContext), "TRACE"},
		{"DebugContext", ctxFunc(DebugContext), "DEBUG"},
		{"InfoContext", ctxFunc(InfoContext), "INFO"},
		{"WarnContext", ctxFunc(WarnContext), "WARN"},
		{"ErrorContext", ctxFunc(ErrorContext), "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("package message", slog.String("key", "value"))

			out := buf.String()
			for _, want := range []string{"package message", `"level":"` + tt.level + `"`, `"key":"value"`} {
				if !strings.Contains(out, want) {
					t.Errorf("output %q lacks %q", out, want)
				}
			}
		})
	}

	buf.Reset()
	With(slog.String("component", "repl")).Info("ready")

	if !strings.Contains(buf.String(), `"component":"repl"`) {
		t.Errorf("With did not add attribute: %q", buf.String())
	}
}

func ctxFunc(fn func(ctx context.Context, msg string, attrs ...slog.Attr)) func(string, ...slog.Attr) {
	return func(msg string, attrs ...slog.Attr) { fn(DefaultContextProvider(), msg, attrs...) }
}
