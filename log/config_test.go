package log

import (
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "trace"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LevelInfo + 2, "info+2"},
		{LevelError + 4, "error+4"},
		{LevelTrace - 2, "trace-2"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"Debug", LevelDebug},
		{"info", LevelInfo},
		{" warn ", LevelWarn},
		{"error", LevelError},
		{"info+2", LevelInfo + 2},
		{"trace+1", LevelTrace + 1},
		{"loud", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_UnmarshalText_RejectsUnknown(t *testing.T) {
	var l Level
	if err := l.UnmarshalText([]byte("verbose")); err == nil {
		t.Fatal("expected error for unknown level")
	}

	for name := range Levels() {
		if err := l.UnmarshalText([]byte(name)); err != nil {
			t.Errorf("UnmarshalText(%q): %v", name, err)
		}

		if l.String() != name {
			t.Errorf("round trip %q gave %q", name, l)
		}
	}
}

func TestFormat_Text(t *testing.T) {
	for name := range Formats() {
		var f Format
		if err := f.UnmarshalText([]byte(name)); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", name, err)
		}

		b, _ := f.MarshalText()
		if string(b) != name {
			t.Errorf("MarshalText() = %q, want %q", b, name)
		}
	}

	if got := ParseFormat("JSON"); got != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v", got)
	}

	if got := ParseFormat("yaml"); got != DefaultFormat {
		t.Errorf("ParseFormat(yaml) = %v, want default", got)
	}

	var f Format
	if err := f.UnmarshalText([]byte("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestConfig_Options(t *testing.T) {
	c := makeConfig(nil,
		WithLevel(LevelDebug),
		WithFormat(FormatJSON),
		WithCaller(true),
		WithPretty(true),
	)

	if c.level != LevelDebug || c.format != FormatJSON || !c.caller || !c.pretty {
		t.Errorf("options not applied: %+v", c)
	}

	if c.output == nil {
		t.Error("nil writer should be replaced with io.Discard")
	}

	d := c.clone(WithLevel(LevelError))
	if d.mutex == c.mutex {
		t.Error("clone shares the mutex")
	}

	if c.level != LevelDebug || d.level != LevelError {
		t.Errorf("clone modified original: %v %v", c.level, d.level)
	}
}

func TestConfig_formatTime(t *testing.T) {
	ts := time.Date(2024, 3, 4, 15, 4, 5, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2024-03-04T15:04:05Z"},
		{"rfc-3339-nano", "2024-03-04T15:04:05.123456789Z"},
		{"Kitchen", "3:04PM"},
		{"DateTime", "2024-03-04 15:04:05"},
		{"ms", "Mar  4 15:04:05.123"},
		{"2006/01/02", "2024/03/04"},
		{"none", ""},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			if got := makeFormatTimeFunc(tt.layout)(ts); got != tt.want {
				t.Errorf("format(%q) = %q, want %q", tt.layout, got, tt.want)
			}
		})
	}
}

func BenchmarkConfig_formatTime(b *testing.B) {
	format := makeFormatTimeFunc("RFC3339Nano")
	ts := time.Now()

	for b.Loop() {
		_ = format(ts)
	}
}
