package cli

import (
	"os"
	"testing"

	"github.com/ardnew/jvav/log"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestLogConfigScan(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "assigned",
			args: []string{"--log-level=debug", "--log-format=json", "run"},
			want: logConfig{Level: "debug", Format: "json"},
		},
		{
			name: "separate value",
			args: []string{"--log-level", "error", "--log-time-layout", "kitchen"},
			want: logConfig{Level: "error", TimeLayout: "kitchen"},
		},
		{
			name: "booleans",
			args: []string{"--log-pretty", "--log-caller=true", "--no-log-caller"},
			want: logConfig{Pretty: true},
		},
		{
			name: "invalid level ignored",
			args: []string{"--log-level=loud"},
			want: logConfig{},
		},
		{
			name: "stops at terminator",
			args: []string{"--", "--log-level=debug"},
			want: logConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got logConfig
			got.scan(tt.args)

			if got != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestLogLevelUnmarshal(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	var l logLevel
	if err := l.UnmarshalText([]byte("info")); err != nil {
		t.Fatalf("UnmarshalText(info) error = %v", err)
	}

	if l != "info" {
		t.Errorf("level = %q, want info", l)
	}

	if err := l.UnmarshalText([]byte("nope")); err == nil {
		t.Error("UnmarshalText(nope) error = nil, want error")
	}
}
