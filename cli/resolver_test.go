package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want map[string]any
	}{
		{
			name: "flat",
			doc:  "log-level: debug\nlog-pretty: true\n",
			want: map[string]any{"log-level": "debug", "log-pretty": true},
		},
		{
			name: "nested",
			doc:  "log:\n  level: info\n  time_layout: none\n",
			want: map[string]any{"log-level": "info", "log-time-layout": "none"},
		},
		{
			name: "numbers",
			doc:  "count: 3\nratio: 0.5\n",
			want: map[string]any{"count": "3", "ratio": "0.5"},
		},
		{
			name: "empty",
			doc:  "",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}

			got := r.(config)
			if len(got) != len(tt.want) {
				t.Fatalf("resolve() = %v, want %v", got, tt.want)
			}

			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %#v, want %#v", k, got[k], v)
				}
			}
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	if _, err := resolve(strings.NewReader("log: [unterminated\n")); err == nil {
		t.Fatal("resolve() error = nil, want parse error")
	}
}

func TestConfigResolve(t *testing.T) {
	r := config{"log-level": "debug", "pprof_dir": "/tmp/p"}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"pprof-dir", "/tmp/p"},
		{"log-format", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := &kong.Flag{Value: &kong.Value{Name: tt.flag}}

			got, err := r.Resolve(nil, nil, flag)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%s) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestResolveKong(t *testing.T) {
	var cli struct {
		Level string `default:"warn"`
		Depth int    `default:"1"`
	}

	dir := t.TempDir()
	path := dir + "/config.yaml"

	if err := writeFile(path, "level: debug\ndepth: 4\n"); err != nil {
		t.Fatal(err)
	}

	parser, err := kong.New(&cli, kong.Configuration(resolve, path))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	if _, err := parser.Parse(nil); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cli.Level != "debug" || cli.Depth != 4 {
		t.Errorf("resolved = %+v, want {debug 4}", cli)
	}

	if _, err := parser.Parse([]string{"--level=error"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cli.Level != "error" {
		t.Errorf("flag override: Level = %q, want error", cli.Level)
	}
}
