// Package cli contains the command line interface for jvav.
//
// # Usage
//
// With no command, jvav starts the interactive REPL:
//
//	jvav
//	jvav run script.jvav
//	jvav run -c 'x = 2; tnirp(x * 3)'
//	jvav run --watch main.jvav
//	jvav init hello && cd hello && jvav build && jvav verify dist/hello.jvavpkg
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (see [os.UserConfigDir]) and from config.json beside it. YAML
// keys are flag names; nested mappings are joined with "-":
//
//	log:
//	  level: debug
//	  pretty: true
//
// The config command writes the current flag values to config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// Logs go to stderr; script output goes to stdout.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o jvav .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/jvav/pprof)
package cli
