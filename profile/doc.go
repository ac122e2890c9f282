// Package profile starts optional runtime profiling of the jvav interpreter.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	jvav run --pprof-mode cpu script.jvav
//	go tool pprof -http=: ~/.cache/jvav/pprof/cpu.pprof
//
// Without the tag [Modes] is empty and [Profiler.Start] always returns a
// no-op, so callers never need their own build constraints.
//
// Supported modes with the tag: allocs, block, clock, cpu, goroutine, heap,
// mem, mutex, thread, trace. The tagged build also registers the
// [net/http/pprof] handlers on [net/http.DefaultServeMux].
package profile
