package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes one profiling session.
type Profiler struct {
	Mode  string // one of [Modes]; empty disables profiling
	Path  string // output directory; empty uses the working directory
	Quiet bool
}

// Start begins profiling. It returns a no-op [Stopper] when Mode is empty or
// unsupported, or when built without [Tag]. Stop is always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether the binary was built with [Tag].
func Enabled() bool { return enabled }

type ignore struct{}

func (ignore) Stop() {}
