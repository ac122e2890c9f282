// Package log is the structured logger shared by the jvav interpreter, its
// plugins, and the command line. It wraps [log/slog] with a trace level,
// functional options, and colorized handlers for terminals.
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug))
//	logger.Debug("plugin loaded", slog.String("plugin", "math_ext"))
//
// A [Logger] is a value. [Logger.Wrap] derives one with different options and
// [Logger.With] one with extra attributes; neither affects the original. The
// zero Logger discards everything, so components may hold one without
// checking whether logging was configured.
//
// Levels and formats implement [encoding.TextUnmarshaler] and can be bound
// directly to command line flags or configuration files. Timestamps use any
// named layout of the [time] package, a literal layout, or "none".
//
// The package-level functions log through [Default], which writes text
// records at [DefaultLevel] to standard error until [Config] or [SetDefault]
// changes it.
package log
