package lang

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/jvav/log"
)

// DefaultMaxDepth is the maximum number of nested user function calls.
const DefaultMaxDepth = 200

// InputProvider supplies a line of input for the reserved input builtin.
type InputProvider func(ctx context.Context, prompt string) (string, error)

// Interpreter evaluates logical lines against one [Env].
//
// An Interpreter is not safe for concurrent use. Embedders that evaluate from
// several goroutines must serialize every call.
type Interpreter struct {
	env      *Env
	builtins map[string]Value
	modules  map[string]*Module
	plugins  *pluginRegistry
	input    InputProvider
	out      io.Writer
	logger   log.Logger
	maxDepth int
	depth    int
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithOutput sets the writer that receives script output. The default is
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// WithInputProvider sets the initial input provider.
func WithInputProvider(fn InputProvider) Option {
	return func(in *Interpreter) {
		in.input = fn
	}
}

// WithMaxDepth sets the maximum nesting of user function calls.
func WithMaxDepth(depth int) Option {
	return func(in *Interpreter) {
		if depth > 0 {
			in.maxDepth = depth
		}
	}
}

// WithModule adds m to the module catalog, replacing any module with the
// same name.
func WithModule(m *Module) Option {
	return func(in *Interpreter) {
		in.modules[m.Name()] = m
	}
}

// WithPlugin registers a plugin factory. When load is true the plugin is
// loaded once the interpreter is constructed.
func WithPlugin(name string, factory Factory, load bool) Option {
	return func(in *Interpreter) {
		in.plugins.register(name, factory)

		if load {
			in.plugins.autoload = append(in.plugins.autoload, name)
		}
	}
}

// New returns an interpreter whose environment holds the builtin catalog.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		env:      NewEnv(),
		modules:  make(map[string]*Module),
		plugins:  newPluginRegistry(),
		out:      os.Stdout,
		maxDepth: DefaultMaxDepth,
	}

	for name, m := range standardModules() {
		in.modules[name] = m
	}

	in.builtins = make(map[string]Value)
	for _, b := range catalog(in) {
		in.builtins[b.Name()] = b
		in.env.Set(b.Name(), b)
	}

	for _, opt := range opts {
		opt(in)
	}

	for _, name := range in.plugins.autoload {
		in.LoadPlugin(name)
	}

	in.logger.Trace("interpreter ready",
		slog.Int("builtins", len(in.builtins)),
		slog.Int("modules", len(in.modules)),
		slog.Any("plugins", in.plugins.loaded))

	return in
}

// Env returns the interpreter's environment.
func (in *Interpreter) Env() *Env { return in.env }

// Output returns the writer that receives script output.
func (in *Interpreter) Output() io.Writer { return in.out }

// SetOutput replaces the writer that receives script output.
func (in *Interpreter) SetOutput(w io.Writer) { in.out = w }

// SetInputProvider replaces the input provider. The input builtin always
// consults the current provider.
func (in *Interpreter) SetInputProvider(fn InputProvider) { in.input = fn }

// Modules returns the names of the importable modules, sorted.
func (in *Interpreter) Modules() []string { return sortedKeys(in.modules) }

// Module returns the registered module called name without importing it.
func (in *Interpreter) Module(name string) (*Module, bool) {
	m, ok := in.modules[name]

	return m, ok
}

// Params returns the parameter names of the callable bound to name.
func (in *Interpreter) Params(name string) ([]string, bool) {
	v, ok := in.env.Get(name)
	if !ok {
		return nil, false
	}

	sig, ok := v.(Signature)
	if !ok {
		return nil, false
	}

	return sig.Params(), true
}

// Printable reports whether a result should be shown to the user: it is
// neither Unit nor None.
func Printable(v Value) bool {
	return v != nil && v.Kind() != KindNone
}

// RunScript preprocesses src and evaluates each logical line in order.
// Printable results are passed to onResult. Line errors are passed to
// onError and the run continues; an interrupt stops the run and is returned.
func (in *Interpreter) RunScript(
	ctx context.Context,
	src string,
	onResult func(Value),
	onError func(line string, err error),
) error {
	for _, line := range Clauses(Preprocess(src)) {
		v, err := in.Evaluate(ctx, line)

		switch {
		case IsInterrupt(err):
			return err
		case err != nil:
			if onError != nil {
				onError(line, err)
			}
		case Printable(v) && onResult != nil:
			onResult(v)
		}
	}

	return nil
}

// writeLine writes the space-joined parts and a newline to the output.
func (in *Interpreter) writeLine(parts ...string) {
	if in.out == nil {
		return
	}

	_, _ = io.WriteString(in.out, strings.Join(parts, " ")+"\n")
}
