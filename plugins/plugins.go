package plugins

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/ardnew/jvav/lang"
	"github.com/ardnew/jvav/log"
)

// Plugin names.
const (
	FileOps     = "file_ops"
	Network     = "network"
	Datetime    = "datetime"
	MathExt     = "math_ext"
	Console     = "console"
	System      = "system"
	Collections = "collections"
	Expr        = "expr"
)

// DefaultLoaded lists the plugins loaded into every new interpreter.
var DefaultLoaded = []string{FileOps, Datetime, MathExt, Console, Collections}

// config holds the resources shared by the standard bundles.
type config struct {
	client   *http.Client
	logger   log.Logger
	autoload []string
	timeout  time.Duration
}

// Option configures [Install].
type Option func(*config)

// WithHTTPClient sets the client used by the network bundle.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.client = c
		}
	}
}

// WithLogger sets the logger used by the bundles.
func WithLogger(logger log.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithAutoload replaces the list of plugins loaded by [Install].
func WithAutoload(names ...string) Option {
	return func(cfg *config) {
		cfg.autoload = slices.Clone(names)
	}
}

// WithCommandTimeout sets the default timeout of the system bundle's command
// runner.
func WithCommandTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// Install registers every standard bundle with in and loads the autoload set
// ([DefaultLoaded] unless [WithAutoload] is given).
func Install(in *lang.Interpreter, opts ...Option) {
	cfg := config{
		client:   &http.Client{Timeout: 10 * time.Second},
		autoload: DefaultLoaded,
		timeout:  30 * time.Second,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	bundles := map[string]lang.Factory{
		FileOps:     fileOps,
		Network:     network(cfg.client),
		Datetime:    datetime,
		MathExt:     mathExt,
		Console:     console(in),
		System:      system(cfg.timeout),
		Collections: collections,
		Expr:        exprBundle(in),
	}

	for name, factory := range bundles {
		in.RegisterPlugin(name, factory)
	}

	for _, name := range cfg.autoload {
		if !in.LoadPlugin(name) {
			cfg.logger.Warn("autoload failed", slog.String("plugin", name))
		}
	}
}

// fn builds a builtin that takes between lo and hi arguments; a negative hi
// means no upper bound.
func fn(name string, params []string, lo, hi int, body lang.BuiltinFunc) *lang.Builtin {
	return lang.NewBuiltin(name, params, func(ctx context.Context, args []lang.Value) (lang.Value, error) {
		if err := lang.Arity(name, args, lo, hi); err != nil {
			return nil, err
		}

		return body(ctx, args)
	})
}

// fail reports a Go error raised while running the named builtin.
func fail(name string, err error) *lang.Error {
	return lang.ErrEvaluation.Wrapf(name+"():", err.Error())
}

// optString returns args[i] as a string, or def when it is absent or None.
func optString(name string, args []lang.Value, i int, def string) (string, error) {
	if i >= len(args) || args[i].Kind() == lang.KindNone {
		return def, nil
	}

	return lang.ToString(name, args[i])
}

// table builds a bundle's name->value mapping from builtins.
func table(bs ...*lang.Builtin) map[string]lang.Value {
	out := make(map[string]lang.Value, len(bs))
	for _, b := range bs {
		out[b.Name()] = b
	}

	return out
}
