package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/ardnew/jvav/cli/cmd"
	"github.com/ardnew/jvav/pkg"
)

// CLI is the top-level command-line interface for jvav.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Repl   cmd.Repl   `cmd:"" default:"1" help:"Start an interactive session"`
	Run    cmd.Run    `cmd:""             help:"Run a script, package or project"`
	Fmt    cmd.Fmt    `cmd:""             help:"Show how a script is split into logical lines"`
	Info   cmd.Info   `cmd:""             help:"Show version and features"`
	Plugin cmd.Plugin `cmd:""             help:"Inspect plugins"`
	Init   cmd.Init   `cmd:""             help:"Create a new project"`
	Build  cmd.Build  `cmd:""             help:"Package a project"`
	Verify cmd.Verify `cmd:""             help:"Verify a package signature"`
	Config cmd.Config `cmd:""             help:"Write the configuration file"`
}

// Run executes the jvav CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"src":                pkg.SourceExt,
		"pkg":                pkg.PackageExt,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	// Interrupts cancel the running script rather than killing the process.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseJSONConfig)),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
