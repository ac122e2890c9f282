package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
)

// Plugin groups the plugin subcommands.
type Plugin struct {
	List PluginList `cmd:"" default:"1" help:"List available and default-loaded plugins."`
}

// PluginList prints every registered plugin and marks the ones a new
// interpreter loads.
type PluginList struct{}

// Run executes the plugin list command.
func (PluginList) Run(ctx context.Context) error {
	out := stdout(ctx)

	in := newInterpreter(io.Discard)
	available, loaded := in.ListPlugins()

	fmt.Fprintln(out, "Available plugins:")

	for _, name := range available {
		mark := " "
		if slices.Contains(loaded, name) {
			mark = "*"
		}

		fmt.Fprintf(out, "  %s %s\n", mark, name)
	}

	fmt.Fprintln(out, "(* loaded by default)")

	return nil
}
