// Package cmd implements the jvav subcommands.
//
// Each command is a kong command struct with a Run(context.Context) method.
// The root command in package cli stores the parsed [kong.Context] in the
// context with [WithContext]; commands read their output writers and the
// configuration paths from it.
package cmd

var (
	// CacheIdentifier is the kong variable holding the runtime cache
	// directory (REPL history, profiles).
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path of the YAML
	// configuration file.
	ConfigIdentifier = "config"
)
