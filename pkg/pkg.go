// Package pkg holds the jvav release metadata shown by the command line and
// recorded in built packages.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of this build, embedded from the VERSION
// file.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It also names the configuration and cache
	// directories and the package file extension.
	Name = "jvav"

	Description = "Line-oriented scripting interpreter with reversed builtins"

	// PackageExt is the extension of files produced by the build command.
	PackageExt = "." + Name + "pkg"

	// SourceExt is the extension of script files.
	SourceExt = "." + Name
)

// Features lists the capabilities reported by the info command.
var Features = []string{
	"Block preprocessing of indented for/while/if/def/class/try bodies",
	"Reversed builtin names with Python-style semantics",
	"Plugins loadable and unloadable at run time",
	"Modules: math, random, json, yaml",
	"Interactive REPL with completion, signature hints and history",
	"Project scaffolding, packaging and signature verification",
}

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

func (a AuthorInfo) String() string {
	switch {
	case a.Email == "":
		return a.Name
	case a.Name == "":
		return "<" + a.Email + ">"
	default:
		return a.Name + " <" + a.Email + ">"
	}
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
