package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/jvav/pkg"
)

// Info prints the version and feature list.
type Info struct{}

// Run executes the info command.
func (Info) Run(ctx context.Context) error {
	out := stdout(ctx)

	fmt.Fprintf(out, "%s %s - %s\n", pkg.Name, pkg.Version, pkg.Description)
	fmt.Fprintln(out, "Features:")

	for _, f := range pkg.Features {
		fmt.Fprintln(out, "  *", f)
	}

	return nil
}
