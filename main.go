package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/ardnew/jvav/cli"
	"github.com/ardnew/jvav/cli/cmd"
	"github.com/ardnew/jvav/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		// Commands print their own diagnostics before returning ErrReported.
		if !errors.Is(err, cmd.ErrReported) {
			log.Error("run failed", slog.Any("error", err))
		}

		os.Exit(1)
	}
}
