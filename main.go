// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/key4hep/stackenv/pkg/version"
)

var verbose bool

func main() {
	logger := log.New(os.Stderr, "", 0)

	root := &cobra.Command{
		Use:     "stackenv",
		Version: version.Version,
		Short:   "Helpers for maintaining the build recipes of a scientific software stack.",
		Long: "stackenv bundles the helpers the stack's build recipes share: rendering accumulated\n" +
			"environment modifications into a portable setup.sh, pinning dependencies to the latest\n" +
			"upstream commit and translating versions into iLCSoft-convention download URLs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print more detailed output, including executed external commands.")

	root.AddCommand(
		NewSetupCommand(logger),
		NewPinCommand(logger),
		NewURLCommand(),
		NewListCommand(logger),
		NewEnvCommand(logger),
	)

	g := &run.Group{}
	// Listen for signal interrupts.
	{
		cancel := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case s := <-c:
				return errors.Errorf("caught signal %q; exiting. ", s)
			case <-cancel:
				return nil
			}
		}, func(error) {
			close(cancel)
		})
	}

	// Run command.
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return root.ExecuteContext(ctx)
		}, func(error) {
			cancel()
		})
	}
	if err := g.Run(); err != nil {
		// Use %+v for github.com/pkg/errors error to print with stack.
		logger.Fatalf("Error: %+v", err)
	}
}
