package main

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var version = "dev"

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "herald <command> [args]",
		Short:         "herald dispatches plugin events and mediates action authorization",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "herald.toml", "path to the configuration file")

	open := func() (*app, error) {
		return newApp(configPath, stderr)
	}

	rootCmd.AddCommand(newScanCmd(open))
	rootCmd.AddCommand(newEventsCmd(open))
	rootCmd.AddCommand(newDispatchCmd(open))
	rootCmd.AddCommand(newResyncCmd(open))
	rootCmd.AddCommand(newActivityCmd(open, true))
	rootCmd.AddCommand(newActivityCmd(open, false))

	return rootCmd
}

func newLogger(level string, out io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "herald",
		Level:  hclog.LevelFromString(level),
		Output: out,
	})
}
