package main

import (
	"github.com/spf13/cobra"

	"github.com/comalice/chartkit/internal/extensibility"
	clog "github.com/comalice/chartkit/internal/log"
)

type globalFlags struct {
	logLevel     string
	traceActions bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "chartctl",
		Short:         "Validate, render and run statechart documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			clog.Configure(clog.Config{Level: g.logLevel, Output: cmd.ErrOrStderr(), Service: "chartctl"})
			if g.logLevel != "" {
				return clog.SetLevel(g.logLevel)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to $LOG_LEVEL or info")
	root.PersistentFlags().BoolVar(&g.traceActions, "trace-actions", false, "log every action run at debug level")

	root.AddCommand(
		newValidateCmd(g),
		newDotCmd(g),
		newRunCmd(g),
		newWatchCmd(g),
	)
	return root
}

// registry is the binder every subcommand compiles documents with.
func (g *globalFlags) registry() *extensibility.Registry {
	return extensibility.NewRegistry(extensibility.WithActionTracing(g.traceActions))
}
