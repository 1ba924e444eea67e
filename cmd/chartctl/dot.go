package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/production"
)

func newDotCmd(g *globalFlags) *cobra.Command {
	var events []string
	cmd := &cobra.Command{
		Use:   "dot FILE",
		Short: "Render a document as Graphviz DOT",
		Long: `Render a document as Graphviz DOT. With --event the chart is started and
driven through the given events first, and the resulting configuration is
highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := production.LoadDefinition(args[0], g.registry())
			if err != nil {
				return err
			}
			var active []string
			if len(events) > 0 {
				inst, err := core.Start(def)
				if err != nil {
					return err
				}
				if err := sendAll(inst, events); err != nil {
					return err
				}
				active = inst.Snapshot().Active
			}
			fmt.Fprint(cmd.OutOrStdout(), production.ExportDOT(def, active))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&events, "event", "e", nil, "events to send before rendering (repeatable or comma separated)")
	return cmd
}
