package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/production"
)

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Compile documents and report every problem found",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			binder := g.registry()
			failed := 0
			for _, path := range args {
				def, err := production.LoadDefinition(path, binder)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s\n", path)
					for _, p := range problems(err) {
						fmt.Fprintf(out, "  - %v\n", p)
					}
					continue
				}
				fmt.Fprintf(out, "ok   %s  %s@%s (%d states, %d transitions)\n",
					path, def.ID(), def.Version(), def.Len(), len(def.Transitions()))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}
}

// problems unpacks a compile failure into its individual findings.
func problems(err error) []error {
	var de *core.DefinitionError
	if errors.As(err, &de) {
		return de.Problems
	}
	return []error{err}
}
