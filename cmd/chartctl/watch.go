package main

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/production"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch FILE...",
		Short: "Register documents in a catalog and reload them on change",
		Long: `Register documents in a catalog and reload them whenever they change on
disk. Each distinct content becomes a new version; a document that fails to
compile is reported and the previous version is kept. Runs until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := production.NewCatalog()
			w := production.NewWatcher(catalog, g.registry(),
				production.WithDebounce(debounce),
				production.WithOnReload(reportReload(cmd.OutOrStdout())),
			)
			if err := w.Watch(cmd.Context(), args...); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			<-cmd.Context().Done()
			return w.Close()
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", production.DefaultDebounce, "quiet period before a changed file is reloaded")
	return cmd
}

func reportReload(out io.Writer) production.ReloadFunc {
	var mu sync.Mutex
	return func(path string, def *core.Definition, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			fmt.Fprintf(out, "loaded %s  %s@%s\n", path, def.ID(), def.Version())
		case errors.Is(err, production.ErrExists):
		default:
			fmt.Fprintf(out, "error  %s  %v\n", path, err)
		}
	}
}
