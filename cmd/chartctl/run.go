package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/comalice/chartkit/internal/core"
	clog "github.com/comalice/chartkit/internal/log"
	"github.com/comalice/chartkit/internal/production"
)

type runFlags struct {
	events      []string
	instances   int
	maxInternal int
	storeDir    string
	output      string
	observe     bool
	metrics     bool
	priority    bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Start instances of a document and drive them through events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := production.LoadDefinition(args[0], g.registry())
			if err != nil {
				return err
			}
			return runInstances(cmd, def, f)
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.events, "event", "e", nil, "events to send, in order (repeatable or comma separated)")
	fl.IntVarP(&f.instances, "instances", "n", 1, "independent instances to run concurrently")
	fl.IntVar(&f.maxInternal, "max-internal", core.DefaultMaxInternalEvents, "internal events allowed per external event")
	fl.StringVar(&f.storeDir, "store", "", "directory to save final snapshots to (JSON)")
	fl.StringVarP(&f.output, "output", "o", "text", "snapshot output format: text, json or yaml")
	fl.BoolVar(&f.observe, "observe", false, "log every microstep")
	fl.BoolVar(&f.metrics, "metrics", false, "print Prometheus metrics after the run")
	fl.BoolVar(&f.priority, "priority", false, "resolve conflicts by transition priority instead of declaration order")
	return cmd
}

func runInstances(cmd *cobra.Command, def *core.Definition, f *runFlags) error {
	if f.instances < 1 {
		return fmt.Errorf("--instances must be at least 1, got %d", f.instances)
	}
	ctx := cmd.Context()
	log := clog.WithComponent("run")

	opts := []core.Option{core.WithMaxInternalEvents(f.maxInternal)}
	if f.priority {
		opts = append(opts, core.WithTieBreak(core.HighestPriority))
	}
	if f.observe {
		opts = append(opts, core.WithObserver(production.DefaultLogObserver()))
	}
	reg := prometheus.NewRegistry()
	if f.metrics {
		opts = append(opts, core.WithObserver(production.NewMetrics(reg)))
	}
	var store production.Store
	if f.storeDir != "" {
		s, err := production.NewJSONStore(f.storeDir)
		if err != nil {
			return err
		}
		store = s
	}

	snaps := make([]core.Snapshot, f.instances)
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < f.instances; i++ {
		eg.Go(func() error {
			inst, err := core.Start(def, opts...)
			if err != nil {
				return err
			}
			if err := sendAll(inst, f.events); err != nil {
				return fmt.Errorf("instance %s: %w", inst.ID(), err)
			}
			snap := inst.Snapshot()
			if store != nil {
				if err := store.Save(ctx, snap); err != nil {
					return err
				}
			}
			snaps[i] = snap
			log.Debug().Str(clog.FieldInstance, snap.InstanceID).Strs(clog.FieldActive, snap.Active).Msg("instance finished")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printSnapshots(out, f.output, snaps); err != nil {
		return err
	}
	if f.metrics {
		return printMetrics(out, reg)
	}
	return nil
}

// sendAll stops at the first rejected event. Degrading is not a rejection.
func sendAll(inst *core.Instance, events []string) error {
	for _, e := range events {
		if err := inst.SendType(e); err != nil {
			return err
		}
	}
	return nil
}

func printSnapshots(w io.Writer, format string, snaps []core.Snapshot) error {
	switch format {
	case "text":
		for _, s := range snaps {
			fmt.Fprintf(w, "%s  status=%s step=%d active=%v\n", s.InstanceID, s.Status, s.Step, s.Active)
			if len(s.Context) > 0 {
				fmt.Fprintf(w, "  context=%v\n", s.Context)
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snaps)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(snaps)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	_, err = w.Write(buf.Bytes())
	return err
}
