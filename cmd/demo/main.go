// Command demo runs a traffic light driven by a timer, publishing its
// transitions and saving a snapshot after every change.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/extensibility"
	clog "github.com/comalice/chartkit/internal/log"
	"github.com/comalice/chartkit/internal/primitives"
	"github.com/comalice/chartkit/internal/production"
)

func main() {
	clog.Configure(clog.Config{Service: "demo"})
	log := clog.WithComponent("demo")

	mb := primitives.NewMachineBuilder("traffic-light", "traffic")
	mb.Root().WithInitial("red").
		Atomic("red").OnEntry("incr:cycles").Transition("TIMER", "green").Up().
		Atomic("green").Transition("TIMER", "yellow").Up().
		Atomic("yellow").Transition("TIMER", "red")
	def, err := core.Compile(mb.MustBuild(), extensibility.NewRegistry())
	if err != nil {
		log.Fatal().Err(err).Msg("compile")
	}

	store, err := production.NewJSONStore(os.TempDir())
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}

	published := make(chan production.PublishedEvent, 100)
	publisher := production.NewChannelPublisher(published)

	inst, err := core.Start(def,
		core.WithInstanceID("traffic-demo"),
		core.WithObserver(publisher),
		core.WithObserver(production.DefaultLogObserver()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("start")
	}

	timer := extensibility.NewTimerEventSource("TIMER", nil, time.Second)
	defer timer.Stop()
	actor := core.NewActor(inst, core.WithEventSource(timer))
	actor.Start()
	defer actor.Stop() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for cycles := 1; cycles <= 12; cycles++ {
		select {
		case pub := <-published:
			fmt.Printf("\n--- Cycle %d ---\n", cycles)
			fmt.Printf("Published: %v (%s)\n", pub.Metadata.Transitions, pub.Event.Type)
			snap := inst.Snapshot()
			if err := store.Save(ctx, snap); err != nil {
				log.Error().Err(err).Msg("save snapshot")
			}
			fmt.Println("DOT:\n" + production.ExportDOT(def, snap.Active))
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return
		}
	}
	fmt.Println("Demo complete after 12 cycles.")
}
