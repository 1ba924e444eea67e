package testutil

import (
	"context"
	"time"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
)

// RuntimeAdapter provides a common interface over the direct and actor-driven
// hosting of an instance, so one scenario can run against both.
type RuntimeAdapter interface {
	Start(ctx context.Context) error
	Stop() error
	SendEvent(event primitives.Event) error
	IsInState(id string) bool
	Active() []string
	WaitForStability(timeout time.Duration) error
}

// DirectAdapter drives an Instance on the caller's goroutine.
type DirectAdapter struct {
	def  *core.Definition
	opts []core.Option
	inst *core.Instance
}

// NewDirectAdapter creates an adapter that starts def with opts.
func NewDirectAdapter(def *core.Definition, opts ...core.Option) *DirectAdapter {
	return &DirectAdapter{def: def, opts: opts}
}

func (a *DirectAdapter) Start(ctx context.Context) error {
	inst, err := core.Start(a.def, a.opts...)
	a.inst = inst
	return err
}

func (a *DirectAdapter) Stop() error {
	return a.inst.Stop()
}

func (a *DirectAdapter) SendEvent(event primitives.Event) error {
	return a.inst.Send(event)
}

func (a *DirectAdapter) IsInState(id string) bool {
	return a.inst.Snapshot().IsActive(id)
}

func (a *DirectAdapter) Active() []string {
	return a.inst.Snapshot().Active
}

func (a *DirectAdapter) WaitForStability(timeout time.Duration) error {
	// Send returns after the cycle completes.
	return nil
}

// ActorAdapter drives an Instance through an Actor.
type ActorAdapter struct {
	def   *core.Definition
	opts  []core.Option
	actor *core.Actor
}

// NewActorAdapter creates an adapter that starts def with opts behind an
// Actor.
func NewActorAdapter(def *core.Definition, opts ...core.Option) *ActorAdapter {
	return &ActorAdapter{def: def, opts: opts}
}

func (a *ActorAdapter) Start(ctx context.Context) error {
	inst, err := core.Start(a.def, a.opts...)
	if err != nil {
		return err
	}
	a.actor = core.NewActor(inst)
	a.actor.Start()
	return nil
}

func (a *ActorAdapter) Stop() error {
	return a.actor.Stop()
}

func (a *ActorAdapter) SendEvent(event primitives.Event) error {
	return a.actor.Send(event)
}

func (a *ActorAdapter) IsInState(id string) bool {
	return a.actor.Instance().Snapshot().IsActive(id)
}

func (a *ActorAdapter) Active() []string {
	return a.actor.Instance().Snapshot().Active
}

// WaitForStability waits until every event queued so far has been processed.
func (a *ActorAdapter) WaitForStability(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	// A synchronous no-op event queues behind the pending ones; it enables
	// nothing unless the chart handles it.
	return a.actor.SendWait(ctx, primitives.NewEvent(BarrierEvent, nil))
}

// BarrierEvent is sent by ActorAdapter.WaitForStability.
const BarrierEvent = "testutil.barrier"
