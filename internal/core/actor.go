package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	clog "github.com/comalice/chartkit/internal/log"
	"github.com/comalice/chartkit/internal/primitives"
)

// DefaultQueueSize is the buffer of an Actor's external event queue.
const DefaultQueueSize = 1000

// EventSource feeds external events into an Actor until its channel closes.
type EventSource interface {
	Events() <-chan primitives.Event
}

// ErrActorClosed is returned by sends to an Actor that has been stopped.
var ErrActorClosed = errors.New("actor stopped")

// Actor owns an Instance on a single goroutine and serializes external
// events from any number of senders through a buffered queue.
type Actor struct {
	inst   *Instance
	source EventSource
	queue  chan request
	done   chan struct{}
	exited chan struct{}

	// mu orders enqueues against Stop: once closed is set nothing more
	// reaches the queue, so the final drain sees every accepted request.
	mu     sync.RWMutex
	closed bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopErr   error
}

type request struct {
	evt   primitives.Event
	reply chan error // nil for fire-and-forget
}

// ActorOption configures an Actor.
type ActorOption func(*actorOptions)

type actorOptions struct {
	queueSize int
	source    EventSource
}

// WithQueueSize sets the external queue buffer. Values below 1 keep the
// default.
func WithQueueSize(n int) ActorOption {
	return func(o *actorOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithEventSource forwards every event of src to the actor.
func WithEventSource(src EventSource) ActorOption {
	return func(o *actorOptions) {
		o.source = src
	}
}

// NewActor wraps inst. Call Start to launch the event loop.
func NewActor(inst *Instance, opts ...ActorOption) *Actor {
	o := actorOptions{queueSize: DefaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Actor{
		inst:   inst,
		source: o.source,
		queue:  make(chan request, o.queueSize),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Instance returns the wrapped instance. Snapshot and Status are safe to call
// on it while the actor runs; Send is not.
func (a *Actor) Instance() *Instance { return a.inst }

// Start launches the event loop and the event source forwarder. It is
// idempotent.
func (a *Actor) Start() {
	a.startOnce.Do(func() {
		go a.loop()
		if a.source != nil {
			go a.forward()
		}
	})
}

func (a *Actor) loop() {
	defer close(a.exited)
	for {
		select {
		case req := <-a.queue:
			a.handle(req)
		case <-a.done:
			// Drain what was accepted before Stop.
			for {
				select {
				case req := <-a.queue:
					a.handle(req)
				default:
					return
				}
			}
		}
	}
}

func (a *Actor) handle(req request) {
	err := a.inst.Send(req.evt)
	if err != nil && req.reply == nil {
		a.inst.log.Warn().Err(err).Str(clog.FieldEvent, req.evt.Type).Msg("actor event rejected")
	}
	if req.reply != nil {
		req.reply <- err
	}
}

func (a *Actor) forward() {
	events := a.source.Events()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := a.Send(evt); err != nil {
				a.inst.log.Warn().Err(err).Str(clog.FieldEvent, evt.Type).Msg("event source dropped event")
			}
		case <-a.done:
			return
		}
	}
}

// Send enqueues evt without waiting. A full queue yields ErrQueueFull.
func (a *Actor) Send(evt primitives.Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrActorClosed
	}
	select {
	case a.queue <- request{evt: evt}:
		return nil
	default:
		return fmt.Errorf("send %q: %w", evt.Type, ErrQueueFull)
	}
}

// SendWait enqueues evt and waits for its run-to-completion cycle, returning
// the instance's result.
func (a *Actor) SendWait(ctx context.Context, evt primitives.Event) error {
	reply := make(chan error, 1)
	if err := a.enqueue(ctx, request{evt: evt, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue blocks until req is queued. The loop keeps draining while a sender
// waits here, so Stop cannot be held off for long.
func (a *Actor) enqueue(ctx context.Context, req request) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrActorClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case a.queue <- req:
		return nil
	}
}

// Stop processes the events already queued, stops the instance and waits for
// the loop to exit. Further calls return the first result.
func (a *Actor) Stop() error {
	a.stopOnce.Do(func() {
		a.Start()
		a.mu.Lock()
		a.closed = true
		close(a.done)
		a.mu.Unlock()
		<-a.exited
		a.stopErr = a.inst.Stop()
		if errors.Is(a.stopErr, ErrStopped) {
			a.stopErr = nil
		}
	})
	return a.stopErr
}
