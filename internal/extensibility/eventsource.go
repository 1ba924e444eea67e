package extensibility

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
)

var (
	_ core.EventSource = (*ChannelEventSource)(nil)
	_ core.EventSource = (*TimerEventSource)(nil)
)

// ChannelEventSource is an EventSource implementation backed by a Go channel.
// Provides a simple way to feed external events into an Actor.
type ChannelEventSource struct {
	ch   chan primitives.Event
	once sync.Once
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Emit sends evt, blocking while the channel is full.
func (s *ChannelEventSource) Emit(evt primitives.Event) {
	s.ch <- evt
}

// Close closes the channel, which ends the actor's forwarder. It is
// idempotent. Emit after Close panics.
func (s *ChannelEventSource) Close() {
	s.once.Do(func() { close(s.ch) })
}

// TimerEventSource generates periodic events using time.Ticker.
// Useful for timeout/heartbeat statecharts.
type TimerEventSource struct {
	ch        chan primitives.Event
	eventType string
	data      any
	ticker    *time.Ticker
	stop      chan struct{}
	once      sync.Once
	dropped   atomic.Uint64
}

// NewTimerEventSource creates a TimerEventSource that emits events every d duration.
func NewTimerEventSource(eventType string, data any, d time.Duration) *TimerEventSource {
	t := &TimerEventSource{
		ch:        make(chan primitives.Event, 10),
		eventType: eventType,
		data:      data,
		ticker:    time.NewTicker(d),
		stop:      make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	defer close(t.ch)
	defer t.ticker.Stop()
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- primitives.NewEvent(t.eventType, t.data):
			default:
				t.dropped.Add(1)
			}
		case <-t.stop:
			return
		}
	}
}

// Events returns the event channel.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Dropped reports ticks lost because the channel was full.
func (t *TimerEventSource) Dropped() uint64 {
	return t.dropped.Load()
}

// Stop stops the ticker and closes the channel. It is idempotent.
func (t *TimerEventSource) Stop() {
	t.once.Do(func() { close(t.stop) })
}
