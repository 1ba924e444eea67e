package production

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/primitives"
)

// Metadata describes where a published event happened.
type Metadata struct {
	InstanceID   string    `json:"instanceID" yaml:"instanceID"`
	DefinitionID string    `json:"definitionID" yaml:"definitionID"`
	Step         uint64    `json:"step" yaml:"step"`
	Transitions  []string  `json:"transitions,omitempty" yaml:"transitions,omitempty"` // "source->target,..." per fired transition
	Active       []string  `json:"active" yaml:"active"`
	Status       string    `json:"status" yaml:"status"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
}

// PublishedEvent bundles an event with its instance metadata for publishing.
type PublishedEvent struct {
	Event    primitives.Event
	Metadata Metadata
}

// ChannelPublisher is a core.Observer forwarding every event microstep to a
// Go channel. Publishing never blocks the instance: when the channel is full
// the event is dropped and counted.
type ChannelPublisher struct {
	mu      sync.RWMutex
	ch      chan<- PublishedEvent
	closed  bool
	dropped atomic.Uint64
}

var _ core.Observer = (*ChannelPublisher)(nil)

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- PublishedEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// OnMicrostep publishes steps caused by events; start and stop are skipped.
func (p *ChannelPublisher) OnMicrostep(step core.Microstep) {
	if step.Kind != core.StepEvent {
		return
	}
	_ = p.Publish(context.Background(), step.Event, metadataOf(step))
}

// Publish sends one event. It returns ctx.Err() if ctx is done and drops the
// event silently when the channel is full or closed.
func (p *ChannelPublisher) Publish(ctx context.Context, event primitives.Event, metadata Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return nil
	}
	select {
	case p.ch <- PublishedEvent{Event: event, Metadata: metadata}:
	default:
		p.dropped.Add(1)
	}
	return nil
}

// Dropped reports events lost to backpressure or after Close.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped.Load() }

// Close closes the output channel. It is idempotent.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

func metadataOf(step core.Microstep) Metadata {
	md := Metadata{
		InstanceID:   step.InstanceID,
		DefinitionID: step.DefinitionID,
		Step:         step.Seq,
		Active:       step.Active,
		Status:       string(step.Status),
		Timestamp:    time.Now().UTC(),
	}
	for _, t := range step.Transitions {
		md.Transitions = append(md.Transitions, t.Source+"->"+joinTargets(t.Targets))
	}
	return md
}

func joinTargets(ts []string) string {
	switch len(ts) {
	case 0:
		return "(internal)"
	case 1:
		return ts[0]
	}
	out := ts[0]
	for _, t := range ts[1:] {
		out += "," + t
	}
	return out
}
