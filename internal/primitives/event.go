// Event provides the immutable event primitive for statechart transitions.
//
// Events are value types. Once created, an Event should not be mutated; the
// Data payload is shared with every guard and action that sees the event.
//
// Event names are dot separated segments ("door.open"). The hierarchy is used
// by prefix patterns such as "door.*".
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// DonePrefix starts the name of every completion event raised when a
// composite or orthogonal state reaches a final configuration.
const DonePrefix = "done.state."

type Event struct {
	Type string
	Data any
}

// NewEvent creates and returns a new immutable Event.
func NewEvent(eventType string, data any) Event {
	return Event{
		Type: eventType,
		Data: data,
	}
}

// DoneEvent returns the completion event name for a state.
func DoneEvent(stateID string) string {
	return DonePrefix + stateID
}

// ValidateEventName checks that name is a dot separated list of non-empty
// segments without whitespace or wildcards.
func ValidateEventName(name string) error {
	if name == "" {
		return errors.New("event name is empty")
	}
	if strings.ContainsAny(name, "*") {
		return fmt.Errorf("event name %q contains a wildcard", name)
	}
	return validateSegments(name)
}

func validateSegments(name string) error {
	for i, seg := range strings.Split(name, ".") {
		if seg == "" {
			return fmt.Errorf("event name %q: empty segment at index %d", name, i)
		}
		if strings.IndexFunc(seg, isSpace) >= 0 {
			return fmt.Errorf("event name %q: whitespace in segment %q", name, seg)
		}
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
