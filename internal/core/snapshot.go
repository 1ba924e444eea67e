package core

import (
	"maps"
	"slices"
	"time"
)

// Status is the lifecycle state of an Instance.
type Status string

const (
	StatusRunning  Status = "running"
	StatusDegraded Status = "degraded" // an action failed; configuration is partial
	StatusHalted   Status = "halted"   // loop bound or consistency failure; frozen
	StatusStopped  Status = "stopped"
)

// Snapshot is the serializable view of an instance after its last committed
// microstep.
type Snapshot struct {
	InstanceID   string              `json:"instanceID" yaml:"instanceID"`
	DefinitionID string              `json:"definitionID" yaml:"definitionID"`
	Version      string              `json:"version" yaml:"version"`
	Status       Status              `json:"status" yaml:"status"`
	Step         uint64              `json:"step" yaml:"step"`
	Active       []string            `json:"active" yaml:"active"`
	History      map[string][]string `json:"history,omitempty" yaml:"history,omitempty"`
	Context      map[string]any      `json:"context,omitempty" yaml:"context,omitempty"`
	Timestamp    time.Time           `json:"timestamp" yaml:"timestamp"`
}

// IsActive reports whether id is in the active configuration.
func (s Snapshot) IsActive(id string) bool {
	return slices.Contains(s.Active, id)
}

// Clone returns a copy sharing no slices or maps with s.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Active = slices.Clone(s.Active)
	if s.History != nil {
		c.History = make(map[string][]string, len(s.History))
		for k, v := range s.History {
			c.History[k] = slices.Clone(v)
		}
	}
	c.Context = maps.Clone(s.Context)
	return c
}
