package core

import "sync"

// HistoryManager records, per state with a history mode, the sub-configuration
// active when that state last exited.
// Shallow: the active children of the state.
// Deep: the active leaves below the state.
// The instance writes it during a microstep while Snapshot may read it, hence
// the lock.
type HistoryManager struct {
	mu      sync.RWMutex
	records map[StateIndex][]StateIndex
}

// NewHistoryManager creates a new HistoryManager.
func NewHistoryManager() *HistoryManager {
	return &HistoryManager{records: make(map[StateIndex][]StateIndex)}
}

// Record stores the sub-configuration of state, replacing any previous one.
func (h *HistoryManager) Record(state StateIndex, substates []StateIndex) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[state] = append([]StateIndex(nil), substates...)
}

// Restore returns the recorded sub-configuration of state, if any.
func (h *HistoryManager) Restore(state StateIndex) ([]StateIndex, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.records[state]
	if !ok || len(rec) == 0 {
		return nil, false
	}
	return rec, true
}

// Clear removes recorded history for the given state.
func (h *HistoryManager) Clear(state StateIndex) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.records, state)
}

// Reset removes all records.
func (h *HistoryManager) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.records)
}

// export renders the table with state IDs.
func (h *HistoryManager) export(def *Definition) map[string][]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.records) == 0 {
		return nil
	}
	out := make(map[string][]string, len(h.records))
	for s, rec := range h.records {
		out[def.states[s].id] = def.ids(rec)
	}
	return out
}

// recordExits snapshots the history of every state in exiting that keeps one. It
// must run before any of them is deactivated.
func (h *HistoryManager) recordExits(def *Definition, cfg *Configuration, exiting []StateIndex) {
	for _, s := range exiting {
		n := &def.states[s]
		var rec []StateIndex
		switch n.history {
		case HistoryNone:
			continue
		case HistoryShallow:
			for _, ch := range n.children {
				if cfg.IsActive(ch) {
					rec = append(rec, ch)
				}
			}
		case HistoryDeep:
			for d := s + 1; d <= n.end; d++ {
				if !cfg.IsActive(d) {
					continue
				}
				if k := def.states[d].kind; k == KindAtomic || k == KindFinal {
					rec = append(rec, d)
				}
			}
		}
		h.Record(s, rec)
	}
}
