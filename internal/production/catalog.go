package production

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/comalice/chartkit/internal/core"
)

var (
	ErrNotFound = errors.New("definition or version not found")
	ErrExists   = errors.New("version already exists")
)

// CatalogEntry is one registered version of a definition.
type CatalogEntry struct {
	Definition *core.Definition
	Source     string // file path or other origin, informational
	Added      time.Time
}

// Catalog keeps every registered version of every definition. Running
// instances hold their own *core.Definition, so registering a new version
// never affects them.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string][]CatalogEntry // oldest first
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string][]CatalogEntry)}
}

// Register adds def under its ID and version.
func (c *Catalog) Register(def *core.Definition, source string) error {
	if def == nil {
		return errors.New("nil definition")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries[def.ID()] {
		if e.Definition.Version() == def.Version() {
			return fmt.Errorf("%s@%s: %w", def.ID(), def.Version(), ErrExists)
		}
	}
	c.entries[def.ID()] = append(c.entries[def.ID()], CatalogEntry{
		Definition: def,
		Source:     source,
		Added:      time.Now(),
	})
	return nil
}

// Latest returns the most recently registered version of id.
func (c *Catalog) Latest(id string) (*core.Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	es := c.entries[id]
	if len(es) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return es[len(es)-1].Definition, nil
}

// Version returns a specific version of id.
func (c *Catalog) Version(id, version string) (*core.Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries[id] {
		if e.Definition.Version() == version {
			return e.Definition, nil
		}
	}
	return nil, fmt.Errorf("%s@%s: %w", id, version, ErrNotFound)
}

// ForSnapshot returns the definition a snapshot was taken on.
func (c *Catalog) ForSnapshot(snap core.Snapshot) (*core.Definition, error) {
	return c.Version(snap.DefinitionID, snap.Version)
}

// ListVersions returns the versions of id, newest first.
func (c *Catalog) ListVersions(id string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	es := c.entries[id]
	if len(es) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	out := make([]string, len(es))
	for i, e := range es {
		out[len(es)-1-i] = e.Definition.Version()
	}
	return out, nil
}

// Entries returns the registered versions of id, oldest first.
func (c *Catalog) Entries(id string) []CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]CatalogEntry(nil), c.entries[id]...)
}

// ListDefinitions returns all definition IDs, sorted.
func (c *Catalog) ListDefinitions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
