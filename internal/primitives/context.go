// Context is the extended state of one running chart: a name to value map
// mutated by actions and read by guards.
//
//go:generate go test ./... -race
package primitives

import "sync"

// ContextView is the read-only face of a Context handed to guards.
type ContextView interface {
	Get(key string) (any, bool)
	Snapshot() map[string]any
}

// Context is a thread-safe key-value store using sync.Map for concurrent access.
// Snapshot/Restore iterate the map for serialization.
type Context struct {
	data sync.Map
}

var _ ContextView = (*Context)(nil)

// NewContext creates a new Context with an empty map.
func NewContext() *Context {
	return &Context{}
}

// NewContextFrom creates a Context seeded with a copy of values.
func NewContextFrom(values map[string]any) *Context {
	c := NewContext()
	for k, v := range values {
		c.data.Store(k, v)
	}
	return c
}

// Get retrieves a value by key. Safe for concurrent reads.
func (c *Context) Get(key string) (any, bool) {
	return c.data.Load(key)
}

// Set stores a value by key.
func (c *Context) Set(key string, val any) {
	c.data.Store(key, val)
}

// Delete removes a key-value pair.
func (c *Context) Delete(key string) {
	c.data.Delete(key)
}

// Len reports the number of keys.
func (c *Context) Len() int {
	n := 0
	c.data.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Snapshot returns a serializable copy of the context data for persistence.
func (c *Context) Snapshot() map[string]any {
	snap := map[string]any{}
	c.data.Range(func(k, v any) bool {
		snap[k.(string)] = v
		return true
	})
	return snap
}

// Restore replaces the context data from a snapshot map.
func (c *Context) Restore(snap map[string]any) {
	c.Clear()
	for k, v := range snap {
		c.data.Store(k, v)
	}
}

// Clear removes every key.
func (c *Context) Clear() {
	c.data.Range(func(k, _ any) bool {
		c.data.Delete(k)
		return true
	})
}
