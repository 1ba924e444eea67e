// Package primitives provides the authoring data structures for the
// statechart engine: state and transition configs, machine documents,
// events, event patterns and the extended context.
//
// Nothing here executes a chart. Configs are plain values with json and yaml
// tags so external tooling can produce them; internal/core compiles them into
// an immutable Definition.
//
// Core invariants:
//   - Events are values and never mutated after construction
//   - Context is safe for concurrent access
//   - Transition order inside a state is declaration order
package primitives
