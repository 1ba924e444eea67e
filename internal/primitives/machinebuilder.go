package primitives

// MachineBuilder builds hierarchical MachineConfig fluently.
//
//	b := NewMachineBuilder("door", "root")
//	b.Root().Atomic("closed").Transition("open", "opened").Up().
//		Atomic("opened").Transition("close", "closed")
//	cfg, err := b.Build()
type MachineBuilder struct {
	config *MachineConfig
	root   *StateBuilder
}

// NewMachineBuilder creates a new MachineBuilder whose root is a compound
// state named rootID.
func NewMachineBuilder(id, rootID string) *MachineBuilder {
	root := NewStateConfig(rootID, Compound)
	b := &MachineBuilder{config: &MachineConfig{ID: id, Root: root}}
	b.root = &StateBuilder{state: root, mb: b}
	return b
}

// WithVersion pins the machine version instead of the computed content hash.
func (b *MachineBuilder) WithVersion(v string) *MachineBuilder {
	b.config.Version = v
	return b
}

// Root returns the builder of the root state.
func (b *MachineBuilder) Root() *StateBuilder {
	return b.root
}

// Orthogonal turns the root into an orthogonal state.
func (b *MachineBuilder) Orthogonal() *StateBuilder {
	b.root.state.Type = Orthogonal
	return b.root
}

// Build validates and returns the config.
func (b *MachineBuilder) Build() (MachineConfig, error) {
	if err := b.config.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return *b.config, nil
}

// MustBuild is Build for configs known to be valid, such as literals in
// examples and tests.
func (b *MachineBuilder) MustBuild() MachineConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

// StateBuilder for fluent transitions/nesting.
type StateBuilder struct {
	state  *StateConfig
	parent *StateBuilder
	mb     *MachineBuilder
}

func (sb *StateBuilder) child(id string, typ StateType) *StateBuilder {
	c := sb.state.State(id, typ)
	return &StateBuilder{state: c, parent: sb, mb: sb.mb}
}

// Config exposes the state being built.
func (sb *StateBuilder) Config() *StateConfig {
	return sb.state
}

// Compound nests a compound child and returns its builder.
func (sb *StateBuilder) Compound(id string) *StateBuilder {
	return sb.child(id, Compound)
}

// Orthogonal nests an orthogonal child and returns its builder.
func (sb *StateBuilder) Orthogonal(id string) *StateBuilder {
	return sb.child(id, Orthogonal)
}

// Atomic nests an atomic child and returns its builder.
func (sb *StateBuilder) Atomic(id string) *StateBuilder {
	return sb.child(id, Atomic)
}

// Final nests a final child and returns its builder.
func (sb *StateBuilder) Final(id string) *StateBuilder {
	return sb.child(id, Final)
}

// Transition adds a transition to the current state.
func (sb *StateBuilder) Transition(event, target string, opts ...TransitionConfig) *StateBuilder {
	sb.state.Transition(event, target, opts...)
	return sb
}

// OnEntry adds entry actions to the current state.
func (sb *StateBuilder) OnEntry(actions ...ActionRef) *StateBuilder {
	sb.state.OnEntry(actions...)
	return sb
}

// OnExit adds exit actions to the current state.
func (sb *StateBuilder) OnExit(actions ...ActionRef) *StateBuilder {
	sb.state.OnExit(actions...)
	return sb
}

// WithHandlers adds state handlers to the current state.
func (sb *StateBuilder) WithHandlers(handlers ...HandlerRef) *StateBuilder {
	sb.state.WithHandlers(handlers...)
	return sb
}

// WithInitial sets the default entry target of the current state.
func (sb *StateBuilder) WithInitial(initial string, actions ...ActionRef) *StateBuilder {
	sb.state.WithInitial(initial)
	sb.state.WithInitialActions(actions...)
	return sb
}

// WithHistory sets the history mode of the current state.
func (sb *StateBuilder) WithHistory(h HistoryType) *StateBuilder {
	sb.state.WithHistory(h)
	return sb
}

// Up returns the builder of the enclosing state. On the root it returns the
// root.
func (sb *StateBuilder) Up() *StateBuilder {
	if sb.parent == nil {
		return sb
	}
	return sb.parent
}

// Build finishes the whole machine from any nested builder.
func (sb *StateBuilder) Build() (MachineConfig, error) {
	return sb.mb.Build()
}
