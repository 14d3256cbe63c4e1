package persistence

import (
	"fmt"
)

// State is the lifecycle state of an entity handle.
type State int

const (
	// Transient handles have never been associated with a session.
	Transient State = iota
	// Managed handles are tracked by a session; changes are written at flush.
	Managed
	// Removed handles are managed and scheduled for deletion at the next flush.
	Removed
	// Detached handles were managed by a session that no longer tracks them.
	Detached
)

func (s State) String() string {
	switch s {
	case Transient:
		return "transient"
	case Managed:
		return "managed"
	case Removed:
		return "removed"
	case Detached:
		return "detached"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Handle wraps an entity together with its lifecycle state. Session operations are
// the only way a handle changes state.
type Handle[E any] struct {
	entity *E
	state  State
	owner  *Session
}

// NewTransient wraps a new entity in a transient handle.
func NewTransient[E any](entity *E) *Handle[E] {
	return &Handle[E]{entity: entity, state: Transient}
}

// Entity returns the wrapped entity. Mutating a managed entity is how updates are made.
func (h *Handle[E]) Entity() *E {
	return h.entity
}

// State returns the lifecycle state.
func (h *Handle[E]) State() State {
	return h.state
}

func (h *Handle[E]) String() string {
	return fmt.Sprintf("%v (%s)", h.entity, h.state)
}

func (h *Handle[E]) transition(to State, owner *Session) {
	h.state = to
	h.owner = owner
}

func (h *Handle[E]) managedBy(s *Session) bool {
	return h.owner == s && (h.state == Managed || h.state == Removed)
}

// lifecycle is the type-erased view of a handle kept in the persistence context.
type lifecycle interface {
	transition(to State, owner *Session)
}
