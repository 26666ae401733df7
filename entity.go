package ripple

import (
	"context"
	"sync"
)

// Entity is implemented by every value that participates in cascade
// traversal. Entities are addressed by handle: the same logical entity must
// be represented by the same comparable value (typically a pointer to a
// struct) everywhere it appears in the in-memory graph.
type Entity interface {
	// TypeName returns the schema type name of the entity, matching the
	// name of a schema passed to graph.Build.
	TypeName() string
}

// Identity is a stable entity identity assigned by the persistence
// collaborator on first successful save.
type Identity string

// Persister is the persistence collaborator. Both calls are assumed to run
// inside an ambient transaction or session managed by the caller; the engine
// invokes them synchronously in traversal order and never retries.
type Persister interface {
	// Save persists the entity and returns its identity. Saving an
	// already-persistent entity is idempotent and returns the identity
	// assigned on first save.
	Save(ctx context.Context, e Entity) (Identity, error)
	// Delete removes the entity from storage.
	Delete(ctx context.Context, e Entity) error
}

// IdentityMap tracks the persistence lifecycle of entities: transient
// entities have no entry, persistent entities map to their assigned
// identity. It is an explicit side-table keyed by entity handle rather than
// ambient session state, so concurrent cascades over disjoint subgraphs
// stay independently testable. All methods are safe for concurrent use.
type IdentityMap struct {
	mu      sync.RWMutex
	ids     map[Entity]Identity
	removed map[Entity]bool
}

// NewIdentityMap returns an empty identity map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		ids:     make(map[Entity]Identity),
		removed: make(map[Entity]bool),
	}
}

// Lookup returns the identity assigned to the entity, if any.
func (m *IdentityMap) Lookup(e Entity) (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.ids[e]
	return id, ok
}

// Persistent reports whether the entity has an assigned identity and has
// not been removed.
func (m *IdentityMap) Persistent(e Entity) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[e]
	return ok && !m.removed[e]
}

// Transient reports whether the entity has no assigned identity.
func (m *IdentityMap) Transient(e Entity) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[e]
	return !ok
}

// Assign records the identity of the entity. An identity, once assigned,
// never changes: assigning a different identity to the same entity returns
// ErrIdentityReassigned. Re-assigning the same identity is a no-op and
// clears a previous removal mark.
func (m *IdentityMap) Assign(e Entity, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.ids[e]; ok && prev != id {
		return ErrIdentityReassigned
	}
	m.ids[e] = id
	delete(m.removed, e)
	return nil
}

// MarkRemoved records that the entity was logically destroyed by a delete
// operation. The identity mapping is kept so the identity can never be
// reassigned.
func (m *IdentityMap) MarkRemoved(e Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[e]; ok {
		m.removed[e] = true
	}
}

// Removed reports whether the entity was logically destroyed.
func (m *IdentityMap) Removed(e Entity) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.removed[e]
}

// Len returns the number of entities with an assigned identity.
func (m *IdentityMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}
