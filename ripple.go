// Package ripple resolves and executes cascade propagation over
// object-relational entity graphs.
//
// Given a set of schema declarations describing how entity types relate to
// each other (multiplicity, ownership, explicit overrides), ripple derives
// which side of every relationship owns it, assigns each direction a cascade
// policy, and propagates save, update and delete operations transitively
// across an in-memory object graph that may contain cycles.
//
// The package split follows the usual layering:
//
//   - ripple (this package): operations, policies, entity lifecycle
//     tracking, collaborator interfaces, and the error taxonomy.
//   - schema/rel: fluent builders for declaring relationships.
//   - graph: the built relationship model, ownership resolution and the
//     policy table.
//   - cascade: the executor driving one root operation across the graph.
//   - store: a reference persistence collaborator on top of database/sql.
package ripple

import "github.com/syssam/ripple/schema/rel"

// Op is a cascade operation. Ops are bit flags so that policies can be
// expressed as op-sets.
type Op uint8

// Cascade operations.
const (
	OpSave Op = 1 << iota
	OpUpdate
	OpDelete
)

// Is reports whether op includes the given operation flag.
func (op Op) Is(o Op) bool { return op&o != 0 }

// String returns the textual representation of the operation.
func (op Op) String() string {
	switch op {
	case OpSave:
		return "OpSave"
	case OpUpdate:
		return "OpUpdate"
	case OpDelete:
		return "OpDelete"
	default:
		return "Op(?)"
	}
}

// Direction identifies one of the two resolved directions of an association.
type Direction uint8

const (
	// OwnerToDependent is the direction from the owning side toward the
	// dependent side.
	OwnerToDependent Direction = iota
	// DependentToOwner is the direction from the dependent side back to
	// the owning side.
	DependentToOwner
)

// String returns the textual representation of the direction.
func (d Direction) String() string {
	switch d {
	case OwnerToDependent:
		return "owner_to_dependent"
	case DependentToOwner:
		return "dependent_to_owner"
	default:
		return "direction(?)"
	}
}

// Rel is the interface implemented by the relationship builders in the
// schema/rel package.
type Rel interface {
	Descriptor() *rel.Descriptor
}

// Interface is implemented by all schema definitions. Embed Schema to get
// the default implementations.
type Interface interface {
	// Rels returns the relationship declarations of the type.
	Rels() []Rel
}

// Schema is the default implementation of Interface. Entity schemas embed
// it and override the methods they need:
//
//	type Airport struct {
//		ripple.Schema
//	}
//
//	func (Airport) Rels() []ripple.Rel {
//		return []ripple.Rel{
//			rel.To("flights", Flight.Type),
//		}
//	}
type Schema struct{}

// Rels of the schema.
func (Schema) Rels() []Rel { return nil }

// Type is a no-op method whose method expression is used to reference the
// schema type in relationship declarations, e.g. rel.To("flights", Flight.Type).
func (Schema) Type() {}
