// Package rel provides fluent builders for declaring entity relationships.
//
// Relationships are directed: each declared side is one direction of an
// association, and cascade policies are resolved per direction.
//
// # Sides
//
// There are two primary side kinds:
//
//   - rel.To: the association (forward) side
//   - rel.From: the back-reference (inverse) side, linked with Ref
//
// # Multiplicity
//
// Multiplicity follows from the Unique() modifier on each side:
//
//	// One-to-Many (default): Airport has many Flights
//	rel.To("flights", Flight.Type)
//
//	// Many-to-One: Flight belongs to an Airport
//	rel.From("airport", Airport.Type).Ref("flights").Unique()
//
//	// One-to-One: both sides unique
//	// Many-to-Many: neither side unique
//
// A collection declaration is implicit: every non-unique side holds a
// collection of the referenced type. The UniqueConstraint modifier converts
// a many-to-one side into a de facto one-to-one.
//
// # Ownership
//
// The side of a relationship that owns it controls cascade propagation
// toward the other side. Ownership is declared by the dependent side,
// naming the owning type:
//
//	rel.From("airport", Airport.Type).
//		Ref("flights").
//		Unique().
//		Owner()	// Airport owns the relationship
//
// Without a declaration, the collection-holding side is treated as the
// owner for save/update propagation.
//
// # Overrides
//
// An explicit cascade override replaces the derived default for one
// direction only:
//
//	rel.To("flights", Flight.Type).
//		Cascade(rel.SaveUpdate)	// propagate save/update, never delete
//
// Valid override values are rel.All, rel.SaveUpdate and rel.None.
package rel
