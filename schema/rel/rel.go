package rel

import (
	"errors"
	"reflect"
)

// Cascade is an explicit cascade override declared on one direction of a
// relationship. An override replaces only the direction it is declared on;
// the opposite direction keeps its derived or separately-overridden value.
type Cascade uint8

const (
	// Unset means no override was declared; the derived default applies.
	Unset Cascade = iota
	// None fully suppresses cascading in the direction, even if ownership
	// is declared.
	None
	// SaveUpdate propagates save and update, but not delete.
	SaveUpdate
	// All propagates save, update and delete.
	All
)

// String returns the textual representation of the override.
func (c Cascade) String() string {
	switch c {
	case Unset:
		return "UNSET"
	case None:
		return "NONE"
	case SaveUpdate:
		return "SAVE_UPDATE"
	case All:
		return "ALL"
	default:
		return "CASCADE(?)"
	}
}

// Descriptor holds one declared side of a relationship: a directed edge
// from the declaring type toward the referenced type, attributed with
// multiplicity, ownership and cascade information.
type Descriptor struct {
	Name            string      // Relationship name
	Type            string      // Referenced type name
	Tag             string      // Struct tag of the backing field
	Field           string      // Name of the backing struct field, if bound explicitly
	RefName         string      // Name of the assoc side this inverse refers to
	Ref             *Descriptor // Assoc side of a chained bidirectional declaration
	Unique          bool        // Side references at most one entity (single-valued)
	Inverse         bool        // Side is the back-reference (From) side
	Required        bool        // Reference is non-nullable
	Owner           string      // Declared owner type name, empty if undeclared
	ConstrainUnique bool        // Uniqueness constraint (many-to-one becomes de facto one-to-one)
	Override        Cascade     // Explicit cascade override for this direction
	Comment         string      // Optional comment
	Err             error       // Builder error, surfaced at model-build time
}

// To defines an association relationship (forward direction) with the given
// name to the given type:
//
//	rel.To("flights", Flight.Type)
//
// By default the side is collection-valued (one-to-many); mark it Unique
// for a single-valued reference.
func To(name string, t any) *assocBuilder {
	return &assocBuilder{desc: newDescriptor(name, t, false)}
}

// From defines a back-reference relationship (inverse direction) with the
// given name to the given type. Inverse sides are linked to their assoc
// side with Ref:
//
//	rel.From("airport", Airport.Type).
//		Ref("flights").
//		Unique()
func From(name string, t any) *inverseBuilder {
	return &inverseBuilder{desc: newDescriptor(name, t, true)}
}

func newDescriptor(name string, t any, inverse bool) *Descriptor {
	d := &Descriptor{Name: name, Inverse: inverse}
	if name == "" {
		d.Err = errors.New("rel: relationship name cannot be empty")
	}
	typ, err := typeName(t)
	if err != nil && d.Err == nil {
		d.Err = err
	}
	d.Type = typ
	return d
}

// typeName extracts the schema type name from a schema value, a pointer to
// one, or the Type method expression (e.g. Flight.Type).
func typeName(t any) (string, error) {
	rt := reflect.TypeOf(t)
	if rt == nil {
		return "", errors.New("rel: nil relationship type")
	}
	if rt.Kind() == reflect.Func {
		if rt.NumIn() == 0 {
			return "", errors.New("rel: invalid relationship type function")
		}
		rt = rt.In(0)
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Name() == "" {
		return "", errors.New("rel: unnamed relationship type")
	}
	return rt.Name(), nil
}

// assocBuilder is the builder for assoc (forward) relationships.
type assocBuilder struct {
	desc *Descriptor
}

// Unique marks the side as single-valued: it references at most one entity.
func (b *assocBuilder) Unique() *assocBuilder {
	b.desc.Unique = true
	return b
}

// Required marks the reference as non-nullable. Saving an entity whose
// required reference points at a transient entity fails unless the cascade
// policy covers save in that direction.
func (b *assocBuilder) Required() *assocBuilder {
	b.desc.Required = true
	return b
}

// Field binds the relationship to the named struct field of the entity.
func (b *assocBuilder) Field(name string) *assocBuilder {
	b.desc.Field = name
	return b
}

// StructTag sets the struct tag of the backing field.
func (b *assocBuilder) StructTag(tag string) *assocBuilder {
	b.desc.Tag = tag
	return b
}

// Comment sets the relationship comment.
func (b *assocBuilder) Comment(c string) *assocBuilder {
	b.desc.Comment = c
	return b
}

// OwnedBy declares the owner of the relationship. The named type must be
// one of the two related types; model build fails otherwise.
func (b *assocBuilder) OwnedBy(t any) *assocBuilder {
	b.setOwner(t)
	return b
}

// Owner declares the referenced type as the owner of the relationship.
// Shorthand for OwnedBy(<referenced type>), the usual belongs-to form.
func (b *assocBuilder) Owner() *assocBuilder {
	b.desc.Owner = b.desc.Type
	return b
}

// UniqueConstraint applies a uniqueness constraint to the reference,
// converting a many-to-one association into a de facto one-to-one. Valid
// only on single-valued many-to-one sides; model build fails otherwise.
func (b *assocBuilder) UniqueConstraint() *assocBuilder {
	b.desc.ConstrainUnique = true
	return b
}

// Cascade declares an explicit cascade override for this direction.
func (b *assocBuilder) Cascade(c Cascade) *assocBuilder {
	b.desc.Override = c
	return b
}

// From creates an inverse side to the assoc side in one declaration. Used
// for relationships between a type and itself:
//
//	rel.To("children", Category.Type).
//		From("parent").
//		Unique()
func (b *assocBuilder) From(name string) *inverseBuilder {
	desc := &Descriptor{
		Name:    name,
		Type:    b.desc.Type,
		Inverse: true,
		Ref:     b.desc,
		RefName: b.desc.Name,
		Err:     b.desc.Err,
	}
	if name == "" && desc.Err == nil {
		desc.Err = errors.New("rel: relationship name cannot be empty")
	}
	return &inverseBuilder{desc: desc}
}

func (b *assocBuilder) setOwner(t any) {
	name, err := typeName(t)
	if err != nil && b.desc.Err == nil {
		b.desc.Err = err
		return
	}
	b.desc.Owner = name
}

// Descriptor returns the descriptor of the relationship side.
func (b *assocBuilder) Descriptor() *Descriptor { return b.desc }

// inverseBuilder is the builder for inverse (back-reference) relationships.
type inverseBuilder struct {
	desc *Descriptor
}

// Ref names the assoc side on the referenced type this back-reference
// belongs to.
func (b *inverseBuilder) Ref(name string) *inverseBuilder {
	b.desc.RefName = name
	return b
}

// Unique marks the side as single-valued: it references at most one entity.
func (b *inverseBuilder) Unique() *inverseBuilder {
	b.desc.Unique = true
	return b
}

// Required marks the reference as non-nullable.
func (b *inverseBuilder) Required() *inverseBuilder {
	b.desc.Required = true
	return b
}

// Field binds the relationship to the named struct field of the entity.
func (b *inverseBuilder) Field(name string) *inverseBuilder {
	b.desc.Field = name
	return b
}

// StructTag sets the struct tag of the backing field.
func (b *inverseBuilder) StructTag(tag string) *inverseBuilder {
	b.desc.Tag = tag
	return b
}

// Comment sets the relationship comment.
func (b *inverseBuilder) Comment(c string) *inverseBuilder {
	b.desc.Comment = c
	return b
}

// OwnedBy declares the owner of the relationship. The named type must be
// one of the two related types; model build fails otherwise.
func (b *inverseBuilder) OwnedBy(t any) *inverseBuilder {
	name, err := typeName(t)
	if err != nil && b.desc.Err == nil {
		b.desc.Err = err
		return b
	}
	b.desc.Owner = name
	return b
}

// Owner declares the referenced type as the owner of the relationship.
// Shorthand for OwnedBy(<referenced type>), the usual belongs-to form.
func (b *inverseBuilder) Owner() *inverseBuilder {
	b.desc.Owner = b.desc.Type
	return b
}

// UniqueConstraint applies a uniqueness constraint to the reference,
// converting a many-to-one association into a de facto one-to-one.
func (b *inverseBuilder) UniqueConstraint() *inverseBuilder {
	b.desc.ConstrainUnique = true
	return b
}

// Cascade declares an explicit cascade override for this direction.
func (b *inverseBuilder) Cascade(c Cascade) *inverseBuilder {
	b.desc.Override = c
	return b
}

// Descriptor returns the descriptor of the relationship side.
func (b *inverseBuilder) Descriptor() *Descriptor { return b.desc }
