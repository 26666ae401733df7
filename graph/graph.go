// Package graph builds the relationship model from schema declarations and
// resolves cascade ownership.
//
// Build validates the declarations, derives the multiplicity of every
// association from the Unique flags of its sides, determines which side owns
// each association, and populates the policy table consulted by the cascade
// executor. Resolution is pure and happens once at build time: identical
// declarations always yield identical policies.
package graph

import (
	"fmt"
	"reflect"

	"github.com/syssam/ripple"
	"github.com/syssam/ripple/schema/rel"
)

// RelType is the multiplicity of an association, relative to its assoc
// (forward declared) side.
type RelType int

// Association multiplicities.
const (
	O2O RelType = iota // one-to-one
	O2M                // one-to-many
	M2O                // many-to-one
	M2M                // many-to-many
)

// String returns the textual representation of the multiplicity.
func (r RelType) String() string {
	s := [...]string{"O2O", "O2M", "M2O", "M2M"}
	if r < O2O || r > M2M {
		return fmt.Sprintf("RelType(%d)", r)
	}
	return s[r]
}

type (
	// Graph is the built relationship model: all entity types, their
	// declared relationship sides, and the resolved associations.
	Graph struct {
		Types  []*Type
		Assocs []*Assoc
		types  map[string]*Type
	}

	// Type represents one entity type in the model.
	Type struct {
		// Name holds the schema type name.
		Name string
		// Table holds the derived storage name of the type.
		Table string
		// Rels holds the declared relationship sides of the type.
		Rels []*Rel
		rels map[string]*Rel
	}

	// Rel is one declared side of an association: a directed edge from
	// its source type toward the referenced type.
	Rel struct {
		def *rel.Descriptor
		// Name holds the relationship name.
		Name string
		// Source holds the declaring type.
		Source *Type
		// Type holds the referenced type.
		Type *Type
		// Unique indicates a single-valued side; non-unique sides hold
		// a collection of the referenced type.
		Unique bool
		// Required indicates a non-nullable reference.
		Required bool
		// Inverse indicates the back-reference side.
		Inverse bool
		// Override holds the explicit cascade override, if declared.
		Override rel.Cascade
		// Ref points to the paired opposite side, if the association
		// is bidirectional.
		Ref *Rel
		assoc *Assoc
	}

	// Assoc is one resolved association between two entity types. It has
	// one or two declared sides and exactly one resolved policy per
	// direction.
	Assoc struct {
		// Label identifies the association (source_relname form).
		Label string
		// Rel holds the multiplicity relative to the assoc side.
		Rel RelType
		// Assoc holds the forward declared side.
		Assoc *Rel
		// Inverse holds the back-reference side, nil for unidirectional
		// associations.
		Inverse *Rel
		// Owner holds the resolved owning type.
		Owner *Type
		// DeclaredOwner indicates the owner was declared explicitly
		// rather than derived.
		DeclaredOwner bool
		ownerSide *Rel
		policies  [2]ripple.Policy
	}
)

// Build constructs and validates the relationship model from the given
// schema declarations.
func Build(schemas []ripple.Interface, opts ...Option) (*Graph, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	g := &Graph{types: make(map[string]*Type, len(schemas))}
	for _, s := range schemas {
		t := &Type{Name: schemaName(s), rels: make(map[string]*Rel)}
		if t.Name == "" {
			return nil, ripple.NewConfigurationError("", "", "unnamed schema type")
		}
		t.Table = tableName(t.Name)
		if _, ok := g.types[t.Name]; ok {
			return nil, ripple.NewConfigurationError(t.Name, "", "duplicate schema type")
		}
		g.types[t.Name] = t
		g.Types = append(g.Types, t)
	}
	for i, s := range schemas {
		if err := g.addRels(g.Types[i], s); err != nil {
			return nil, err
		}
	}
	if err := g.linkInverses(); err != nil {
		return nil, err
	}
	if err := cfg.overrides.apply(g); err != nil {
		return nil, err
	}
	if err := g.buildAssocs(); err != nil {
		return nil, err
	}
	return g, nil
}

// Type returns the named entity type.
func (g *Graph) Type(name string) (*Type, bool) {
	t, ok := g.types[name]
	return t, ok
}

// TypeOf returns the entity type of the given entity.
func (g *Graph) TypeOf(e ripple.Entity) (*Type, bool) {
	return g.Type(e.TypeName())
}

// ResolvePolicy returns the resolved cascade policy of the association in
// the given direction. It is a pure lookup into the policy table populated
// at build time.
func (g *Graph) ResolvePolicy(a *Assoc, d ripple.Direction) ripple.Policy {
	return a.Policy(d)
}

// PolicyFor returns the resolved cascade policy of the declared side r,
// i.e. the policy of its association in the direction r represents.
func (g *Graph) PolicyFor(r *Rel) ripple.Policy {
	return r.assoc.Policy(r.Direction())
}

// Rel returns the declared relationship side with the given name.
func (t *Type) Rel(name string) (*Rel, bool) {
	r, ok := t.rels[name]
	return r, ok
}

// Assoc returns the association this side belongs to.
func (r *Rel) Assoc() *Assoc { return r.assoc }

// Direction returns the association direction this side represents:
// OwnerToDependent if the side is the owning side, DependentToOwner
// otherwise.
func (r *Rel) Direction() ripple.Direction {
	if r.assoc.ownerSide == r {
		return ripple.OwnerToDependent
	}
	return ripple.DependentToOwner
}

// Policy returns the resolved cascade policy for the given direction.
func (a *Assoc) Policy(d ripple.Direction) ripple.Policy {
	return a.policies[d]
}

// Dependent returns the non-owning type of the association.
func (a *Assoc) Dependent() *Type {
	if a.Assoc.Source == a.Owner {
		return a.Assoc.Type
	}
	return a.Assoc.Source
}

// Side returns the declared side representing the given direction, or nil
// if that direction has no declared side (e.g. the owner side of a
// unidirectional belongs-to).
func (a *Assoc) Side(d ripple.Direction) *Rel {
	if d == ripple.OwnerToDependent {
		return a.ownerSide
	}
	return a.dependentSide()
}

func (a *Assoc) dependentSide() *Rel {
	switch a.ownerSide {
	case a.Assoc:
		return a.Inverse
	case a.Inverse:
		return a.Assoc
	default: // no declared owner side
		return a.Assoc
	}
}

// addRels creates the declared sides of one schema type.
func (g *Graph) addRels(t *Type, s ripple.Interface) error {
	for _, rb := range s.Rels() {
		desc := rb.Descriptor()
		if desc.Err != nil {
			return &ripple.ConfigurationError{Type: t.Name, Rel: desc.Name, Cause: desc.Err}
		}
		// A chained To(...).From(...) declaration carries both sides of
		// a self-referential association in one descriptor.
		if desc.Inverse && desc.Ref != nil {
			if desc.Ref.Err != nil {
				return &ripple.ConfigurationError{Type: t.Name, Rel: desc.Ref.Name, Cause: desc.Ref.Err}
			}
			if desc.Type != t.Name {
				return ripple.NewConfigurationError(t.Name, desc.Name,
					"chained inverse declarations are limited to self-referential relationships")
			}
			assocRel, err := g.newRel(t, desc.Ref)
			if err != nil {
				return err
			}
			invRel, err := g.newRel(t, desc)
			if err != nil {
				return err
			}
			assocRel.Ref, invRel.Ref = invRel, assocRel
			continue
		}
		if _, err := g.newRel(t, desc); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) newRel(t *Type, desc *rel.Descriptor) (*Rel, error) {
	target, ok := g.types[desc.Type]
	if !ok {
		return nil, ripple.NewConfigurationError(t.Name, desc.Name,
			fmt.Sprintf("unknown type %q", desc.Type))
	}
	if _, ok := t.rels[desc.Name]; ok {
		return nil, ripple.NewConfigurationError(t.Name, desc.Name, "duplicate relationship name")
	}
	r := &Rel{
		def:      desc,
		Name:     desc.Name,
		Source:   t,
		Type:     target,
		Unique:   desc.Unique,
		Required: desc.Required,
		Inverse:  desc.Inverse,
		Override: desc.Override,
	}
	t.rels[r.Name] = r
	t.Rels = append(t.Rels, r)
	return r, nil
}

// linkInverses pairs every standalone back-reference with the assoc side
// it names.
func (g *Graph) linkInverses() error {
	for _, t := range g.Types {
		for _, r := range t.Rels {
			if !r.Inverse || r.Ref != nil {
				continue
			}
			if r.def.RefName == "" {
				return ripple.NewConfigurationError(t.Name, r.Name, "missing Ref on inverse relationship")
			}
			assocRel, ok := r.Type.Rel(r.def.RefName)
			if !ok || assocRel.Inverse {
				return ripple.NewConfigurationError(t.Name, r.Name,
					fmt.Sprintf("Ref %q has no corresponding association on type %s", r.def.RefName, r.Type.Name))
			}
			if assocRel.Type != t {
				return ripple.NewConfigurationError(t.Name, r.Name,
					fmt.Sprintf("Ref %q on type %s does not point back to %s", r.def.RefName, r.Type.Name, t.Name))
			}
			if assocRel.Ref != nil {
				return ripple.NewConfigurationError(t.Name, r.Name,
					fmt.Sprintf("association %q already has a back-reference", r.def.RefName))
			}
			r.Ref, assocRel.Ref = assocRel, r
		}
	}
	return nil
}

// buildAssocs derives multiplicity and ownership per association and
// populates the policy table.
func (g *Graph) buildAssocs() error {
	for _, t := range g.Types {
		for _, r := range t.Rels {
			if r.Inverse {
				continue
			}
			a, err := g.newAssoc(r)
			if err != nil {
				return err
			}
			g.Assocs = append(g.Assocs, a)
		}
	}
	// Sides without an association at this point are dangling inverses.
	for _, t := range g.Types {
		for _, r := range t.Rels {
			if r.assoc == nil {
				return ripple.NewConfigurationError(t.Name, r.Name, "unlinked inverse relationship")
			}
		}
	}
	for _, a := range g.Assocs {
		if a.policies[ripple.OwnerToDependent].Includes(ripple.OpDelete) &&
			a.policies[ripple.DependentToOwner].Includes(ripple.OpDelete) {
			return ripple.NewConfigurationError(a.Assoc.Source.Name, a.Assoc.Name,
				"cascade delete declared on both directions of one association")
		}
	}
	return nil
}

func (g *Graph) newAssoc(assocRel *Rel) (*Assoc, error) {
	a := &Assoc{
		Label:   label(assocRel.Source.Name, assocRel.Name),
		Assoc:   assocRel,
		Inverse: assocRel.Ref,
	}
	assocRel.assoc = a
	if a.Inverse != nil {
		a.Inverse.assoc = a
	}
	if err := a.multiplicity(); err != nil {
		return nil, err
	}
	if err := a.resolveOwner(); err != nil {
		return nil, err
	}
	a.policies[ripple.OwnerToDependent] = a.derive(ripple.OwnerToDependent)
	a.policies[ripple.DependentToOwner] = a.derive(ripple.DependentToOwner)
	return a, nil
}

// multiplicity derives the association multiplicity from the Unique flags
// of its sides and applies the uniqueness-constraint conversion.
func (a *Assoc) multiplicity() error {
	switch inv := a.Inverse; {
	case inv == nil && a.Assoc.Unique:
		a.Rel = M2O
	case inv == nil:
		a.Rel = O2M
	case a.Assoc.Unique && inv.Unique:
		a.Rel = O2O
	case a.Assoc.Unique:
		a.Rel = M2O
	case inv.Unique:
		a.Rel = O2M
	default:
		a.Rel = M2M
	}
	for _, side := range []*Rel{a.Assoc, a.Inverse} {
		if side == nil || !side.def.ConstrainUnique {
			continue
		}
		// The constraint belongs on the many-to-one reference: the
		// single-valued side of a one/many-to-many counterpart.
		manyToOne := side.Unique && (side.Ref == nil || !side.Ref.Unique)
		if !manyToOne {
			return ripple.NewConfigurationError(side.Source.Name, side.Name,
				fmt.Sprintf("uniqueness constraint on %s side; only many-to-one can be constrained", a.Rel))
		}
		a.Rel = O2O
	}
	return nil
}

// resolveOwner determines the owning side of the association. A declared
// owner wins; otherwise the collection-holding side owns save/update
// propagation, and single-valued shapes stay ownerless (the assoc side is
// recorded as owner for direction bookkeeping only).
func (a *Assoc) resolveOwner() error {
	var declared string
	for _, side := range []*Rel{a.Assoc, a.Inverse} {
		if side == nil || side.def.Owner == "" {
			continue
		}
		name := side.def.Owner
		if name != side.Source.Name && name != side.Type.Name {
			return ripple.NewConfigurationError(side.Source.Name, side.Name,
				fmt.Sprintf("declared owner %q has no corresponding association", name))
		}
		if declared != "" && declared != name {
			return ripple.NewConfigurationError(side.Source.Name, side.Name,
				"conflicting owner declarations")
		}
		declared = name
	}
	if declared != "" {
		a.DeclaredOwner = true
		switch {
		case a.Assoc.Source.Name == declared:
			a.ownerSide = a.Assoc
		case a.Inverse != nil && a.Inverse.Source.Name == declared:
			a.ownerSide = a.Inverse
		}
		// Self-referential associations resolve the assoc side as owner.
		if a.ownerSide != nil {
			a.Owner = a.ownerSide.Source
		} else if a.Assoc.Type.Name == declared {
			a.Owner = a.Assoc.Type
		}
		return nil
	}
	switch {
	case !a.Assoc.Unique && (a.Inverse == nil || a.Inverse.Unique):
		a.ownerSide = a.Assoc // collection holder
	case a.Inverse != nil && !a.Inverse.Unique && a.Assoc.Unique:
		a.ownerSide = a.Inverse // collection holder on the inverse side
	default:
		a.ownerSide = a.Assoc // O2O and M2M default to the assoc side
	}
	a.Owner = a.ownerSide.Source
	return nil
}

// derive resolves the default cascade policy for one direction, honoring
// an explicit override on that direction first.
func (a *Assoc) derive(d ripple.Direction) ripple.Policy {
	if side := a.Side(d); side != nil && side.Direction() == d && side.Override != rel.Unset {
		return overridePolicy(side.Override)
	}
	if d == ripple.DependentToOwner {
		return ripple.PolicyNone
	}
	if a.DeclaredOwner {
		return ripple.PolicyAll
	}
	if a.ownerSide != nil && !a.ownerSide.Unique {
		return ripple.PolicySaveUpdate
	}
	return ripple.PolicyNone
}

func overridePolicy(c rel.Cascade) ripple.Policy {
	switch c {
	case rel.All:
		return ripple.PolicyAll
	case rel.SaveUpdate:
		return ripple.PolicySaveUpdate
	default:
		return ripple.PolicyNone
	}
}

// schemaName returns the name of the schema struct, dereferencing pointers.
func schemaName(s ripple.Interface) string {
	t := reflect.TypeOf(s)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
