package graph

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/ripple"
	"github.com/syssam/ripple/schema/rel"
)

// Snapshot types for serializing a built model. The resolved policy table
// is carried verbatim, so a restored graph never re-derives.
type (
	graphSnapshot struct {
		Types  []typeSnapshot  `msgpack:"types"`
		Assocs []assocSnapshot `msgpack:"assocs"`
	}

	typeSnapshot struct {
		Name  string        `msgpack:"name"`
		Table string        `msgpack:"table"`
		Rels  []relSnapshot `msgpack:"rels"`
	}

	relSnapshot struct {
		Name     string `msgpack:"name"`
		Type     string `msgpack:"type"`
		Unique   bool   `msgpack:"unique"`
		Required bool   `msgpack:"required"`
		Inverse  bool   `msgpack:"inverse"`
		Override uint8  `msgpack:"override"`
	}

	assocSnapshot struct {
		Label         string   `msgpack:"label"`
		Rel           int      `msgpack:"rel"`
		AssocType     string   `msgpack:"assoc_type"`
		AssocRel      string   `msgpack:"assoc_rel"`
		InverseType   string   `msgpack:"inverse_type,omitempty"`
		InverseRel    string   `msgpack:"inverse_rel,omitempty"`
		Owner         string   `msgpack:"owner,omitempty"`
		OwnerSideRel  string   `msgpack:"owner_side_rel,omitempty"`
		OwnerSideInv  bool     `msgpack:"owner_side_inv,omitempty"`
		DeclaredOwner bool     `msgpack:"declared_owner,omitempty"`
		Policies      [2]uint8 `msgpack:"policies"`
	}
)

// MarshalGraph encodes the built model, including its resolved policy
// table, for caching across processes.
func MarshalGraph(g *Graph) ([]byte, error) {
	snap := graphSnapshot{
		Types:  make([]typeSnapshot, 0, len(g.Types)),
		Assocs: make([]assocSnapshot, 0, len(g.Assocs)),
	}
	for _, t := range g.Types {
		ts := typeSnapshot{Name: t.Name, Table: t.Table, Rels: make([]relSnapshot, 0, len(t.Rels))}
		for _, r := range t.Rels {
			ts.Rels = append(ts.Rels, relSnapshot{
				Name:     r.Name,
				Type:     r.Type.Name,
				Unique:   r.Unique,
				Required: r.Required,
				Inverse:  r.Inverse,
				Override: uint8(r.Override),
			})
		}
		snap.Types = append(snap.Types, ts)
	}
	for _, a := range g.Assocs {
		as := assocSnapshot{
			Label:         a.Label,
			Rel:           int(a.Rel),
			AssocType:     a.Assoc.Source.Name,
			AssocRel:      a.Assoc.Name,
			DeclaredOwner: a.DeclaredOwner,
			Policies:      [2]uint8{uint8(a.policies[0]), uint8(a.policies[1])},
		}
		if a.Inverse != nil {
			as.InverseType = a.Inverse.Source.Name
			as.InverseRel = a.Inverse.Name
		}
		if a.Owner != nil {
			as.Owner = a.Owner.Name
		}
		if a.ownerSide != nil {
			as.OwnerSideRel = a.ownerSide.Name
			as.OwnerSideInv = a.ownerSide.Inverse
		}
		snap.Assocs = append(snap.Assocs, as)
	}
	return msgpack.Marshal(snap)
}

// UnmarshalGraph decodes a model previously encoded with MarshalGraph.
func UnmarshalGraph(b []byte) (*Graph, error) {
	var snap graphSnapshot
	if err := msgpack.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("graph: decoding snapshot: %w", err)
	}
	g := &Graph{types: make(map[string]*Type, len(snap.Types))}
	for _, ts := range snap.Types {
		t := &Type{Name: ts.Name, Table: ts.Table, rels: make(map[string]*Rel, len(ts.Rels))}
		g.types[t.Name] = t
		g.Types = append(g.Types, t)
	}
	for i, ts := range snap.Types {
		t := g.Types[i]
		for _, rs := range ts.Rels {
			target, ok := g.types[rs.Type]
			if !ok {
				return nil, fmt.Errorf("graph: snapshot references unknown type %q", rs.Type)
			}
			r := &Rel{
				def:      &rel.Descriptor{Name: rs.Name, Type: rs.Type},
				Name:     rs.Name,
				Source:   t,
				Type:     target,
				Unique:   rs.Unique,
				Required: rs.Required,
				Inverse:  rs.Inverse,
				Override: rel.Cascade(rs.Override),
			}
			t.rels[r.Name] = r
			t.Rels = append(t.Rels, r)
		}
	}
	for _, as := range snap.Assocs {
		assocRel, err := g.snapshotRel(as.AssocType, as.AssocRel)
		if err != nil {
			return nil, err
		}
		a := &Assoc{
			Label:         as.Label,
			Rel:           RelType(as.Rel),
			Assoc:         assocRel,
			DeclaredOwner: as.DeclaredOwner,
			policies: [2]ripple.Policy{
				ripple.Policy(as.Policies[0]),
				ripple.Policy(as.Policies[1]),
			},
		}
		assocRel.assoc = a
		if as.InverseRel != "" {
			inv, err := g.snapshotRel(as.InverseType, as.InverseRel)
			if err != nil {
				return nil, err
			}
			a.Inverse = inv
			inv.assoc = a
			assocRel.Ref, inv.Ref = inv, assocRel
		}
		if as.Owner != "" {
			owner, ok := g.types[as.Owner]
			if !ok {
				return nil, fmt.Errorf("graph: snapshot references unknown type %q", as.Owner)
			}
			a.Owner = owner
		}
		if as.OwnerSideRel != "" {
			if as.OwnerSideInv {
				a.ownerSide = a.Inverse
			} else {
				a.ownerSide = a.Assoc
			}
		}
		g.Assocs = append(g.Assocs, a)
	}
	return g, nil
}

func (g *Graph) snapshotRel(typeName, relName string) (*Rel, error) {
	t, ok := g.types[typeName]
	if !ok {
		return nil, fmt.Errorf("graph: snapshot references unknown type %q", typeName)
	}
	r, ok := t.Rel(relName)
	if !ok {
		return nil, fmt.Errorf("graph: snapshot references unknown rel %q on type %s", relName, typeName)
	}
	return r, nil
}
