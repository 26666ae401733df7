package graph_test

import (
	"github.com/syssam/ripple"
	"github.com/syssam/ripple/schema/rel"
)

// Bidirectional one-to-many with a declared owner: flights belong to their
// airport, so saving or deleting the airport cascades to its flights.
type (
	Airport struct{ ripple.Schema }
	Flight  struct{ ripple.Schema }
)

func (Airport) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("flights", Flight.Type),
	}
}

func (Flight) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("airport", Airport.Type).
			Ref("flights").
			Unique().
			Required().
			Owner(),
	}
}

// Bidirectional one-to-many without a declared owner.
type (
	User struct{ ripple.Schema }
	Post struct{ ripple.Schema }
)

func (User) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("posts", Post.Type),
	}
}

func (Post) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("author", User.Type).
			Ref("posts").
			Unique(),
	}
}

// Unidirectional one-to-many.
type (
	Playlist struct{ ripple.Schema }
	Track    struct{ ripple.Schema }
)

func (Playlist) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("tracks", Track.Type),
	}
}

func (Track) Rels() []ripple.Rel { return nil }

// Unidirectional many-to-one without a declared owner.
type (
	Author   struct{ ripple.Schema }
	Location struct{ ripple.Schema }
)

func (Author) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("location", Location.Type).
			Unique().
			Required(),
	}
}

func (Location) Rels() []ripple.Rel { return nil }

// Unidirectional many-to-one owned by the referenced type.
type (
	Shipment  struct{ ripple.Schema }
	Warehouse struct{ ripple.Schema }
)

func (Shipment) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("origin", Warehouse.Type).
			Unique().
			Owner(),
	}
}

func (Warehouse) Rels() []ripple.Rel { return nil }

// Unidirectional many-to-one owned by the declaring type.
type (
	Profile struct{ ripple.Schema }
	Image   struct{ ripple.Schema }
)

func (Profile) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("avatar", Image.Type).
			Unique().
			OwnedBy(Profile.Type),
	}
}

func (Image) Rels() []ripple.Rel { return nil }

// Bidirectional one-to-one without a declared owner.
type (
	Citizen  struct{ ripple.Schema }
	Passport struct{ ripple.Schema }
)

func (Citizen) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("passport", Passport.Type).Unique(),
	}
}

func (Passport) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("holder", Citizen.Type).
			Ref("passport").
			Unique(),
	}
}

// Bidirectional many-to-many without a declared owner.
type (
	Student struct{ ripple.Schema }
	Course  struct{ ripple.Schema }
)

func (Student) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("courses", Course.Type),
	}
}

func (Course) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("students", Student.Type).Ref("courses"),
	}
}

// Uniqueness-constrained many-to-one: every driver has at most one license,
// so the association is a de facto one-to-one.
type (
	Driver  struct{ ripple.Schema }
	License struct{ ripple.Schema }
)

func (Driver) Rels() []ripple.Rel { return nil }

func (License) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("driver", Driver.Type).
			Unique().
			UniqueConstraint(),
	}
}

// Self-referential one-to-many declared with a chained inverse.
type Category struct{ ripple.Schema }

func (Category) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("children", Category.Type).
			From("parent").
			Unique(),
	}
}

// Delete cascade declared on both directions. Rejected at build.
type (
	Fleet  struct{ ripple.Schema }
	Vessel struct{ ripple.Schema }
)

func (Fleet) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("vessels", Vessel.Type),
	}
}

func (Vessel) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("fleet", Fleet.Type).
			Ref("vessels").
			Unique().
			Owner().
			Cascade(rel.All),
	}
}

// Item is a plain target type shared by the invalid fixtures below.
type Item struct{ ripple.Schema }

func (Item) Rels() []ripple.Rel { return nil }

type Haunted struct{ ripple.Schema }

func (Haunted) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("ghost", Ghost.Type).Unique(),
	}
}

// Ghost is referenced by Haunted but never registered with Build.
type Ghost struct{ ripple.Schema }

func (Ghost) Rels() []ripple.Rel { return nil }

type DupRel struct{ ripple.Schema }

func (DupRel) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("items", Item.Type),
		rel.To("items", Item.Type),
	}
}

type NoRef struct{ ripple.Schema }

func (NoRef) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("item", Item.Type).Unique(),
	}
}

type BadRef struct{ ripple.Schema }

func (BadRef) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("item", Item.Type).Ref("nope").Unique(),
	}
}

type BadOwner struct{ ripple.Schema }

func (BadOwner) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("items", Item.Type).OwnedBy(User.Type),
	}
}

// Conflicting owner declarations on the two sides of one association.
type (
	Wheel struct{ ripple.Schema }
	Axle  struct{ ripple.Schema }
)

func (Wheel) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("axle", Axle.Type).
			Unique().
			OwnedBy(Wheel.Type),
	}
}

func (Axle) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("wheels", Wheel.Type).
			Ref("axle").
			OwnedBy(Axle.Type),
	}
}

// Spoke names an assoc on Hub that points at Item, not back at Spoke.
type (
	Hub   struct{ ripple.Schema }
	Spoke struct{ ripple.Schema }
)

func (Hub) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("items", Item.Type),
	}
}

func (Spoke) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("hub", Hub.Type).Ref("items").Unique(),
	}
}

// Leaf declares two back-references for the same assoc on Branch.
type (
	Branch struct{ ripple.Schema }
	Leaf   struct{ ripple.Schema }
)

func (Branch) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("leaves", Leaf.Type),
	}
}

func (Leaf) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.From("branch", Branch.Type).Ref("leaves").Unique(),
		rel.From("limb", Branch.Type).Ref("leaves").Unique(),
	}
}

type BadConstraint struct{ ripple.Schema }

func (BadConstraint) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("items", Item.Type).UniqueConstraint(),
	}
}

type ChainedNonSelf struct{ ripple.Schema }

func (ChainedNonSelf) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("items", Item.Type).From("holder"),
	}
}

type EmptyName struct{ ripple.Schema }

func (EmptyName) Rels() []ripple.Rel {
	return []ripple.Rel{
		rel.To("", Item.Type),
	}
}
