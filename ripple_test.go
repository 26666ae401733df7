package ripple_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ripple"
)

// TestOpIs tests the Op.Is method.
// Note: Op.Is uses bitwise AND, so ops compose into op-sets.
func TestOpIs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		op       ripple.Op
		check    ripple.Op
		expected bool
	}{
		{"Save is Save", ripple.OpSave, ripple.OpSave, true},
		{"Save is not Update", ripple.OpSave, ripple.OpUpdate, false},
		{"Update is Update", ripple.OpUpdate, ripple.OpUpdate, true},
		{"Delete is Delete", ripple.OpDelete, ripple.OpDelete, true},
		{"Save is not Delete", ripple.OpSave, ripple.OpDelete, false},
		{"Combined Save|Update is Save", ripple.OpSave | ripple.OpUpdate, ripple.OpSave, true},
		{"Combined Save|Update is Update", ripple.OpSave | ripple.OpUpdate, ripple.OpUpdate, true},
		{"Combined Save|Update is not Delete", ripple.OpSave | ripple.OpUpdate, ripple.OpDelete, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.op.Is(tt.check))
		})
	}
}

// TestOpString tests the Op.String method.
func TestOpString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op       ripple.Op
		expected string
	}{
		{ripple.OpSave, "OpSave"},
		{ripple.OpUpdate, "OpUpdate"},
		{ripple.OpDelete, "OpDelete"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.op.String())
		})
	}
}

// TestDirectionString tests the Direction.String method.
func TestDirectionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "owner_to_dependent", ripple.OwnerToDependent.String())
	assert.Equal(t, "dependent_to_owner", ripple.DependentToOwner.String())
}

// TestPolicyIncludes tests policy containment: ALL covers everything
// SAVE_UPDATE covers, plus delete.
func TestPolicyIncludes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy ripple.Policy
		op     ripple.Op
		want   bool
	}{
		{"none includes nothing (save)", ripple.PolicyNone, ripple.OpSave, false},
		{"none includes nothing (update)", ripple.PolicyNone, ripple.OpUpdate, false},
		{"none includes nothing (delete)", ripple.PolicyNone, ripple.OpDelete, false},
		{"save_update includes save", ripple.PolicySaveUpdate, ripple.OpSave, true},
		{"save_update includes update", ripple.PolicySaveUpdate, ripple.OpUpdate, true},
		{"save_update excludes delete", ripple.PolicySaveUpdate, ripple.OpDelete, false},
		{"all includes save", ripple.PolicyAll, ripple.OpSave, true},
		{"all includes update", ripple.PolicyAll, ripple.OpUpdate, true},
		{"all includes delete", ripple.PolicyAll, ripple.OpDelete, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.policy.Includes(tt.op))
		})
	}
}

// TestPolicyValid tests the Policy.Valid method.
func TestPolicyValid(t *testing.T) {
	t.Parallel()

	assert.True(t, ripple.PolicyNone.Valid())
	assert.True(t, ripple.PolicySaveUpdate.Valid())
	assert.True(t, ripple.PolicyAll.Valid())
	assert.False(t, ripple.Policy(ripple.OpDelete).Valid(), "delete-only is not a resolvable policy")
}

// TestPolicyString tests the Policy.String method.
func TestPolicyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NONE", ripple.PolicyNone.String())
	assert.Equal(t, "SAVE_UPDATE", ripple.PolicySaveUpdate.String())
	assert.Equal(t, "ALL", ripple.PolicyAll.String())
}

// person is a test entity.
type person struct {
	Name    string
	Partner *person
	Friends []*person
	Home    *place `ripple:"home_base"`
}

func (*person) TypeName() string { return "Person" }

type place struct {
	Name string
}

func (*place) TypeName() string { return "Place" }

// TestIdentityMap tests the lifecycle side-table.
func TestIdentityMap(t *testing.T) {
	t.Parallel()

	t.Run("transient_until_assigned", func(t *testing.T) {
		t.Parallel()
		m := ripple.NewIdentityMap()
		e := &person{Name: "ada"}

		assert.True(t, m.Transient(e))
		assert.False(t, m.Persistent(e))
		_, ok := m.Lookup(e)
		assert.False(t, ok)

		require.NoError(t, m.Assign(e, "id-1"))
		assert.False(t, m.Transient(e))
		assert.True(t, m.Persistent(e))
		id, ok := m.Lookup(e)
		require.True(t, ok)
		assert.Equal(t, ripple.Identity("id-1"), id)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("identity_never_changes", func(t *testing.T) {
		t.Parallel()
		m := ripple.NewIdentityMap()
		e := &person{Name: "ada"}

		require.NoError(t, m.Assign(e, "id-1"))
		err := m.Assign(e, "id-2")
		assert.ErrorIs(t, err, ripple.ErrIdentityReassigned)

		// Re-assigning the same identity is a no-op.
		assert.NoError(t, m.Assign(e, "id-1"))
	})

	t.Run("removal_keeps_identity", func(t *testing.T) {
		t.Parallel()
		m := ripple.NewIdentityMap()
		e := &person{Name: "ada"}

		require.NoError(t, m.Assign(e, "id-1"))
		m.MarkRemoved(e)
		assert.True(t, m.Removed(e))
		assert.False(t, m.Persistent(e))
		assert.False(t, m.Transient(e), "removed entities keep their identity")

		// Saving again restores the same identity.
		require.NoError(t, m.Assign(e, "id-1"))
		assert.False(t, m.Removed(e))
		assert.True(t, m.Persistent(e))
	})

	t.Run("removal_of_transient_is_noop", func(t *testing.T) {
		t.Parallel()
		m := ripple.NewIdentityMap()
		e := &person{Name: "ada"}

		m.MarkRemoved(e)
		assert.False(t, m.Removed(e))
	})
}

// TestNavigatorFunc tests the NavigatorFunc adapter.
func TestNavigatorFunc(t *testing.T) {
	t.Parallel()

	called := false
	want := []ripple.Entity{&person{Name: "ada"}}

	f := ripple.NavigatorFunc(func(_ ripple.Entity, _ string) []ripple.Entity {
		called = true
		return want
	})

	got := f.Related(&person{}, "friends")
	assert.True(t, called)
	assert.Equal(t, want, got)
}

// TestStructNavigator tests reflection-based association access.
func TestStructNavigator(t *testing.T) {
	t.Parallel()

	nav := ripple.StructNavigator{}

	t.Run("single_valued_by_name", func(t *testing.T) {
		t.Parallel()
		partner := &person{Name: "grace"}
		e := &person{Name: "ada", Partner: partner}

		got := nav.Related(e, "partner")
		require.Len(t, got, 1)
		assert.Same(t, partner, got[0])
	})

	t.Run("nil_reference", func(t *testing.T) {
		t.Parallel()
		e := &person{Name: "ada"}
		assert.Empty(t, nav.Related(e, "partner"))
	})

	t.Run("collection_valued", func(t *testing.T) {
		t.Parallel()
		f1, f2 := &person{Name: "b"}, &person{Name: "c"}
		e := &person{Name: "ada", Friends: []*person{f1, f2}}

		got := nav.Related(e, "friends")
		require.Len(t, got, 2)
		assert.Same(t, f1, got[0])
		assert.Same(t, f2, got[1])
	})

	t.Run("snake_case_rel_name", func(t *testing.T) {
		t.Parallel()
		// A rel named "home_base" matches the field tagged ripple:"home_base".
		home := &place{Name: "london"}
		e := &person{Name: "ada", Home: home}

		got := nav.Related(e, "home_base")
		require.Len(t, got, 1)
		assert.Same(t, home, got[0])
	})

	t.Run("unknown_rel", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, nav.Related(&person{}, "nonexistent"))
	})

	t.Run("nil_entity_pointer", func(t *testing.T) {
		t.Parallel()
		var e *person
		assert.Empty(t, nav.Related(e, "partner"))
	})
}
