package ripple

// Policy is the resolved cascade policy of one association direction: the
// set of operations that propagate along it. A policy is an op-set, so
// PolicyAll contains everything PolicySaveUpdate contains by construction.
type Policy uint8

// Resolvable policies. These are the only three values ownership resolution
// may produce; explicit overrides are limited to the same set.
const (
	// PolicyNone suppresses cascading in a direction entirely.
	PolicyNone Policy = 0
	// PolicySaveUpdate propagates save and update, but not delete.
	PolicySaveUpdate = Policy(OpSave | OpUpdate)
	// PolicyAll propagates save, update and delete.
	PolicyAll = Policy(OpSave | OpUpdate | OpDelete)
)

// Includes reports whether the policy propagates the given operation.
func (p Policy) Includes(op Op) bool { return Op(p)&op != 0 }

// Valid reports whether p is one of the three resolvable policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicyNone, PolicySaveUpdate, PolicyAll:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "NONE"
	case PolicySaveUpdate:
		return "SAVE_UPDATE"
	case PolicyAll:
		return "ALL"
	default:
		return "POLICY(?)"
	}
}
