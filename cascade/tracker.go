package cascade

import "github.com/syssam/ripple"

// tracker holds the call-scoped traversal state of a single cascade: the
// visited set guarding against cycles and duplicate work, and the queue of
// entities awaiting their operation. It is never shared across calls.
type tracker struct {
	seen  map[ripple.Entity]struct{}
	queue []ripple.Entity
}

func newTracker() *tracker {
	return &tracker{seen: make(map[ripple.Entity]struct{})}
}

// visit marks the entity visited and reports whether it was new.
func (t *tracker) visit(e ripple.Entity) bool {
	if _, ok := t.seen[e]; ok {
		return false
	}
	t.seen[e] = struct{}{}
	return true
}

func (t *tracker) enqueue(e ripple.Entity) {
	t.queue = append(t.queue, e)
}

// ordered returns the application order for the queued entities. The queue
// is post-order, each entity behind every dependent reachable from it, so
// deletes apply it as-is (dependents removed bottom-up before each of their
// owners) and saves and updates apply it reversed (owners persist before
// the dependents that reference them).
func (t *tracker) ordered(op ripple.Op) []ripple.Entity {
	out := make([]ripple.Entity, len(t.queue))
	if op == ripple.OpDelete {
		copy(out, t.queue)
		return out
	}
	for i, e := range t.queue {
		out[len(out)-1-i] = e
	}
	return out
}
