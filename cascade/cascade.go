// Package cascade executes save, update and delete propagation across an
// in-memory entity graph.
//
// An Executor is driven by the policy table of a built graph.Graph: from a
// root entity it follows every declared relationship whose resolved policy
// includes the requested operation, visits each reachable entity exactly
// once regardless of cycles or diamond paths, and applies the queued
// operations against the persistence collaborator. A failure on any single
// entity aborts the whole cascade; the caller's ambient transaction is
// expected to roll back already-issued writes.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/ripple"
	"github.com/syssam/ripple/graph"
)

// Executor propagates operations across the relationship graph. It is safe
// for concurrent use: all per-call traversal state is call-scoped.
type Executor struct {
	graph     *graph.Graph
	persister ripple.Persister
	nav       ripple.Navigator
	ids       *ripple.IdentityMap
}

// Option configures an Executor.
type Option func(*Executor)

// WithNavigator sets the graph accessor used to read association values.
// Defaults to ripple.StructNavigator.
func WithNavigator(n ripple.Navigator) Option {
	return func(x *Executor) { x.nav = n }
}

// WithIdentityMap sets the lifecycle side-table shared with the persistence
// collaborator. Defaults to a fresh map.
func WithIdentityMap(m *ripple.IdentityMap) Option {
	return func(x *Executor) { x.ids = m }
}

// New creates an Executor over the given model and persistence collaborator.
func New(g *graph.Graph, p ripple.Persister, opts ...Option) *Executor {
	x := &Executor{
		graph:     g,
		persister: p,
		nav:       ripple.StructNavigator{},
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.ids == nil {
		x.ids = ripple.NewIdentityMap()
	}
	return x
}

// IdentityMap returns the lifecycle side-table used by the executor.
func (x *Executor) IdentityMap() *ripple.IdentityMap { return x.ids }

// Report is the outcome of one root operation: the set of entities touched
// transitively, in the order their operations were applied.
type Report struct {
	// Applied holds the touched entities in application order.
	Applied []ripple.Entity
}

// Len returns the number of entities touched.
func (r *Report) Len() int { return len(r.Applied) }

// Contains reports whether the entity was touched by the cascade.
func (r *Report) Contains(e ripple.Entity) bool {
	for _, a := range r.Applied {
		if a == e {
			return true
		}
	}
	return false
}

// Execute runs one cascade from the root entity. The traversal is
// depth-first and queues each entity after its qualifying neighbors; the
// queue is then applied in reverse order for save/update, so every owner
// persists before the dependents that reference it, and in queue order for
// delete, so every dependent is removed before each entity it references,
// on every path that reaches it. Each entity is processed at most once per
// call, which also guarantees termination on cyclic graphs. No write is
// issued before the traversal completes, so a TransientReferenceError
// leaves storage untouched.
func (x *Executor) Execute(ctx context.Context, root ripple.Entity, op ripple.Op) (*Report, error) {
	switch op {
	case ripple.OpSave, ripple.OpUpdate, ripple.OpDelete:
	default:
		return nil, fmt.Errorf("cascade: invalid operation %s", op)
	}
	if root == nil {
		return nil, errors.New("cascade: nil root entity")
	}
	t := newTracker()
	if err := x.collect(t, root, op); err != nil {
		return nil, err
	}
	queue := t.ordered(op)
	for _, e := range queue {
		if err := x.apply(ctx, e, op); err != nil {
			return nil, ripple.NewCascadeError(e, op, err)
		}
	}
	return &Report{Applied: queue}, nil
}

// ExecuteAll runs one cascade per root concurrently and returns a report
// per root in input order. Roots must cover disjoint subgraphs, or be
// serialized by the persistence collaborator's transaction boundary; the
// executor itself does not order operations across cascade roots.
func (x *Executor) ExecuteAll(ctx context.Context, roots []ripple.Entity, op ripple.Op) ([]*Report, error) {
	reports := make([]*Report, len(roots))
	eg, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		i, root := i, root
		eg.Go(func() error {
			r, err := x.Execute(ctx, root, op)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// collect performs the depth-first traversal: it marks the entity visited,
// recurses into every neighbor reachable through a relationship whose
// policy includes the operation, and queues the entity after its neighbors.
// The post-order queue is what makes the apply order topological even when
// one dependent is shared by several owners.
func (x *Executor) collect(t *tracker, e ripple.Entity, op ripple.Op) error {
	if !t.visit(e) {
		return nil // cycle or duplicate path; already processed
	}
	typ, ok := x.graph.TypeOf(e)
	if !ok {
		return ripple.NewConfigurationError(e.TypeName(), "", "entity type not in model")
	}
	for _, r := range typ.Rels {
		policy := x.graph.PolicyFor(r)
		if !policy.Includes(op) {
			if op != ripple.OpDelete {
				if err := x.checkTransient(r, e, policy); err != nil {
					return err
				}
			}
			continue
		}
		for _, n := range x.nav.Related(e, r.Name) {
			if n == nil {
				continue
			}
			if err := x.collect(t, n, op); err != nil {
				return err
			}
		}
	}
	t.enqueue(e)
	return nil
}

// checkTransient rejects a save/update when a required single-valued
// reference points at a transient entity and the direction's policy does
// not cascade the save.
func (x *Executor) checkTransient(r *graph.Rel, e ripple.Entity, policy ripple.Policy) error {
	if !r.Unique || !r.Required || policy.Includes(ripple.OpSave) {
		return nil
	}
	for _, n := range x.nav.Related(e, r.Name) {
		if n != nil && x.ids.Transient(n) {
			return ripple.NewTransientReferenceError(e, r.Name)
		}
	}
	return nil
}

func (x *Executor) apply(ctx context.Context, e ripple.Entity, op ripple.Op) error {
	if op == ripple.OpDelete {
		if err := x.persister.Delete(ctx, e); err != nil {
			return err
		}
		x.ids.MarkRemoved(e)
		return nil
	}
	id, err := x.persister.Save(ctx, e)
	if err != nil {
		return err
	}
	return x.ids.Assign(e, id)
}
