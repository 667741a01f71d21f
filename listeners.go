package feather

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
)

// ListenerResult is a collision listener's verdict: Continue lets the pair
// proceed to the next stage, Reject drops it immediately (spec §6).
type ListenerResult int

const (
	Continue ListenerResult = iota
	Reject
)

// CollisionListener is consulted at each of the three collision stages the
// spec names: broad-phase accepted, narrow-phase accepted, manifold built.
// Any stage may veto the pair for this step.
type CollisionListener interface {
	BroadPhase(a, b *actor.BodyFixture) ListenerResult
	NarrowPhase(a, b *actor.BodyFixture) ListenerResult
	Manifold(c *constraint.ContactConstraint) ListenerResult
}

// ContactListener receives the begin/persist/end lifecycle of a
// ContactConstraint plus its post-solve accumulated impulses (spec §4.5/§6).
type ContactListener interface {
	Begin(c *constraint.ContactConstraint)
	Persist(c *constraint.ContactConstraint)
	End(c *constraint.ContactConstraint)
	PostSolve(c *constraint.ContactConstraint)
}

// StepListener brackets each Step call (spec §4.9 phases 1 and 8).
type StepListener interface {
	Begin(w *World)
	End(w *World)
}

// DestructionListener is notified when a removal cascades: a body's removal
// destroys its joints, a joint's removal is reported directly (spec §3).
type DestructionListener interface {
	BodyDestroyed(b *actor.RigidBody)
	JointDestroyed(j constraint.Joint)
}

// BoundsListener fires when a body's AABB leaves the world Bounds (spec §4.9
// step 6); the body is disabled in the same step this fires.
type BoundsListener interface {
	Outside(b *actor.RigidBody)
}

// listenerSet holds the zero-or-more listeners of each kind a World can
// carry (spec §6: "register zero or more of {...}").
type listenerSet struct {
	collision   []CollisionListener
	contact     []ContactListener
	step        []StepListener
	destruction []DestructionListener
	bounds      []BoundsListener
}

func (w *World) AddCollisionListener(l CollisionListener) { w.listeners.collision = append(w.listeners.collision, l) }
func (w *World) AddContactListener(l ContactListener)     { w.listeners.contact = append(w.listeners.contact, l) }
func (w *World) AddStepListener(l StepListener)           { w.listeners.step = append(w.listeners.step, l) }
func (w *World) AddDestructionListener(l DestructionListener) {
	w.listeners.destruction = append(w.listeners.destruction, l)
}
func (w *World) AddBoundsListener(l BoundsListener) { w.listeners.bounds = append(w.listeners.bounds, l) }

func (w *World) fireBroadPhase(a, b *actor.BodyFixture) bool {
	for _, l := range w.listeners.collision {
		if l.BroadPhase(a, b) == Reject {
			return false
		}
	}
	return true
}

func (w *World) fireNarrowPhase(a, b *actor.BodyFixture) bool {
	for _, l := range w.listeners.collision {
		if l.NarrowPhase(a, b) == Reject {
			return false
		}
	}
	return true
}

func (w *World) fireManifold(c *constraint.ContactConstraint) bool {
	for _, l := range w.listeners.collision {
		if l.Manifold(c) == Reject {
			return false
		}
	}
	return true
}

func (w *World) fireBegin(c *constraint.ContactConstraint) {
	for _, l := range w.listeners.contact {
		l.Begin(c)
	}
}

func (w *World) firePersist(c *constraint.ContactConstraint) {
	for _, l := range w.listeners.contact {
		l.Persist(c)
	}
}

func (w *World) fireEnd(c *constraint.ContactConstraint) {
	for _, l := range w.listeners.contact {
		l.End(c)
	}
}

func (w *World) firePostSolve(c *constraint.ContactConstraint) {
	for _, l := range w.listeners.contact {
		l.PostSolve(c)
	}
}

func (w *World) fireStepBegin() {
	for _, l := range w.listeners.step {
		l.Begin(w)
	}
}

func (w *World) fireStepEnd() {
	for _, l := range w.listeners.step {
		l.End(w)
	}
}

func (w *World) fireBodyDestroyed(b *actor.RigidBody) {
	for _, l := range w.listeners.destruction {
		l.BodyDestroyed(b)
	}
}

func (w *World) fireJointDestroyed(j constraint.Joint) {
	for _, l := range w.listeners.destruction {
		l.JointDestroyed(j)
	}
}

func (w *World) fireBoundsOutside(b *actor.RigidBody) {
	for _, l := range w.listeners.bounds {
		l.Outside(b)
	}
}
