// Package constraint implements the solver-facing constraint types: the
// contact constraint (normal + friction rows with accumulated impulses,
// warm-started across frames) and the bilateral joint variants. Both use
// the same sequential-impulse shape: precompute effective masses once per
// step, then repeatedly apply small velocity corrections until the
// accumulated impulse converges.
package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is anything the solver can iterate: a velocity-level impulse
// pass and a position-level (Baumgarte) correction pass. SolvePosition
// reports whether its error was already within tolerance, so the position
// loop can stop early once every constraint agrees.
type Constraint interface {
	SolveVelocity(dt float64)
	SolvePosition(dt float64) bool
}

// ComputeRestitution combines two fixtures' restitution by taking the
// larger: if either material is meant to bounce, the pair bounces.
func ComputeRestitution(restitutionA, restitutionB float64) float64 {
	return math.Max(restitutionA, restitutionB)
}

// ComputeFriction combines two fixtures' friction coefficients by geometric
// mean, the standard Box2D convention: a frictionless fixture (0) makes the
// whole pair frictionless regardless of the other side.
func ComputeFriction(frictionA, frictionB float64) float64 {
	return math.Sqrt(frictionA * frictionB)
}

// clampSmallVelocities zeroes out residual velocities below a noise floor,
// so a body the solver has effectively stopped doesn't drift toward
// at-rest only asymptotically.
func clampSmallVelocities(rb *actor.RigidBody) {
	const threshold = 1e-5
	if rb.LinearVelocity.LenSqr() < threshold*threshold {
		rb.LinearVelocity = mgl64.Vec2{0, 0}
	}
	if math.Abs(rb.AngularVelocity) < threshold {
		rb.AngularVelocity = 0
	}
}

// relativeVelocity returns the relative velocity of point B with respect to
// point A, where rA/rB are world-space offsets from each body's center of
// mass to the shared contact/anchor point.
func relativeVelocity(bodyA, bodyB *actor.RigidBody, rA, rB mgl64.Vec2) mgl64.Vec2 {
	vA := bodyA.LinearVelocity.Add(actor.CrossScalarVec(bodyA.AngularVelocity, rA))
	vB := bodyB.LinearVelocity.Add(actor.CrossScalarVec(bodyB.AngularVelocity, rB))
	return vB.Sub(vA)
}

// applyImpulsePair applies +impulse to B and -impulse to A at their
// respective anchors, the shared two-body impulse update every row below
// performs.
func applyImpulsePair(bodyA, bodyB *actor.RigidBody, rA, rB mgl64.Vec2, impulse mgl64.Vec2) {
	bodyA.LinearVelocity = bodyA.LinearVelocity.Sub(impulse.Mul(bodyA.Mass.InvMass))
	bodyA.AngularVelocity -= bodyA.Mass.InvInertia * actor.Cross2(rA, impulse)

	bodyB.LinearVelocity = bodyB.LinearVelocity.Add(impulse.Mul(bodyB.Mass.InvMass))
	bodyB.AngularVelocity += bodyB.Mass.InvInertia * actor.Cross2(rB, impulse)
}

// effectiveMass returns 1/(invMa + invMb + (rA×axis)²·invIa + (rB×axis)²·invIb),
// the standard scalar effective mass along a single constraint axis.
func effectiveMass(bodyA, bodyB *actor.RigidBody, rA, rB, axis mgl64.Vec2) float64 {
	rnA := actor.Cross2(rA, axis)
	rnB := actor.Cross2(rB, axis)
	k := bodyA.Mass.InvMass + bodyB.Mass.InvMass +
		rnA*rnA*bodyA.Mass.InvInertia + rnB*rnB*bodyB.Mass.InvInertia
	if k < 1e-12 {
		return 0
	}
	return 1.0 / k
}

// bothAsleep reports whether neither body can contribute motion this step,
// short-circuiting constraints between two at-rest (or static) bodies.
func bothAsleep(bodyA, bodyB *actor.RigidBody) bool {
	return (bodyA.AtRest || bodyA.Mass.InvMass == 0 && bodyA.Mass.InvInertia == 0) &&
		(bodyB.AtRest || bodyB.Mass.InvMass == 0 && bodyB.Mass.InvInertia == 0)
}
