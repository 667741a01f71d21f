package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/epa"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactSettings bundles the solver tunables a ContactConstraint needs at
// prepare/solve time, matching the defaults table in spec §6.
type ContactSettings struct {
	Baumgarte            float64
	LinearSlop           float64
	MaxLinearCorrection  float64
	RestitutionThreshold float64
	MaxWarmStartDistance float64
}

// DefaultContactSettings returns the spec §6 defaults.
func DefaultContactSettings() ContactSettings {
	return ContactSettings{
		Baumgarte:            0.2,
		LinearSlop:           0.005,
		MaxLinearCorrection:  0.2,
		RestitutionThreshold: 1.0,
		MaxWarmStartDistance: 0.01,
	}
}

// ContactPoint is one row of a ContactConstraint: the world point and
// penetration depth the manifold builder reported, a stable feature id used
// by the contact manager to carry impulses across frames, and the
// accumulated normal/tangent impulses that seed warm-starting.
type ContactPoint struct {
	Point mgl64.Vec2
	Depth float64
	ID    epa.FeatureID

	NormalImpulse  float64
	TangentImpulse float64

	localAnchorA, localAnchorB mgl64.Vec2
	rA, rB                     mgl64.Vec2
	normalMass, tangentMass    float64
	velocityBias               float64
}

// ContactConstraint is the spec §3 per-fixture-pair constraint: a shared
// normal and up to two contact points, each with independently accumulated
// normal/tangent impulses.
type ContactConstraint struct {
	BodyA, BodyB       *actor.RigidBody
	FixtureA, FixtureB *actor.BodyFixture

	Normal mgl64.Vec2
	Points []ContactPoint

	Friction    float64
	Restitution float64

	Settings ContactSettings
}

// Prepare computes per-point effective masses, the restitution bias, and
// local anchors for the position pass, then (if warmStart) applies the
// points' carried-over accumulated impulses -- run once per step before the
// velocity iteration loop (spec §4.6).
func (c *ContactConstraint) Prepare(warmStart bool) {
	tangent := actor.Perp(c.Normal)

	for i := range c.Points {
		p := &c.Points[i]
		p.rA = p.Point.Sub(c.BodyA.Transform.Position)
		p.rB = p.Point.Sub(c.BodyB.Transform.Position)
		p.localAnchorA = c.BodyA.Transform.ToLocal(p.Point)
		p.localAnchorB = c.BodyB.Transform.ToLocal(p.Point)

		p.normalMass = effectiveMass(c.BodyA, c.BodyB, p.rA, p.rB, c.Normal)
		p.tangentMass = effectiveMass(c.BodyA, c.BodyB, p.rA, p.rB, tangent)

		vrel := relativeVelocity(c.BodyA, c.BodyB, p.rA, p.rB)
		vn := vrel.Dot(c.Normal)
		p.velocityBias = 0
		if vn < -c.Settings.RestitutionThreshold {
			p.velocityBias = -c.Restitution * vn
		}

		if warmStart {
			impulse := c.Normal.Mul(p.NormalImpulse).Add(tangent.Mul(p.TangentImpulse))
			applyImpulsePair(c.BodyA, c.BodyB, p.rA, p.rB, impulse)
		} else {
			p.NormalImpulse = 0
			p.TangentImpulse = 0
		}
	}
}

// SolveFriction solves every point's tangent row. Must run before
// SolveNormal in the same iteration: the friction clamp bound depends on
// the normal impulse accumulated by the *previous* iteration (spec §4.6).
func (c *ContactConstraint) SolveFriction() {
	if bothAsleep(c.BodyA, c.BodyB) {
		return
	}
	tangent := actor.Perp(c.Normal)

	for i := range c.Points {
		p := &c.Points[i]
		if p.tangentMass == 0 {
			continue
		}
		vrel := relativeVelocity(c.BodyA, c.BodyB, p.rA, p.rB)
		vt := vrel.Dot(tangent)

		lambda := -p.tangentMass * vt
		maxFriction := c.Friction * p.NormalImpulse
		newImpulse := actor.Clamp(p.TangentImpulse+lambda, -maxFriction, maxFriction)
		lambda = newImpulse - p.TangentImpulse
		p.TangentImpulse = newImpulse

		applyImpulsePair(c.BodyA, c.BodyB, p.rA, p.rB, tangent.Mul(lambda))
	}
}

// SolveNormal solves every point's normal row, clamping the accumulated
// impulse to stay non-negative (spec §8 impulse non-negativity).
func (c *ContactConstraint) SolveNormal() {
	if bothAsleep(c.BodyA, c.BodyB) {
		return
	}
	for i := range c.Points {
		p := &c.Points[i]
		if p.normalMass == 0 {
			continue
		}
		vrel := relativeVelocity(c.BodyA, c.BodyB, p.rA, p.rB)
		vn := vrel.Dot(c.Normal)

		lambda := -p.normalMass * (vn - p.velocityBias)
		newImpulse := math.Max(p.NormalImpulse+lambda, 0)
		lambda = newImpulse - p.NormalImpulse
		p.NormalImpulse = newImpulse

		applyImpulsePair(c.BodyA, c.BodyB, p.rA, p.rB, c.Normal.Mul(lambda))
	}

	clampSmallVelocities(c.BodyA)
	clampSmallVelocities(c.BodyB)
}

// SolvePosition runs one Baumgarte-corrected position iteration, pushing the
// bodies apart along the normal until depth settles within LinearSlop.
// Reports whether every point started this iteration within three times
// LinearSlop (spec §4.6's early-exit condition).
func (c *ContactConstraint) SolvePosition() bool {
	if bothAsleep(c.BodyA, c.BodyB) {
		return true
	}
	solved := true

	for i := range c.Points {
		p := &c.Points[i]

		pA := c.BodyA.Transform.ToWorld(p.localAnchorA)
		pB := c.BodyB.Transform.ToWorld(p.localAnchorB)
		depth := p.Depth - pB.Sub(pA).Dot(c.Normal)

		if depth-c.Settings.LinearSlop <= 0 {
			continue
		}
		// Each correction removes only a Baumgarte fraction of the excess, so
		// the depth approaches LinearSlop without reaching it; a point within
		// three slops counts as satisfied so a resting contact can converge.
		if depth > 3*c.Settings.LinearSlop {
			solved = false
		}

		correction := actor.Clamp(depth-c.Settings.LinearSlop, 0, c.Settings.MaxLinearCorrection)
		bias := c.Settings.Baumgarte * correction

		rA := pA.Sub(c.BodyA.Transform.Position)
		rB := pB.Sub(c.BodyB.Transform.Position)
		mass := effectiveMass(c.BodyA, c.BodyB, rA, rB, c.Normal)
		if mass == 0 {
			continue
		}

		impulse := c.Normal.Mul(mass * bias)

		c.BodyA.Transform.Position = c.BodyA.Transform.Position.Sub(impulse.Mul(c.BodyA.Mass.InvMass))
		c.BodyA.Transform.SetAngle(c.BodyA.Transform.Angle() - c.BodyA.Mass.InvInertia*actor.Cross2(rA, impulse))

		c.BodyB.Transform.Position = c.BodyB.Transform.Position.Add(impulse.Mul(c.BodyB.Mass.InvMass))
		c.BodyB.Transform.SetAngle(c.BodyB.Transform.Angle() + c.BodyB.Mass.InvInertia*actor.Cross2(rB, impulse))
	}

	return solved
}
