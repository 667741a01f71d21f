package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// forceEntry and torqueEntry pair an accumulated value with a remaining
// lifetime (spec §3/§9): each integration decrements lifetime and drops
// expired entries, so "persistent forces" expire on their own instead of
// needing an explicit clear call every frame.
type forceEntry struct {
	value     mgl64.Vec2
	remaining float64 // seconds; <= 0 means "apply once, then expire"
}

type torqueEntry struct {
	value     float64
	remaining float64
}

// RigidBody is a 2D rigid body: an ordered list of fixtures, aggregated
// mass, current + previous transforms (for CCD), velocities, accumulators,
// damping, and the at-rest state machine, per spec §3.
type RigidBody struct {
	Fixtures []*BodyFixture

	PreviousTransform Transform
	Transform         Transform

	LinearVelocity  mgl64.Vec2
	AngularVelocity float64

	forces  []forceEntry
	torques []torqueEntry

	Mass Mass

	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64

	RotationDiscRadius float64

	Bullet  bool
	Enabled bool

	AtRestDetectionEnabled bool
	AtRest                 bool
	AtRestTime             float64

	// UserData lets callers attach their own payload (e.g. a scene node).
	UserData interface{}
}

// NewRigidBody creates an empty body at the identity transform with default
// gravity scale 1 and at-rest detection enabled, ready for AddFixture calls.
func NewRigidBody() *RigidBody {
	return &RigidBody{
		Transform:              NewTransform(),
		PreviousTransform:      NewTransform(),
		GravityScale:           1.0,
		Enabled:                true,
		AtRestDetectionEnabled: true,
		Mass:                   InfiniteAtOrigin(),
	}
}

// AddFixture attaches a fixture, recomputes aggregate mass and the rotation
// disc radius, and clears at-rest (spec §3 invariant: anything that can
// make a body move must clear AtRest).
func (b *RigidBody) AddFixture(f *BodyFixture) {
	f.body = b
	b.Fixtures = append(b.Fixtures, f)
	b.updateMassAndRadius()
	b.SetAtRest(false)
}

// UpdateMass recomputes aggregated mass from current fixtures. Call after
// mutating a fixture's density in place.
func (b *RigidBody) UpdateMass() {
	b.updateMassAndRadius()
	b.SetAtRest(false)
}

// SetMass replaces the aggregated mass outright, bypassing the fixtures.
func (b *RigidBody) SetMass(m Mass) {
	b.Mass = m
	b.SetAtRest(false)
}

// SetMassType retags how the body responds to forces without recomputing
// its mass properties: the stored mass/inertia stay, only the inverses the
// solver reads are zeroed or restored per the new type.
func (b *RigidBody) SetMassType(t MassType) {
	b.Mass.Type = t
	b.Mass.InvMass, b.Mass.InvInertia = 0, 0
	if (t == Normal || t == InfiniteInertia) && b.Mass.Mass > 0 {
		b.Mass.InvMass = 1.0 / b.Mass.Mass
	}
	if (t == Normal || t == InfiniteMass) && b.Mass.Inertia > 0 {
		b.Mass.InvInertia = 1.0 / b.Mass.Inertia
	}
	b.SetAtRest(false)
}

// SetBullet opts the body in or out of continuous collision detection when
// the world's CCD mode is BulletsOnly.
func (b *RigidBody) SetBullet(bullet bool) {
	b.Bullet = bullet
}

func (b *RigidBody) updateMassAndRadius() {
	masses := make([]Mass, len(b.Fixtures))
	for i, f := range b.Fixtures {
		masses[i] = f.Shape.ComputeMass(f.Density)
	}
	b.Mass = AggregateMass(masses)
	b.RotationDiscRadius = b.computeRotationDiscRadius()
}

// computeRotationDiscRadius returns the max distance from the local center
// of mass to any fixture vertex/support point, per spec §3's invariant.
func (b *RigidBody) computeRotationDiscRadius() float64 {
	var maxDistSqr float64
	for _, f := range b.Fixtures {
		for _, dir := range []mgl64.Vec2{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {0.7071, 0.7071}, {-0.7071, 0.7071}, {0.7071, -0.7071}, {-0.7071, -0.7071}} {
			p := f.Shape.Support(dir)
			d := p.Sub(b.Mass.Center).LenSqr()
			if d > maxDistSqr {
				maxDistSqr = d
			}
		}
		if poly, ok := f.Shape.(*Polygon); ok {
			for _, v := range poly.Vertices {
				d := v.Sub(b.Mass.Center).LenSqr()
				if d > maxDistSqr {
					maxDistSqr = d
				}
			}
		}
	}
	return math.Sqrt(maxDistSqr)
}

// IsStatic reports whether the body has infinite mass and negligible velocity.
func (b *RigidBody) IsStatic() bool {
	const eps = 1e-9
	return b.Mass.Type == Infinite && b.LinearVelocity.LenSqr() < eps && math.Abs(b.AngularVelocity) < eps
}

// IsKinematic reports an Infinite-mass body that is nonetheless moving
// under an explicitly set velocity (spec §3).
func (b *RigidBody) IsKinematic() bool {
	const eps = 1e-9
	return b.Mass.Type == Infinite && (b.LinearVelocity.LenSqr() >= eps || math.Abs(b.AngularVelocity) >= eps)
}

// SetEnabled toggles whether the body participates in simulation at all.
func (b *RigidBody) SetEnabled(enabled bool) {
	b.Enabled = enabled
	if enabled {
		b.SetAtRest(false)
	}
}

// SetAtRest forces the at-rest flag. Setting true zeroes velocities and
// accumulators per spec §3's invariant; setting false just clears the timer.
func (b *RigidBody) SetAtRest(atRest bool) {
	b.AtRest = atRest
	b.AtRestTime = 0
	if atRest {
		b.LinearVelocity = mgl64.Vec2{0, 0}
		b.AngularVelocity = 0
		b.forces = b.forces[:0]
		b.torques = b.torques[:0]
	}
}

// SetAtRestDetectionEnabled toggles whether this body may be put to sleep.
func (b *RigidBody) SetAtRestDetectionEnabled(enabled bool) {
	b.AtRestDetectionEnabled = enabled
	if !enabled {
		b.SetAtRest(false)
	}
}

// SetLinearVelocity sets the linear velocity directly, waking the body.
func (b *RigidBody) SetLinearVelocity(v mgl64.Vec2) {
	b.LinearVelocity = v
	b.SetAtRest(false)
}

// SetAngularVelocity sets the angular velocity directly, waking the body.
func (b *RigidBody) SetAngularVelocity(w float64) {
	b.AngularVelocity = w
	b.SetAtRest(false)
}

// ApplyForce adds a force that persists until `lifetime` seconds of
// integration have consumed it; lifetime <= 0 means "this step only".
func (b *RigidBody) ApplyForce(force mgl64.Vec2, lifetime float64) {
	if b.Mass.InvMass == 0 {
		return
	}
	b.forces = append(b.forces, forceEntry{value: force, remaining: lifetime})
	b.SetAtRest(false)
}

// ApplyForceAtPoint applies a force at a world-space point, splitting it
// into a linear force plus the torque the offset induces.
func (b *RigidBody) ApplyForceAtPoint(force mgl64.Vec2, point mgl64.Vec2, lifetime float64) {
	b.ApplyForce(force, lifetime)
	r := point.Sub(b.Transform.Position)
	b.ApplyTorque(Cross2(r, force), lifetime)
}

// ApplyTorque adds a torque that persists for `lifetime` seconds.
func (b *RigidBody) ApplyTorque(torque float64, lifetime float64) {
	if b.Mass.InvInertia == 0 {
		return
	}
	b.torques = append(b.torques, torqueEntry{value: torque, remaining: lifetime})
	b.SetAtRest(false)
}

// ApplyImpulse immediately changes linear velocity by J * invMass.
func (b *RigidBody) ApplyImpulse(impulse mgl64.Vec2) {
	b.LinearVelocity = b.LinearVelocity.Add(impulse.Mul(b.Mass.InvMass))
	b.SetAtRest(false)
}

// ApplyImpulseAtPoint applies a linear impulse at a world point, inducing
// the corresponding angular impulse.
func (b *RigidBody) ApplyImpulseAtPoint(impulse mgl64.Vec2, point mgl64.Vec2) {
	b.ApplyImpulse(impulse)
	r := point.Sub(b.Transform.Position)
	b.AngularVelocity += b.Mass.InvInertia * Cross2(r, impulse)
}

// ClearForces discards all accumulated forces and torques without
// integrating them.
func (b *RigidBody) ClearForces() {
	b.forces = b.forces[:0]
	b.torques = b.torques[:0]
}

// IntegrateVelocity applies gravity, consumes the force/torque
// accumulators, and applies damping, per spec §4.9 step 2.
func (b *RigidBody) IntegrateVelocity(dt float64, gravity mgl64.Vec2) {
	if b.Mass.InvMass == 0 && b.Mass.InvInertia == 0 {
		return
	}

	if b.Mass.InvMass > 0 {
		b.LinearVelocity = b.LinearVelocity.Add(gravity.Mul(b.GravityScale * dt))

		n := 0
		for _, fe := range b.forces {
			b.LinearVelocity = b.LinearVelocity.Add(fe.value.Mul(b.Mass.InvMass * dt))
			fe.remaining -= dt
			if fe.remaining > 0 {
				b.forces[n] = fe
				n++
			}
		}
		b.forces = b.forces[:n]

		b.LinearVelocity = b.LinearVelocity.Mul(Clamp(1-dt*b.LinearDamping, 0, 1))
	}

	if b.Mass.InvInertia > 0 {
		n := 0
		for _, te := range b.torques {
			b.AngularVelocity += te.value * b.Mass.InvInertia * dt
			te.remaining -= dt
			if te.remaining > 0 {
				b.torques[n] = te
				n++
			}
		}
		b.torques = b.torques[:n]

		b.AngularVelocity *= Clamp(1-dt*b.AngularDamping, 0, 1)
	}
}

// IntegratePosition advances the transform by velocity*dt, clamping the
// per-step translation/rotation to maxTranslation/maxRotation by scaling
// the step and the velocity by the same factor (spec §4.6), so a clamped
// body does not carry teleport-speed velocity into the next step.
func (b *RigidBody) IntegratePosition(dt float64, maxTranslation, maxRotation float64) {
	b.PreviousTransform = b.Transform

	translation := b.LinearVelocity.Mul(dt)
	rotation := b.AngularVelocity * dt

	if d := translation.Len(); d > maxTranslation {
		scale := maxTranslation / d
		translation = translation.Mul(scale)
		b.LinearVelocity = b.LinearVelocity.Mul(scale)
	}
	if r := math.Abs(rotation); r > maxRotation {
		scale := maxRotation / r
		rotation *= scale
		b.AngularVelocity *= scale
	}

	b.Transform.Position = b.Transform.Position.Add(translation)
	b.Transform.SetAngle(b.Transform.Angle() + rotation)
}

// SupportWorld returns the farthest point across all fixtures in world
// space along direction -- used by GJK's Minkowski support function.
func (b *RigidBody) SupportWorld(direction mgl64.Vec2) mgl64.Vec2 {
	local := b.Transform.InverseRotate(direction)

	best := b.Fixtures[0].Shape.Support(local)
	bestDot := best.Dot(local)
	for _, f := range b.Fixtures[1:] {
		p := f.Shape.Support(local)
		if d := p.Dot(local); d > bestDot {
			bestDot = d
			best = p
		}
	}
	return b.Transform.ToWorld(best)
}

// WorldAABB returns the union of all fixture AABBs. A body with no fixtures
// degenerates to a point box at its position.
func (b *RigidBody) WorldAABB() AABB {
	if len(b.Fixtures) == 0 {
		return AABB{Min: b.Transform.Position, Max: b.Transform.Position}
	}
	aabb := b.Fixtures[0].ComputeAABB(b.Transform)
	for _, f := range b.Fixtures[1:] {
		aabb = aabb.Union(f.ComputeAABB(b.Transform))
	}
	return aabb
}

// RecomputeFixtureAABBs refreshes every fixture's cached AABB from the
// current transform; call after IntegratePosition.
func (b *RigidBody) RecomputeFixtureAABBs() {
	for _, f := range b.Fixtures {
		f.ComputeAABB(b.Transform)
	}
}
