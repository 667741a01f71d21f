package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Joint is the capability every bilateral constraint variant implements: the
// Constraint interface plus body and collide-connected accessors. Contacts do
// not implement Constraint; the solver drives them through their own
// Prepare/SolveFriction/SolveNormal/SolvePosition methods (spec §3/§4.6).
type Joint interface {
	Constraint
	Bodies() (a, b *actor.RigidBody)
	CollideConnected() bool
}

// jointBase carries the fields every joint variant shares: the two
// constrained bodies (either may be a world-fixed "ground" body, recorded
// by the caller leaving it static) and whether the pair's own fixtures
// should still collide with each other.
type jointBase struct {
	BodyA, BodyB   *actor.RigidBody
	collideConnect bool
}

func (j jointBase) Bodies() (a, b *actor.RigidBody) { return j.BodyA, j.BodyB }
func (j jointBase) CollideConnected() bool          { return j.collideConnect }

// newJointBase constructs the shared fields every joint embeds.
func newJointBase(a, b *actor.RigidBody, collideConnected bool) jointBase {
	return jointBase{BodyA: a, BodyB: b, collideConnect: collideConnected}
}

// anchorsWorld returns the two bodies' current world-space anchor points
// from their local-frame anchors.
func anchorsWorld(a, b *actor.RigidBody, localA, localB mgl64.Vec2) (mgl64.Vec2, mgl64.Vec2) {
	return a.Transform.ToWorld(localA), b.Transform.ToWorld(localB)
}

// ---------------------------------------------------------------------------
// DistanceJoint: keeps the distance between two anchor points at Length,
// optionally soft (spring-damper) per spec §3.
// ---------------------------------------------------------------------------

type DistanceJoint struct {
	jointBase
	LocalAnchorA, LocalAnchorB mgl64.Vec2
	Length                     float64

	// FrequencyHz > 0 makes the joint a spring-damper instead of rigid.
	FrequencyHz, DampingRatio float64

	impulse float64
	mass    float64
	axis    mgl64.Vec2
	bias    float64
	gamma   float64
}

func NewDistanceJoint(a, b *actor.RigidBody, localAnchorA, localAnchorB mgl64.Vec2, length float64, collideConnected bool) *DistanceJoint {
	return &DistanceJoint{jointBase: newJointBase(a, b, collideConnected), LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB, Length: length}
}

func (j *DistanceJoint) SolveVelocity(dt float64) {
	pA, pB := anchorsWorld(j.BodyA, j.BodyB, j.LocalAnchorA, j.LocalAnchorB)
	d := pB.Sub(pA)
	length := d.Len()
	if length < 1e-9 {
		return
	}
	j.axis = d.Mul(1.0 / length)

	rA := pA.Sub(j.BodyA.Transform.Position)
	rB := pB.Sub(j.BodyB.Transform.Position)
	j.mass = effectiveMass(j.BodyA, j.BodyB, rA, rB, j.axis)

	c := length - j.Length
	j.bias, j.gamma = 0, 0
	if j.FrequencyHz > 0 {
		omega := 2 * math.Pi * j.FrequencyHz
		k := j.mass * omega * omega
		damp := 2 * j.mass * j.DampingRatio * omega
		j.gamma = 1.0 / (dt * (damp + dt*k))
		j.bias = c * dt * k * j.gamma
		if j.mass > 0 {
			j.mass = 1.0 / (1.0/j.mass + j.gamma)
		}
	} else {
		j.bias = actor.Clamp(c, -0.2, 0.2) * 0.2 / dt
	}

	vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
	vn := vrel.Dot(j.axis)

	lambda := -j.mass * (vn + j.bias + j.gamma*j.impulse)
	j.impulse += lambda
	applyImpulsePair(j.BodyA, j.BodyB, rA, rB, j.axis.Mul(lambda))
}

func (j *DistanceJoint) SolvePosition(dt float64) bool {
	if j.FrequencyHz > 0 {
		return true // soft joints correct through the velocity bias only
	}
	pA, pB := anchorsWorld(j.BodyA, j.BodyB, j.LocalAnchorA, j.LocalAnchorB)
	d := pB.Sub(pA)
	length := d.Len()
	if length < 1e-9 {
		return true
	}
	axis := d.Mul(1.0 / length)
	c := length - j.Length
	if math.Abs(c) < 1e-4 {
		return true
	}

	rA := pA.Sub(j.BodyA.Transform.Position)
	rB := pB.Sub(j.BodyB.Transform.Position)
	mass := effectiveMass(j.BodyA, j.BodyB, rA, rB, axis)
	if mass == 0 {
		return true
	}
	impulse := axis.Mul(-mass * c)

	j.BodyA.Transform.Position = j.BodyA.Transform.Position.Sub(impulse.Mul(j.BodyA.Mass.InvMass))
	j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() - j.BodyA.Mass.InvInertia*actor.Cross2(rA, impulse))
	j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(impulse.Mul(j.BodyB.Mass.InvMass))
	j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*actor.Cross2(rB, impulse))
	return false
}

// ---------------------------------------------------------------------------
// RevoluteJoint: pins the two bodies' anchor points together (2 constrained
// linear DOF), optionally with a motor and/or angle limits.
// ---------------------------------------------------------------------------

type RevoluteJoint struct {
	jointBase
	LocalAnchorA, LocalAnchorB mgl64.Vec2
	ReferenceAngle             float64

	EnableMotor               bool
	MotorSpeed, MaxMotorForce float64

	EnableLimit            bool
	LowerAngle, UpperAngle float64

	linearImpulse mgl64.Vec2
	motorImpulse  float64
	limitImpulse  float64
	angularMass   float64
}

func NewRevoluteJoint(a, b *actor.RigidBody, localAnchorA, localAnchorB mgl64.Vec2, collideConnected bool) *RevoluteJoint {
	return &RevoluteJoint{jointBase: newJointBase(a, b, collideConnected), LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB}
}

// jointAngle returns the relative angle between the two bodies, measured
// against ReferenceAngle, the quantity LowerAngle/UpperAngle bound.
func (j *RevoluteJoint) jointAngle() float64 {
	return j.BodyB.Transform.Angle() - j.BodyA.Transform.Angle() - j.ReferenceAngle
}

// pointConstraintMass builds the 2x2 effective mass matrix for a two-body
// point-to-point (ball) constraint anchored at rA/rB, shared by the
// revolute and weld joints' linear rows.
func pointConstraintMass(bodyA, bodyB *actor.RigidBody, rA, rB mgl64.Vec2) mgl64.Mat2 {
	mA, mB := bodyA.Mass.InvMass, bodyB.Mass.InvMass
	iA, iB := bodyA.Mass.InvInertia, bodyB.Mass.InvInertia

	k11 := mA + mB + iA*rA.Y()*rA.Y() + iB*rB.Y()*rB.Y()
	k12 := -iA*rA.X()*rA.Y() - iB*rB.X()*rB.Y()
	k22 := mA + mB + iA*rA.X()*rA.X() + iB*rB.X()*rB.X()
	return mgl64.Mat2{k11, k12, k12, k22}
}

func (j *RevoluteJoint) SolveVelocity(dt float64) {
	rA := j.BodyA.Transform.Rotate(j.LocalAnchorA)
	rB := j.BodyB.Transform.Rotate(j.LocalAnchorB)

	if j.EnableMotor {
		j.angularMass = 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
		cDot := j.BodyB.AngularVelocity - j.BodyA.AngularVelocity - j.MotorSpeed
		impulse := -j.angularMass * cDot
		old := j.motorImpulse
		maxImpulse := j.MaxMotorForce * dt
		j.motorImpulse = actor.Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.motorImpulse - old
		j.BodyA.AngularVelocity -= j.BodyA.Mass.InvInertia * impulse
		j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * impulse
	}

	if j.EnableLimit {
		angularMass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
		angle := j.jointAngle()
		cDot := j.BodyB.AngularVelocity - j.BodyA.AngularVelocity
		lambda := -angularMass * cDot
		old := j.limitImpulse
		switch {
		case angle <= j.LowerAngle:
			j.limitImpulse = math.Max(old+lambda, 0)
		case angle >= j.UpperAngle:
			j.limitImpulse = math.Min(old+lambda, 0)
		default:
			j.limitImpulse = 0
		}
		lambda = j.limitImpulse - old
		j.BodyA.AngularVelocity -= j.BodyA.Mass.InvInertia * lambda
		j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * lambda
	}

	k := pointConstraintMass(j.BodyA, j.BodyB, rA, rB)
	vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
	impulse := k.Inv().Mul2x1(vrel.Mul(-1))
	j.linearImpulse = j.linearImpulse.Add(impulse)
	applyImpulsePair(j.BodyA, j.BodyB, rA, rB, impulse)
}

func (j *RevoluteJoint) SolvePosition(dt float64) bool {
	solved := true

	if j.EnableLimit {
		angle := j.jointAngle()
		var angleC float64
		switch {
		case angle < j.LowerAngle:
			angleC = angle - j.LowerAngle
		case angle > j.UpperAngle:
			angleC = angle - j.UpperAngle
		}
		if angleC != 0 {
			solved = false
			angularMass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
			impulse := -angularMass * actor.Clamp(angleC, -0.2, 0.2)
			j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() - j.BodyA.Mass.InvInertia*impulse)
			j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*impulse)
		}
	}

	rA := j.BodyA.Transform.Rotate(j.LocalAnchorA)
	rB := j.BodyB.Transform.Rotate(j.LocalAnchorB)
	pA := j.BodyA.Transform.Position.Add(rA)
	pB := j.BodyB.Transform.Position.Add(rB)
	posC := pB.Sub(pA)

	if posC.Len() < 1e-4 {
		return solved
	}
	solved = false

	k := pointConstraintMass(j.BodyA, j.BodyB, rA, rB)
	impulse := k.Inv().Mul2x1(posC.Mul(-1))

	j.BodyA.Transform.Position = j.BodyA.Transform.Position.Sub(impulse.Mul(j.BodyA.Mass.InvMass))
	j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() - j.BodyA.Mass.InvInertia*actor.Cross2(rA, impulse))
	j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(impulse.Mul(j.BodyB.Mass.InvMass))
	j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*actor.Cross2(rB, impulse))
	return solved
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ---------------------------------------------------------------------------
// PrismaticJoint: constrains relative motion to a single axis (removes the
// perpendicular linear DOF and the relative angular DOF), optionally with a
// motor along the axis and/or translation limits.
// ---------------------------------------------------------------------------

type PrismaticJoint struct {
	jointBase
	LocalAnchorA, LocalAnchorB mgl64.Vec2
	LocalAxisA                 mgl64.Vec2
	ReferenceAngle             float64

	EnableMotor               bool
	MotorSpeed, MaxMotorForce float64

	EnableLimit                        bool
	LowerTranslation, UpperTranslation float64

	perpImpulse, angularImpulse, motorImpulse, limitImpulse float64
}

func NewPrismaticJoint(a, b *actor.RigidBody, localAnchorA, localAnchorB, localAxisA mgl64.Vec2, collideConnected bool) *PrismaticJoint {
	return &PrismaticJoint{jointBase: newJointBase(a, b, collideConnected), LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB, LocalAxisA: localAxisA.Normalize()}
}

func (j *PrismaticJoint) frame() (axis, perp, rA, rB mgl64.Vec2, translation float64) {
	axis = j.BodyA.Transform.Rotate(j.LocalAxisA)
	perp = actor.Perp(axis)
	rA = j.BodyA.Transform.Rotate(j.LocalAnchorA)
	rB = j.BodyB.Transform.Rotate(j.LocalAnchorB)
	d := j.BodyB.Transform.Position.Add(rB).Sub(j.BodyA.Transform.Position).Sub(rA)
	translation = d.Dot(axis)
	return
}

func (j *PrismaticJoint) SolveVelocity(dt float64) {
	axis, perp, rA, rB, translation := j.frame()

	if j.EnableMotor {
		mass := 1.0 / maxf(j.BodyA.Mass.InvMass+j.BodyB.Mass.InvMass, 1e-12)
		vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
		cDot := vrel.Dot(axis) - j.MotorSpeed
		impulse := -mass * cDot
		old := j.motorImpulse
		maxImpulse := j.MaxMotorForce * dt
		j.motorImpulse = actor.Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.motorImpulse - old
		applyImpulsePair(j.BodyA, j.BodyB, rA, rB, axis.Mul(impulse))
	}

	if j.EnableLimit {
		mass := effectiveMass(j.BodyA, j.BodyB, rA, rB, axis)
		if mass > 0 {
			vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
			cDot := vrel.Dot(axis)
			lambda := -mass * cDot
			old := j.limitImpulse
			switch {
			case translation <= j.LowerTranslation:
				j.limitImpulse = math.Max(old+lambda, 0)
			case translation >= j.UpperTranslation:
				j.limitImpulse = math.Min(old+lambda, 0)
			default:
				j.limitImpulse = 0
			}
			lambda = j.limitImpulse - old
			applyImpulsePair(j.BodyA, j.BodyB, rA, rB, axis.Mul(lambda))
		}
	}

	// Perpendicular row: kill relative velocity across the axis.
	pMass := effectiveMass(j.BodyA, j.BodyB, rA, rB, perp)
	if pMass > 0 {
		vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
		cDot := vrel.Dot(perp) + (j.BodyB.AngularVelocity - j.BodyA.AngularVelocity)
		impulse := -pMass * cDot
		j.perpImpulse += impulse
		applyImpulsePair(j.BodyA, j.BodyB, rA, rB, perp.Mul(impulse))
	}

	// Angular row: lock relative rotation.
	aMass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
	cDotA := j.BodyB.AngularVelocity - j.BodyA.AngularVelocity
	impulseA := -aMass * cDotA
	j.angularImpulse += impulseA
	j.BodyA.AngularVelocity -= j.BodyA.Mass.InvInertia * impulseA
	j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * impulseA
}

func (j *PrismaticJoint) SolvePosition(dt float64) bool {
	axis, perp, rA, rB, translation := j.frame()
	d := j.BodyB.Transform.Position.Add(rB).Sub(j.BodyA.Transform.Position).Sub(rA)

	cPerp := d.Dot(perp)
	cAngle := j.BodyB.Transform.Angle() - j.BodyA.Transform.Angle() - j.ReferenceAngle

	solved := true

	if j.EnableLimit {
		var limitC float64
		switch {
		case translation < j.LowerTranslation:
			limitC = translation - j.LowerTranslation
		case translation > j.UpperTranslation:
			limitC = translation - j.UpperTranslation
		}
		if limitC != 0 {
			solved = false
			mass := effectiveMass(j.BodyA, j.BodyB, rA, rB, axis)
			if mass > 0 {
				impulse := axis.Mul(-mass * actor.Clamp(limitC, -0.2, 0.2))
				j.BodyA.Transform.Position = j.BodyA.Transform.Position.Sub(impulse.Mul(j.BodyA.Mass.InvMass))
				j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() - j.BodyA.Mass.InvInertia*actor.Cross2(rA, impulse))
				j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(impulse.Mul(j.BodyB.Mass.InvMass))
				j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*actor.Cross2(rB, impulse))
			}
		}
	}

	if math.Abs(cPerp) < 1e-4 && math.Abs(cAngle) < 1e-4 {
		return solved
	}
	solved = false

	pMass := effectiveMass(j.BodyA, j.BodyB, rA, rB, perp)
	if pMass > 0 {
		impulse := perp.Mul(-pMass * cPerp)
		j.BodyA.Transform.Position = j.BodyA.Transform.Position.Sub(impulse.Mul(j.BodyA.Mass.InvMass))
		j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() - j.BodyA.Mass.InvInertia*actor.Cross2(rA, impulse))
		j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(impulse.Mul(j.BodyB.Mass.InvMass))
		j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*actor.Cross2(rB, impulse))
	}

	aMass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
	impulseA := -aMass * cAngle
	j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() - j.BodyA.Mass.InvInertia*impulseA)
	j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*impulseA)

	return solved
}

// ---------------------------------------------------------------------------
// WeldJoint: locks the two bodies' relative position and orientation
// entirely (3 DOF), like a revolute joint with the angular DOF also pinned.
// ---------------------------------------------------------------------------

type WeldJoint struct {
	jointBase
	LocalAnchorA, LocalAnchorB mgl64.Vec2
	ReferenceAngle             float64

	linearImpulse  mgl64.Vec2
	angularImpulse float64
}

func NewWeldJoint(a, b *actor.RigidBody, localAnchorA, localAnchorB mgl64.Vec2, collideConnected bool) *WeldJoint {
	return &WeldJoint{jointBase: newJointBase(a, b, collideConnected), LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB, ReferenceAngle: b.Transform.Angle() - a.Transform.Angle()}
}

func (j *WeldJoint) SolveVelocity(dt float64) {
	rA := j.BodyA.Transform.Rotate(j.LocalAnchorA)
	rB := j.BodyB.Transform.Rotate(j.LocalAnchorB)

	aMass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
	cDotA := j.BodyB.AngularVelocity - j.BodyA.AngularVelocity
	impulseA := -aMass * cDotA
	j.angularImpulse += impulseA
	j.BodyA.AngularVelocity -= j.BodyA.Mass.InvInertia * impulseA
	j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * impulseA

	k := pointConstraintMass(j.BodyA, j.BodyB, rA, rB)
	vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
	impulse := k.Inv().Mul2x1(vrel.Mul(-1))
	j.linearImpulse = j.linearImpulse.Add(impulse)
	applyImpulsePair(j.BodyA, j.BodyB, rA, rB, impulse)
}

func (j *WeldJoint) SolvePosition(dt float64) bool {
	rA := j.BodyA.Transform.Rotate(j.LocalAnchorA)
	rB := j.BodyB.Transform.Rotate(j.LocalAnchorB)

	cAngle := j.BodyB.Transform.Angle() - j.BodyA.Transform.Angle() - j.ReferenceAngle
	aMass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
	impulseA := -aMass * cAngle
	j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() - j.BodyA.Mass.InvInertia*impulseA)
	j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*impulseA)

	pA := j.BodyA.Transform.Position.Add(rA)
	pB := j.BodyB.Transform.Position.Add(rB)
	c := pB.Sub(pA)

	solved := math.Abs(cAngle) < 1e-4 && c.Len() < 1e-4

	k := pointConstraintMass(j.BodyA, j.BodyB, rA, rB)
	impulse := k.Inv().Mul2x1(c.Mul(-1))
	j.BodyA.Transform.Position = j.BodyA.Transform.Position.Sub(impulse.Mul(j.BodyA.Mass.InvMass))
	j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(impulse.Mul(j.BodyB.Mass.InvMass))

	return solved
}

// ---------------------------------------------------------------------------
// MouseJoint: drags BodyB's anchor toward a world-space Target with a soft
// spring; BodyA is conventionally a static "ground" body.
// ---------------------------------------------------------------------------

type MouseJoint struct {
	jointBase
	LocalAnchorB mgl64.Vec2
	Target       mgl64.Vec2

	FrequencyHz, DampingRatio, MaxForce float64

	impulse mgl64.Vec2
	gamma   float64
	beta    float64
}

func NewMouseJoint(ground, body *actor.RigidBody, target mgl64.Vec2) *MouseJoint {
	return &MouseJoint{
		jointBase:    newJointBase(ground, body, true),
		LocalAnchorB: body.Transform.ToLocal(target),
		Target:       target,
		FrequencyHz:  5.0,
		DampingRatio: 0.7,
		MaxForce:     1000,
	}
}

func (j *MouseJoint) SolveVelocity(dt float64) {
	rB := j.BodyB.Transform.Rotate(j.LocalAnchorB)

	mass := 1.0 / maxf(j.BodyB.Mass.InvMass+j.BodyB.Mass.InvInertia*rB.Dot(rB), 1e-12)
	omega := 2 * math.Pi * j.FrequencyHz
	k := mass * omega * omega
	damp := 2 * mass * j.DampingRatio * omega
	j.gamma = 1.0 / (dt * (damp + dt*k))
	j.beta = dt * k * j.gamma

	pB := j.BodyB.Transform.Position.Add(rB)
	c := pB.Sub(j.Target)

	vB := j.BodyB.LinearVelocity.Add(actor.CrossScalarVec(j.BodyB.AngularVelocity, rB))
	cDot := vB.Add(c.Mul(j.beta))

	invMass := j.BodyB.Mass.InvMass + j.gamma
	if invMass < 1e-12 {
		return
	}
	impulse := cDot.Mul(-1.0 / invMass)

	oldImpulse := j.impulse
	j.impulse = j.impulse.Add(impulse)
	if j.impulse.Len() > j.MaxForce*dt {
		j.impulse = j.impulse.Mul(j.MaxForce * dt / j.impulse.Len())
	}
	impulse = j.impulse.Sub(oldImpulse)

	j.BodyB.LinearVelocity = j.BodyB.LinearVelocity.Add(impulse.Mul(j.BodyB.Mass.InvMass))
	j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * actor.Cross2(rB, impulse)
}

func (j *MouseJoint) SolvePosition(dt float64) bool { return true } // fully velocity/spring-driven

// ---------------------------------------------------------------------------
// RopeJoint: a one-sided max-distance constraint; only engages once the
// anchors separate past MaxLength.
// ---------------------------------------------------------------------------

type RopeJoint struct {
	jointBase
	LocalAnchorA, LocalAnchorB mgl64.Vec2
	MaxLength                  float64

	impulse float64
}

func NewRopeJoint(a, b *actor.RigidBody, localAnchorA, localAnchorB mgl64.Vec2, maxLength float64, collideConnected bool) *RopeJoint {
	return &RopeJoint{jointBase: newJointBase(a, b, collideConnected), LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB, MaxLength: maxLength}
}

func (j *RopeJoint) SolveVelocity(dt float64) {
	pA, pB := anchorsWorld(j.BodyA, j.BodyB, j.LocalAnchorA, j.LocalAnchorB)
	d := pB.Sub(pA)
	length := d.Len()
	if length < j.MaxLength {
		j.impulse = 0
		return
	}
	axis := d.Mul(1.0 / length)
	rA := pA.Sub(j.BodyA.Transform.Position)
	rB := pB.Sub(j.BodyB.Transform.Position)
	mass := effectiveMass(j.BodyA, j.BodyB, rA, rB, axis)

	vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
	cDot := vrel.Dot(axis)
	lambda := -mass * cDot
	newImpulse := math.Min(j.impulse+lambda, 0)
	lambda = newImpulse - j.impulse
	j.impulse = newImpulse

	applyImpulsePair(j.BodyA, j.BodyB, rA, rB, axis.Mul(lambda))
}

func (j *RopeJoint) SolvePosition(dt float64) bool {
	pA, pB := anchorsWorld(j.BodyA, j.BodyB, j.LocalAnchorA, j.LocalAnchorB)
	d := pB.Sub(pA)
	length := d.Len()
	c := length - j.MaxLength
	if c <= 0 {
		return true
	}
	axis := d.Mul(1.0 / length)
	rA := pA.Sub(j.BodyA.Transform.Position)
	rB := pB.Sub(j.BodyB.Transform.Position)
	mass := effectiveMass(j.BodyA, j.BodyB, rA, rB, axis)
	if mass == 0 {
		return true
	}
	impulse := axis.Mul(-mass * actor.Clamp(c, 0, 0.2))

	j.BodyA.Transform.Position = j.BodyA.Transform.Position.Sub(impulse.Mul(j.BodyA.Mass.InvMass))
	j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(impulse.Mul(j.BodyB.Mass.InvMass))
	return false
}

// ---------------------------------------------------------------------------
// WheelJoint (aka line joint): like a prismatic joint's perpendicular
// constraint but leaves rotation free, with an optional suspension spring
// along the axis and an optional motor that drives the relative angular
// velocity toward MotorSpeed.
// ---------------------------------------------------------------------------

type WheelJoint struct {
	jointBase
	LocalAnchorA, LocalAnchorB mgl64.Vec2
	LocalAxisA                 mgl64.Vec2

	FrequencyHz, DampingRatio float64

	EnableMotor               bool
	MotorSpeed, MaxMotorForce float64

	perpImpulse, motorImpulse, springImpulse float64
}

func NewWheelJoint(a, b *actor.RigidBody, localAnchorA, localAnchorB, localAxisA mgl64.Vec2, collideConnected bool) *WheelJoint {
	return &WheelJoint{jointBase: newJointBase(a, b, collideConnected), LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB, LocalAxisA: localAxisA.Normalize()}
}

func (j *WheelJoint) frame() (axis, perp, rA, rB mgl64.Vec2) {
	axis = j.BodyA.Transform.Rotate(j.LocalAxisA)
	perp = actor.Perp(axis)
	rA = j.BodyA.Transform.Rotate(j.LocalAnchorA)
	rB = j.BodyB.Transform.Rotate(j.LocalAnchorB)
	return
}

func (j *WheelJoint) SolveVelocity(dt float64) {
	axis, perp, rA, rB := j.frame()

	if j.EnableMotor {
		mass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
		cDot := j.BodyB.AngularVelocity - j.BodyA.AngularVelocity - j.MotorSpeed
		impulse := -mass * cDot
		old := j.motorImpulse
		maxImpulse := j.MaxMotorForce * dt
		j.motorImpulse = actor.Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = j.motorImpulse - old
		j.BodyA.AngularVelocity -= j.BodyA.Mass.InvInertia * impulse
		j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * impulse
	}

	if j.FrequencyHz > 0 {
		d := j.BodyB.Transform.Position.Add(rB).Sub(j.BodyA.Transform.Position).Sub(rA)
		translation := d.Dot(axis)
		mass := effectiveMass(j.BodyA, j.BodyB, rA, rB, axis)
		omega := 2 * math.Pi * j.FrequencyHz
		k := mass * omega * omega
		damp := 2 * mass * j.DampingRatio * omega
		gamma := 1.0 / (dt * (damp + dt*k))
		bias := translation * dt * k * gamma
		softMass := mass
		if mass > 0 {
			softMass = 1.0 / (1.0/mass + gamma)
		}
		vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
		cDot := vrel.Dot(axis)
		lambda := -softMass * (cDot + bias + gamma*j.springImpulse)
		j.springImpulse += lambda
		applyImpulsePair(j.BodyA, j.BodyB, rA, rB, axis.Mul(lambda))
	}

	pMass := effectiveMass(j.BodyA, j.BodyB, rA, rB, perp)
	if pMass > 0 {
		vrel := relativeVelocity(j.BodyA, j.BodyB, rA, rB)
		cDot := vrel.Dot(perp)
		impulse := -pMass * cDot
		j.perpImpulse += impulse
		applyImpulsePair(j.BodyA, j.BodyB, rA, rB, perp.Mul(impulse))
	}
}

func (j *WheelJoint) SolvePosition(dt float64) bool {
	_, perp, rA, rB := j.frame()
	d := j.BodyB.Transform.Position.Add(rB).Sub(j.BodyA.Transform.Position).Sub(rA)
	c := d.Dot(perp)
	if math.Abs(c) < 1e-4 {
		return true
	}
	pMass := effectiveMass(j.BodyA, j.BodyB, rA, rB, perp)
	if pMass == 0 {
		return true
	}
	impulse := perp.Mul(-pMass * c)
	j.BodyA.Transform.Position = j.BodyA.Transform.Position.Sub(impulse.Mul(j.BodyA.Mass.InvMass))
	j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(impulse.Mul(j.BodyB.Mass.InvMass))
	return false
}

// ---------------------------------------------------------------------------
// FrictionJoint: applies bounded linear and angular friction impulses
// without any position constraint, used to damp a body's planar drift (e.g.
// top-down "surface friction") independent of contact friction.
// ---------------------------------------------------------------------------

type FrictionJoint struct {
	jointBase
	MaxForce, MaxTorque float64

	linearImpulse  mgl64.Vec2
	angularImpulse float64
}

func NewFrictionJoint(a, b *actor.RigidBody, maxForce, maxTorque float64) *FrictionJoint {
	return &FrictionJoint{jointBase: newJointBase(a, b, true), MaxForce: maxForce, MaxTorque: maxTorque}
}

func (j *FrictionJoint) SolveVelocity(dt float64) {
	aMass := 1.0 / maxf(j.BodyA.Mass.InvInertia+j.BodyB.Mass.InvInertia, 1e-12)
	cDot := j.BodyB.AngularVelocity - j.BodyA.AngularVelocity
	impulse := -aMass * cDot
	old := j.angularImpulse
	maxAngular := j.MaxTorque * dt
	j.angularImpulse = actor.Clamp(old+impulse, -maxAngular, maxAngular)
	impulse = j.angularImpulse - old
	j.BodyA.AngularVelocity -= j.BodyA.Mass.InvInertia * impulse
	j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * impulse

	lMass := 1.0 / maxf(j.BodyA.Mass.InvMass+j.BodyB.Mass.InvMass, 1e-12)
	vrel := j.BodyB.LinearVelocity.Sub(j.BodyA.LinearVelocity)
	lin := vrel.Mul(-lMass)
	oldLin := j.linearImpulse
	j.linearImpulse = j.linearImpulse.Add(lin)
	maxLinear := j.MaxForce * dt
	if j.linearImpulse.Len() > maxLinear {
		j.linearImpulse = j.linearImpulse.Mul(maxLinear / j.linearImpulse.Len())
	}
	lin = j.linearImpulse.Sub(oldLin)

	j.BodyA.LinearVelocity = j.BodyA.LinearVelocity.Sub(lin.Mul(j.BodyA.Mass.InvMass))
	j.BodyB.LinearVelocity = j.BodyB.LinearVelocity.Add(lin.Mul(j.BodyB.Mass.InvMass))
}

func (j *FrictionJoint) SolvePosition(dt float64) bool { return true }

// ---------------------------------------------------------------------------
// PulleyJoint: two "ground" anchors connected to BodyA/BodyB through a
// length ratio, the classic two-bucket-on-a-pulley constraint.
// ---------------------------------------------------------------------------

type PulleyJoint struct {
	jointBase
	GroundAnchorA, GroundAnchorB mgl64.Vec2
	LocalAnchorA, LocalAnchorB   mgl64.Vec2
	LengthA, LengthB             float64
	Ratio                        float64

	impulse float64
}

func NewPulleyJoint(a, b *actor.RigidBody, groundA, groundB, localAnchorA, localAnchorB mgl64.Vec2, ratio float64, collideConnected bool) *PulleyJoint {
	pa := a.Transform.ToWorld(localAnchorA)
	pb := b.Transform.ToWorld(localAnchorB)
	return &PulleyJoint{
		jointBase:     newJointBase(a, b, collideConnected),
		GroundAnchorA: groundA, GroundAnchorB: groundB,
		LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB,
		LengthA: pa.Sub(groundA).Len(), LengthB: pb.Sub(groundB).Len(),
		Ratio: ratio,
	}
}

func (j *PulleyJoint) axes() (axisA, axisB, rA, rB mgl64.Vec2, lengthA, lengthB float64) {
	pA := j.BodyA.Transform.ToWorld(j.LocalAnchorA)
	pB := j.BodyB.Transform.ToWorld(j.LocalAnchorB)
	dA := pA.Sub(j.GroundAnchorA)
	dB := pB.Sub(j.GroundAnchorB)
	lengthA, lengthB = dA.Len(), dB.Len()
	axisA, axisB = mgl64.Vec2{0, 1}, mgl64.Vec2{0, 1}
	if lengthA > 1e-9 {
		axisA = dA.Mul(1.0 / lengthA)
	}
	if lengthB > 1e-9 {
		axisB = dB.Mul(1.0 / lengthB)
	}
	rA = pA.Sub(j.BodyA.Transform.Position)
	rB = pB.Sub(j.BodyB.Transform.Position)
	return
}

func (j *PulleyJoint) constant() float64 { return j.LengthA + j.Ratio*j.LengthB }

func (j *PulleyJoint) combinedMass(axisA, axisB, rA, rB mgl64.Vec2) float64 {
	crA := actor.Cross2(rA, axisA)
	crB := actor.Cross2(rB, axisB)
	k := j.BodyA.Mass.InvMass + j.BodyA.Mass.InvInertia*crA*crA +
		j.Ratio*j.Ratio*(j.BodyB.Mass.InvMass+j.BodyB.Mass.InvInertia*crB*crB)
	if k < 1e-12 {
		return 0
	}
	return 1.0 / k
}

func (j *PulleyJoint) SolveVelocity(dt float64) {
	axisA, axisB, rA, rB, _, _ := j.axes()
	mass := j.combinedMass(axisA, axisB, rA, rB)
	if mass == 0 {
		return
	}

	vA := j.BodyA.LinearVelocity.Add(actor.CrossScalarVec(j.BodyA.AngularVelocity, rA))
	vB := j.BodyB.LinearVelocity.Add(actor.CrossScalarVec(j.BodyB.AngularVelocity, rB))
	cDot := -vA.Dot(axisA) - j.Ratio*vB.Dot(axisB)

	impulse := -mass * cDot
	j.impulse += impulse

	pA := axisA.Mul(-impulse)
	pB := axisB.Mul(-j.Ratio * impulse)

	j.BodyA.LinearVelocity = j.BodyA.LinearVelocity.Add(pA.Mul(j.BodyA.Mass.InvMass))
	j.BodyA.AngularVelocity += j.BodyA.Mass.InvInertia * actor.Cross2(rA, pA)
	j.BodyB.LinearVelocity = j.BodyB.LinearVelocity.Add(pB.Mul(j.BodyB.Mass.InvMass))
	j.BodyB.AngularVelocity += j.BodyB.Mass.InvInertia * actor.Cross2(rB, pB)
}

func (j *PulleyJoint) SolvePosition(dt float64) bool {
	axisA, axisB, rA, rB, lengthA, lengthB := j.axes()
	c := j.constant() - lengthA - j.Ratio*lengthB
	if math.Abs(c) < 1e-4 {
		return true
	}
	mass := j.combinedMass(axisA, axisB, rA, rB)
	if mass == 0 {
		return true
	}
	impulse := -mass * c

	pA := axisA.Mul(-impulse)
	pB := axisB.Mul(-j.Ratio * impulse)

	j.BodyA.Transform.Position = j.BodyA.Transform.Position.Add(pA.Mul(j.BodyA.Mass.InvMass))
	j.BodyA.Transform.SetAngle(j.BodyA.Transform.Angle() + j.BodyA.Mass.InvInertia*actor.Cross2(rA, pA))
	j.BodyB.Transform.Position = j.BodyB.Transform.Position.Add(pB.Mul(j.BodyB.Mass.InvMass))
	j.BodyB.Transform.SetAngle(j.BodyB.Transform.Angle() + j.BodyB.Mass.InvInertia*actor.Cross2(rB, pB))
	return false
}
