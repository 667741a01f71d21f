package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func freeBody(t *testing.T, pos mgl64.Vec2) *actor.RigidBody {
	t.Helper()
	circle, err := actor.NewCircle(mgl64.Vec2{0, 0}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	f, err := actor.NewFixture(circle, 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b := actor.NewRigidBody()
	b.Transform = actor.NewTransformAt(pos, 0)
	b.AddFixture(f)
	return b
}

func TestDistanceJoint_SolveVelocity_ConvergesLengthOverTime(t *testing.T) {
	a := freeBody(t, mgl64.Vec2{0, 0})
	a.Mass = actor.InfiniteAtOrigin()
	b := freeBody(t, mgl64.Vec2{3, 0})

	j := NewDistanceJoint(a, b, mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}, 2, true)

	const dt = 1.0 / 60.0
	for i := 0; i < 120; i++ {
		j.SolveVelocity(dt)
		b.Transform.Position = b.Transform.Position.Add(b.LinearVelocity.Mul(dt))
	}

	gotLength := b.Transform.Position.Sub(a.Transform.Position).Len()
	if math.Abs(gotLength-2) > 0.05 {
		t.Errorf("distance = %v, want close to 2", gotLength)
	}
}

func TestDistanceJoint_SolvePosition_SatisfiesExactLength(t *testing.T) {
	a := freeBody(t, mgl64.Vec2{0, 0})
	a.Mass = actor.InfiniteAtOrigin()
	b := freeBody(t, mgl64.Vec2{5, 0})

	j := NewDistanceJoint(a, b, mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}, 2, true)

	solved := false
	for i := 0; i < 50 && !solved; i++ {
		solved = j.SolvePosition(1.0 / 60.0)
	}

	gotLength := b.Transform.Position.Sub(a.Transform.Position).Len()
	if math.Abs(gotLength-2) > 1e-3 {
		t.Errorf("distance = %v, want 2 within tolerance", gotLength)
	}
}

func TestRevoluteJoint_SolveVelocity_PullsAnchorsTogether(t *testing.T) {
	a := freeBody(t, mgl64.Vec2{0, 0})
	a.Mass = actor.InfiniteAtOrigin()
	b := freeBody(t, mgl64.Vec2{1, 0})
	b.LinearVelocity = mgl64.Vec2{0, 3}

	j := NewRevoluteJoint(a, b, mgl64.Vec2{0, 0}, mgl64.Vec2{-1, 0}, true)

	const dt = 1.0 / 120.0
	initialSpeed := b.LinearVelocity.Len()
	for i := 0; i < 30; i++ {
		j.SolveVelocity(dt)
	}

	if b.AngularVelocity == 0 {
		t.Error("expected the revolute joint to induce rotation when the anchor is offset from the center of mass")
	}
	if b.LinearVelocity.Len() >= initialSpeed {
		t.Error("expected the joint to redirect some linear velocity into constrained motion")
	}
}

func TestRevoluteJoint_Limit_StopsRotationAtUpperAngle(t *testing.T) {
	a := freeBody(t, mgl64.Vec2{0, 0})
	a.Mass = actor.InfiniteAtOrigin()
	b := freeBody(t, mgl64.Vec2{1, 0})
	b.AngularVelocity = 5

	j := NewRevoluteJoint(a, b, mgl64.Vec2{1, 0}, mgl64.Vec2{0, 0}, true)
	j.EnableLimit = true
	j.LowerAngle = -0.2
	j.UpperAngle = 0.2

	const dt = 1.0 / 120.0
	for i := 0; i < 120; i++ {
		j.SolveVelocity(dt)
		b.Transform.SetAngle(b.Transform.Angle() + b.AngularVelocity*dt)
		j.SolvePosition(dt)
	}

	// The velocity row only detects a violation a step after it happens, so
	// allow a one-step overshoot margin (AngularVelocity*dt) on top of the
	// bound itself.
	angle := b.Transform.Angle() - a.Transform.Angle()
	if angle > j.UpperAngle+5*dt {
		t.Errorf("angle = %v, want at or below UpperAngle %v", angle, j.UpperAngle)
	}
}

func TestPrismaticJoint_Limit_StopsTranslationAtUpperBound(t *testing.T) {
	a := freeBody(t, mgl64.Vec2{0, 0})
	a.Mass = actor.InfiniteAtOrigin()
	b := freeBody(t, mgl64.Vec2{0, 0})
	b.LinearVelocity = mgl64.Vec2{5, 0}

	j := NewPrismaticJoint(a, b, mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, true)
	j.EnableLimit = true
	j.LowerTranslation = -1
	j.UpperTranslation = 1

	const dt = 1.0 / 60.0
	for i := 0; i < 60; i++ {
		j.SolveVelocity(dt)
		b.Transform.Position = b.Transform.Position.Add(b.LinearVelocity.Mul(dt))
		j.SolvePosition(dt)
	}

	// Same one-step detection lag as the revolute limit test above: allow a
	// margin of LinearVelocity.X*dt on top of the bound.
	_, _, _, _, translation := j.frame()
	if translation > j.UpperTranslation+5*dt {
		t.Errorf("translation = %v, want at or below UpperTranslation %v", translation, j.UpperTranslation)
	}
}

func TestFrictionJoint_SolveVelocity_DampsVelocity(t *testing.T) {
	a := freeBody(t, mgl64.Vec2{0, 0})
	a.Mass = actor.InfiniteAtOrigin()
	b := freeBody(t, mgl64.Vec2{0, 0})
	b.LinearVelocity = mgl64.Vec2{5, 0}

	j := NewFrictionJoint(a, b, 1.0, 1.0)

	speedBefore := b.LinearVelocity.Len()
	for i := 0; i < 10; i++ {
		j.SolveVelocity(1.0 / 60.0)
	}

	if b.LinearVelocity.Len() >= speedBefore {
		t.Errorf("speed after = %v, want less than %v", b.LinearVelocity.Len(), speedBefore)
	}
}

func TestRopeJoint_SolveVelocity_LimitsStretchBeyondMaxLength(t *testing.T) {
	a := freeBody(t, mgl64.Vec2{0, 0})
	a.Mass = actor.InfiniteAtOrigin()
	b := freeBody(t, mgl64.Vec2{3, 0})
	b.LinearVelocity = mgl64.Vec2{5, 0}

	j := NewRopeJoint(a, b, mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}, 3, true)

	const dt = 1.0 / 60.0
	for i := 0; i < 30; i++ {
		j.SolveVelocity(dt)
		b.Transform.Position = b.Transform.Position.Add(b.LinearVelocity.Mul(dt))
	}

	if b.LinearVelocity.X() > 1e-6 && b.Transform.Position.X() > 3.1 {
		t.Errorf("rope should have arrested outward velocity past max length, pos.x = %v vel.x = %v",
			b.Transform.Position.X(), b.LinearVelocity.X())
	}
}
