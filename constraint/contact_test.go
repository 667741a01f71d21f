package constraint

import (
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func dynamicBody(t *testing.T, pos mgl64.Vec2) *actor.RigidBody {
	t.Helper()
	poly, err := actor.NewPolygon([]mgl64.Vec2{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	f, err := actor.NewFixture(poly, 1, 0.3, 0)
	if err != nil {
		t.Fatal(err)
	}
	b := actor.NewRigidBody()
	b.Transform = actor.NewTransformAt(pos, 0)
	b.AddFixture(f)
	return b
}

func staticBody(t *testing.T, pos mgl64.Vec2) *actor.RigidBody {
	t.Helper()
	b := dynamicBody(t, pos)
	b.Mass = actor.InfiniteAtOrigin()
	return b
}

func TestContactConstraint_SolveNormal_StopsPenetratingVelocity(t *testing.T) {
	ground := staticBody(t, mgl64.Vec2{0, -0.5})
	box := dynamicBody(t, mgl64.Vec2{0, 0.5})
	box.LinearVelocity = mgl64.Vec2{0, -5}

	c := &ContactConstraint{
		BodyA:       ground,
		BodyB:       box,
		Normal:      mgl64.Vec2{0, 1},
		Points:      []ContactPoint{{Point: mgl64.Vec2{0, 0}, Depth: 0.01}},
		Friction:    0.3,
		Restitution: 0,
		Settings:    DefaultContactSettings(),
	}

	c.Prepare(false)
	for i := 0; i < 10; i++ {
		c.SolveFriction()
		c.SolveNormal()
	}

	if box.LinearVelocity.Y() < -1e-6 {
		t.Errorf("box still approaching ground after solving: vy = %v", box.LinearVelocity.Y())
	}
	if c.Points[0].NormalImpulse < 0 {
		t.Errorf("NormalImpulse = %v, must stay non-negative", c.Points[0].NormalImpulse)
	}
}

func TestContactConstraint_SolveFriction_ClampedByCoulombCone(t *testing.T) {
	ground := staticBody(t, mgl64.Vec2{0, -0.5})
	box := dynamicBody(t, mgl64.Vec2{0, 0.5})
	box.LinearVelocity = mgl64.Vec2{10, -1}

	c := &ContactConstraint{
		BodyA:       ground,
		BodyB:       box,
		Normal:      mgl64.Vec2{0, 1},
		Points:      []ContactPoint{{Point: mgl64.Vec2{0, 0}, Depth: 0.01}},
		Friction:    0.5,
		Restitution: 0,
		Settings:    DefaultContactSettings(),
	}

	c.Prepare(false)
	c.SolveFriction()
	c.SolveNormal()

	p := c.Points[0]
	maxFriction := c.Friction * p.NormalImpulse
	if p.TangentImpulse > maxFriction+1e-9 || p.TangentImpulse < -maxFriction-1e-9 {
		t.Errorf("TangentImpulse = %v, want within [-%v, %v]", p.TangentImpulse, maxFriction, maxFriction)
	}
}

func TestContactConstraint_Prepare_WarmStartCarriesImpulse(t *testing.T) {
	ground := staticBody(t, mgl64.Vec2{0, -0.5})
	box := dynamicBody(t, mgl64.Vec2{0, 0.5})

	c := &ContactConstraint{
		BodyA:    ground,
		BodyB:    box,
		Normal:   mgl64.Vec2{0, 1},
		Points:   []ContactPoint{{Point: mgl64.Vec2{0, 0}, Depth: 0.01, NormalImpulse: 2, TangentImpulse: 0.5}},
		Friction: 0.3,
		Settings: DefaultContactSettings(),
	}

	vBefore := box.LinearVelocity
	c.Prepare(true)

	if box.LinearVelocity == vBefore {
		t.Error("expected warm-starting to apply the carried-over impulse immediately")
	}
}

func TestContactConstraint_Prepare_NoWarmStartZeroesImpulse(t *testing.T) {
	ground := staticBody(t, mgl64.Vec2{0, -0.5})
	box := dynamicBody(t, mgl64.Vec2{0, 0.5})

	c := &ContactConstraint{
		BodyA:    ground,
		BodyB:    box,
		Normal:   mgl64.Vec2{0, 1},
		Points:   []ContactPoint{{Point: mgl64.Vec2{0, 0}, Depth: 0.01, NormalImpulse: 2, TangentImpulse: 0.5}},
		Friction: 0.3,
		Settings: DefaultContactSettings(),
	}

	c.Prepare(false)

	if c.Points[0].NormalImpulse != 0 || c.Points[0].TangentImpulse != 0 {
		t.Error("expected accumulated impulses to reset without warm-starting")
	}
}

func TestContactConstraint_SolvePosition_PushesBoxAboveGround(t *testing.T) {
	ground := staticBody(t, mgl64.Vec2{0, -0.5})
	box := dynamicBody(t, mgl64.Vec2{0, 0.49})

	c := &ContactConstraint{
		BodyA:    ground,
		BodyB:    box,
		Normal:   mgl64.Vec2{0, 1},
		Points:   []ContactPoint{{Point: mgl64.Vec2{0, 0}, Depth: 0.02}},
		Friction: 0.3,
		Settings: DefaultContactSettings(),
	}

	c.Prepare(false)
	for i := 0; i < 10 && !c.SolvePosition(); i++ {
	}

	if box.Transform.Position.Y() <= 0.49 {
		t.Errorf("box.y = %v, expected to be pushed upward away from the ground", box.Transform.Position.Y())
	}
}
