package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func createCircleBody(position mgl64.Vec2, radius float64) *actor.BodyFixture {
	c, err := actor.NewCircle(mgl64.Vec2{0, 0}, radius)
	if err != nil {
		panic(err)
	}
	f, err := actor.NewFixture(c, 1.0, 0.2, 0)
	if err != nil {
		panic(err)
	}
	b := actor.NewRigidBody()
	b.Transform = actor.NewTransformAt(position, 0)
	b.AddFixture(f)
	return f
}

func createBoxBody(position mgl64.Vec2, halfExtents mgl64.Vec2) *actor.BodyFixture {
	verts := []mgl64.Vec2{
		{-halfExtents.X(), -halfExtents.Y()},
		{halfExtents.X(), -halfExtents.Y()},
		{halfExtents.X(), halfExtents.Y()},
		{-halfExtents.X(), halfExtents.Y()},
	}
	poly, err := actor.NewPolygon(verts)
	if err != nil {
		panic(err)
	}
	f, err := actor.NewFixture(poly, 1.0, 0.2, 0)
	if err != nil {
		panic(err)
	}
	b := actor.NewRigidBody()
	b.Transform = actor.NewTransformAt(position, 0)
	b.AddFixture(f)
	return f
}

func TestMinkowskiSupport_SeparatedCircles(t *testing.T) {
	a := createCircleBody(mgl64.Vec2{0, 0}, 1.0)
	b := createCircleBody(mgl64.Vec2{3, 0}, 1.0)

	support := MinkowskiSupport(a, b, mgl64.Vec2{1, 0})

	want := -1.0
	if support.X() != want {
		t.Errorf("support.X() = %v, want %v", support.X(), want)
	}
}

func TestMinkowskiSupport_OverlappingCircles(t *testing.T) {
	a := createCircleBody(mgl64.Vec2{0, 0}, 1.0)
	b := createCircleBody(mgl64.Vec2{1.5, 0}, 1.0)

	support := MinkowskiSupport(a, b, mgl64.Vec2{1, 0})

	want := 0.5
	if support.X() != want {
		t.Errorf("support.X() = %v, want %v", support.X(), want)
	}
}

func TestGJK_Circles_Overlapping(t *testing.T) {
	a := createCircleBody(mgl64.Vec2{0, 0}, 1.0)
	b := createCircleBody(mgl64.Vec2{1.5, 0}, 1.0)
	simplex := &Simplex{}

	if !GJK(a, b, simplex) {
		t.Error("expected collision between overlapping circles")
	}
}

func TestGJK_Circles_Separated(t *testing.T) {
	a := createCircleBody(mgl64.Vec2{0, 0}, 1.0)
	b := createCircleBody(mgl64.Vec2{5, 0}, 1.0)
	simplex := &Simplex{}

	if GJK(a, b, simplex) {
		t.Error("expected no collision between separated circles")
	}
}

func TestGJK_Boxes_Overlapping(t *testing.T) {
	a := createBoxBody(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := createBoxBody(mgl64.Vec2{1.5, 0}, mgl64.Vec2{1, 1})
	simplex := &Simplex{}

	if !GJK(a, b, simplex) {
		t.Error("expected collision between overlapping boxes")
	}
}

func TestGJK_Boxes_Separated(t *testing.T) {
	a := createBoxBody(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := createBoxBody(mgl64.Vec2{10, 0}, mgl64.Vec2{1, 1})
	simplex := &Simplex{}

	if GJK(a, b, simplex) {
		t.Error("expected no collision between separated boxes")
	}
}

func TestGJK_BoxAndCircle_Overlapping(t *testing.T) {
	a := createBoxBody(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := createCircleBody(mgl64.Vec2{1.5, 0}, 1.0)
	simplex := &Simplex{}

	if !GJK(a, b, simplex) {
		t.Error("expected collision between overlapping box and circle")
	}
}

func TestGJK_BoxAndCircle_Touching(t *testing.T) {
	a := createBoxBody(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := createCircleBody(mgl64.Vec2{2.0, 0}, 1.0)
	simplex := &Simplex{}

	if GJK(a, b, simplex) {
		t.Error("expected exactly touching box and circle (zero overlap) to report no collision")
	}
}

func TestGJK_StackedBoxes_CornerOverlap(t *testing.T) {
	a := createBoxBody(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := createBoxBody(mgl64.Vec2{1.9, 1.9}, mgl64.Vec2{1, 1})
	simplex := &Simplex{}

	if !GJK(a, b, simplex) {
		t.Error("expected collision between boxes overlapping at a corner")
	}
}

func TestGJK_IdenticalPosition(t *testing.T) {
	a := createCircleBody(mgl64.Vec2{3, 3}, 1.0)
	b := createBoxBody(mgl64.Vec2{3, 3}, mgl64.Vec2{1, 1})
	simplex := &Simplex{}

	if !GJK(a, b, simplex) {
		t.Error("expected collision for coincident shapes")
	}
}

func TestDistance_SeparatedCircles(t *testing.T) {
	a := createCircleBody(mgl64.Vec2{0, 0}, 1.0)
	b := createCircleBody(mgl64.Vec2{3, 0}, 1.0)

	d, n := Distance(a, b)
	if math.Abs(d-1) > 1e-6 {
		t.Errorf("Distance = %v, want 1", d)
	}
	if n.Sub(mgl64.Vec2{1, 0}).Len() > 1e-3 {
		t.Errorf("direction = %v, want +X (from a toward b)", n)
	}
}

func TestDistance_SeparatedBoxes(t *testing.T) {
	a := createBoxBody(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := createBoxBody(mgl64.Vec2{4, 0}, mgl64.Vec2{1, 1})

	d, n := Distance(a, b)
	if math.Abs(d-2) > 1e-6 {
		t.Errorf("Distance = %v, want 2", d)
	}
	if n.Sub(mgl64.Vec2{1, 0}).Len() > 1e-3 {
		t.Errorf("direction = %v, want +X", n)
	}
}

func TestDistance_Overlapping_ReportsZero(t *testing.T) {
	a := createCircleBody(mgl64.Vec2{0, 0}, 1.0)
	b := createCircleBody(mgl64.Vec2{1.5, 0}, 1.0)

	if d, _ := Distance(a, b); d != 0 {
		t.Errorf("Distance = %v, want 0 for overlapping shapes", d)
	}
}
