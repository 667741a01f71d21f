package feather

import (
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func gridFixture(t *testing.T, center mgl64.Vec2, halfWidth float64) *actor.BodyFixture {
	t.Helper()
	poly, err := actor.NewPolygon([]mgl64.Vec2{
		{-halfWidth, -halfWidth},
		{halfWidth, -halfWidth},
		{halfWidth, halfWidth},
		{-halfWidth, halfWidth},
	})
	if err != nil {
		t.Fatal(err)
	}
	f, err := actor.NewFixture(poly, 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b := actor.NewRigidBody()
	b.Transform = actor.NewTransformAt(center, 0)
	b.AddFixture(f)
	b.RecomputeFixtureAABBs()
	return f
}

func TestSpatialGrid_FindPairs_OverlappingFixtures(t *testing.T) {
	g := NewSpatialGrid(2, 64)
	a := gridFixture(t, mgl64.Vec2{0, 0}, 0.5)
	b := gridFixture(t, mgl64.Vec2{0.8, 0}, 0.5)
	c := gridFixture(t, mgl64.Vec2{20, 20}, 0.5)

	g.Insert(a)
	g.Insert(b)
	g.Insert(c)

	pairs := g.FindPairs()
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	got := pairs[0]
	if !(got.A == a && got.B == b) && !(got.A == b && got.B == a) {
		t.Errorf("pair = %+v, want {a, b}", got)
	}
}

func TestSpatialGrid_Remove_StopsReportingPairs(t *testing.T) {
	g := NewSpatialGrid(2, 64)
	a := gridFixture(t, mgl64.Vec2{0, 0}, 0.5)
	b := gridFixture(t, mgl64.Vec2{0.8, 0}, 0.5)
	g.Insert(a)
	g.Insert(b)
	g.Remove(a)

	if pairs := g.FindPairs(); len(pairs) != 0 {
		t.Errorf("got %d pairs after Remove, want 0", len(pairs))
	}
}

func TestSpatialGrid_QueryPoint_FindsContainingFixture(t *testing.T) {
	g := NewSpatialGrid(2, 64)
	a := gridFixture(t, mgl64.Vec2{5, 5}, 1)
	g.Insert(a)

	hits := g.QueryPoint(mgl64.Vec2{5, 5})
	if len(hits) != 1 || hits[0] != a {
		t.Errorf("QueryPoint(5,5) = %v, want [a]", hits)
	}

	if hits := g.QueryPoint(mgl64.Vec2{100, 100}); len(hits) != 0 {
		t.Errorf("QueryPoint(100,100) = %v, want none", hits)
	}
}

func TestSpatialGrid_RayCast_ClosestHitFirst(t *testing.T) {
	g := NewSpatialGrid(2, 64)
	near := gridFixture(t, mgl64.Vec2{5, 0}, 0.5)
	far := gridFixture(t, mgl64.Vec2{10, 0}, 0.5)
	g.Insert(near)
	g.Insert(far)

	hits := g.RayCast(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, 20, true)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Fixture != near {
		t.Error("expected the nearer fixture to be reported first")
	}

	single := g.RayCast(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, 20, false)
	if len(single) != 1 || single[0].Fixture != near {
		t.Errorf("all=false should return only the closest hit")
	}
}

func TestSpatialGrid_Move_UpdatesCellMembership(t *testing.T) {
	g := NewSpatialGrid(2, 64)
	a := gridFixture(t, mgl64.Vec2{0, 0}, 0.5)
	b := gridFixture(t, mgl64.Vec2{50, 50}, 0.5)
	g.Insert(a)
	g.Insert(b)

	if pairs := g.FindPairs(); len(pairs) != 0 {
		t.Fatalf("got %d pairs before moving, want 0", len(pairs))
	}

	a.Body().Transform = actor.NewTransformAt(mgl64.Vec2{50.3, 50}, 0)
	a.ComputeAABB(a.Body().Transform)
	g.Move(a)

	if pairs := g.FindPairs(); len(pairs) != 1 {
		t.Errorf("got %d pairs after moving into range, want 1", len(pairs))
	}
}
