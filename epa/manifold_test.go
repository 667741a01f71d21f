package epa

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestGenerateManifold_BoxesFaceToFace_TwoPoints(t *testing.T) {
	a := boxFixture(t, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := boxFixture(t, mgl64.Vec2{1.8, 0}, mgl64.Vec2{1, 1})

	result := runGJKEPA(t, a, b)
	manifold := GenerateManifold(a, b, result.Normal, result.Depth)

	if len(manifold.Points) != 2 {
		t.Fatalf("len(Points) = %d, want 2 for flush face-to-face boxes", len(manifold.Points))
	}
	for _, p := range manifold.Points {
		if p.Penetration <= 0 {
			t.Errorf("Penetration = %v, want > 0", p.Penetration)
		}
	}
}

func TestGenerateManifold_CornerOverlap_FewerPoints(t *testing.T) {
	a := boxFixture(t, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := boxFixture(t, mgl64.Vec2{1.9, 1.9}, mgl64.Vec2{1, 1})

	result := runGJKEPA(t, a, b)
	manifold := GenerateManifold(a, b, result.Normal, result.Depth)

	if len(manifold.Points) == 0 {
		t.Fatal("expected at least one contact point for corner overlap")
	}
	if len(manifold.Points) > 2 {
		t.Errorf("len(Points) = %d, want <= 2", len(manifold.Points))
	}
}

func TestGenerateManifold_FeatureIDsStableAcrossSmallMovement(t *testing.T) {
	a := boxFixture(t, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b1 := boxFixture(t, mgl64.Vec2{1.8, 0}, mgl64.Vec2{1, 1})
	b2 := boxFixture(t, mgl64.Vec2{1.79, 0.01}, mgl64.Vec2{1, 1})

	r1 := runGJKEPA(t, a, b1)
	m1 := GenerateManifold(a, b1, r1.Normal, r1.Depth)

	r2 := runGJKEPA(t, a, b2)
	m2 := GenerateManifold(a, b2, r2.Normal, r2.Depth)

	if len(m1.Points) == 0 || len(m2.Points) == 0 {
		t.Fatal("expected contact points in both frames")
	}

	found := false
	for _, p1 := range m1.Points {
		for _, p2 := range m2.Points {
			if p1.ID == p2.ID {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected at least one matching FeatureID across a small relative movement")
	}
}

func TestCollide_CircleCircle_Overlapping(t *testing.T) {
	a := circleFixture(t, mgl64.Vec2{0, 0}, 1.0)
	b := circleFixture(t, mgl64.Vec2{1.5, 0}, 1.0)

	manifold, hit := Collide(a, b)
	if !hit {
		t.Fatal("expected collision between overlapping circles")
	}
	if len(manifold.Points) != 1 {
		t.Fatalf("len(Points) = %d, want 1", len(manifold.Points))
	}
	if math.Abs(manifold.Points[0].Penetration-0.5) > 1e-9 {
		t.Errorf("Penetration = %v, want 0.5", manifold.Points[0].Penetration)
	}
	if manifold.Normal.X() <= 0 {
		t.Errorf("Normal = %v, want +X", manifold.Normal)
	}
}

func TestCollide_CircleCircle_Separated(t *testing.T) {
	a := circleFixture(t, mgl64.Vec2{0, 0}, 1.0)
	b := circleFixture(t, mgl64.Vec2{5, 0}, 1.0)

	_, hit := Collide(a, b)
	if hit {
		t.Error("expected no collision between separated circles")
	}
}

func TestCollide_CirclePolygon_FaceContact(t *testing.T) {
	box := boxFixture(t, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	circle := circleFixture(t, mgl64.Vec2{1.5, 0}, 1.0)

	manifold, hit := Collide(box, circle)
	if !hit {
		t.Fatal("expected collision between box and overlapping circle")
	}
	if len(manifold.Points) != 1 {
		t.Fatalf("len(Points) = %d, want 1", len(manifold.Points))
	}
	if manifold.Normal.X() <= 0 {
		t.Errorf("Normal = %v, want +X (A=box toward B=circle)", manifold.Normal)
	}
}

func TestCollide_CirclePolygon_CornerContact(t *testing.T) {
	box := boxFixture(t, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	circle := circleFixture(t, mgl64.Vec2{1.6, 1.6}, 1.0)

	manifold, hit := Collide(box, circle)
	if !hit {
		t.Fatal("expected collision between box corner and circle")
	}
	if len(manifold.Points) != 1 {
		t.Fatalf("len(Points) = %d, want 1", len(manifold.Points))
	}

	want := mgl64.Vec2{1, 1}.Normalize()
	if math.Abs(manifold.Normal.Dot(want)-1) > 0.05 {
		t.Errorf("Normal = %v, want ~%v", manifold.Normal, want)
	}
}

func TestCollide_CirclePolygon_Separated(t *testing.T) {
	box := boxFixture(t, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	circle := circleFixture(t, mgl64.Vec2{5, 0}, 1.0)

	_, hit := Collide(box, circle)
	if hit {
		t.Error("expected no collision between distant box and circle")
	}
}

func TestCollide_Polygons_DispatchesToGJKEPA(t *testing.T) {
	a := boxFixture(t, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1})
	b := boxFixture(t, mgl64.Vec2{1.5, 0}, mgl64.Vec2{1, 1})

	manifold, hit := Collide(a, b)
	if !hit {
		t.Fatal("expected collision between overlapping boxes")
	}
	if len(manifold.Points) == 0 {
		t.Error("expected at least one contact point")
	}
}
