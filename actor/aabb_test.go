package actor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAABB_Overlaps(t *testing.T) {
	a := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{1, 1}}

	tests := []struct {
		name  string
		other AABB
		want  bool
	}{
		{"overlapping", AABB{Min: mgl64.Vec2{0.5, 0.5}, Max: mgl64.Vec2{2, 2}}, true},
		{"touching edge", AABB{Min: mgl64.Vec2{1, 0}, Max: mgl64.Vec2{2, 1}}, true},
		{"disjoint", AABB{Min: mgl64.Vec2{5, 5}, Max: mgl64.Vec2{6, 6}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps(%v) = %v, want %v", tt.other, got, tt.want)
			}
		})
	}
}

func TestAABB_ContainsPoint(t *testing.T) {
	a := AABB{Min: mgl64.Vec2{-1, -1}, Max: mgl64.Vec2{1, 1}}
	if !a.ContainsPoint(mgl64.Vec2{0, 0}) {
		t.Error("expected origin to be contained")
	}
	if a.ContainsPoint(mgl64.Vec2{2, 0}) {
		t.Error("expected (2,0) to be outside")
	}
}

func TestAABB_Union(t *testing.T) {
	a := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{1, 1}}
	b := AABB{Min: mgl64.Vec2{-1, 2}, Max: mgl64.Vec2{0.5, 3}}

	u := a.Union(b)
	want := AABB{Min: mgl64.Vec2{-1, 0}, Max: mgl64.Vec2{1, 3}}
	if u.Min != want.Min || u.Max != want.Max {
		t.Errorf("Union = %+v, want %+v", u, want)
	}
}

func TestAABB_RayIntersect(t *testing.T) {
	box := AABB{Min: mgl64.Vec2{-1, -1}, Max: mgl64.Vec2{1, 1}}

	t_, ok := box.RayIntersect(mgl64.Vec2{-5, 0}, mgl64.Vec2{1, 0}, 10)
	if !ok || t_ != 4 {
		t.Errorf("RayIntersect hit = (%v, %v), want (4, true)", t_, ok)
	}

	_, ok = box.RayIntersect(mgl64.Vec2{-5, 5}, mgl64.Vec2{1, 0}, 10)
	if ok {
		t.Error("expected miss for parallel ray outside the box")
	}

	_, ok = box.RayIntersect(mgl64.Vec2{-5, 0}, mgl64.Vec2{1, 0}, 1)
	if ok {
		t.Error("expected miss when maxLen is shorter than the distance to the box")
	}
}
