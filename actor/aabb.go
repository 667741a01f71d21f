package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// ContainsPoint reports whether point lies within the box (inclusive).
func (a AABB) ContainsPoint(point mgl64.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y()
}

// Overlaps reports whether the two boxes intersect on both axes.
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Union returns the smallest AABB containing both a and other.
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec2{math.Min(a.Min.X(), other.Min.X()), math.Min(a.Min.Y(), other.Min.Y())},
		Max: mgl64.Vec2{math.Max(a.Max.X(), other.Max.X()), math.Max(a.Max.Y(), other.Max.Y())},
	}
}

// Expand grows the box by margin on every side (used for broad-phase fattening).
func (a AABB) Expand(margin float64) AABB {
	m := mgl64.Vec2{margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Width returns the box's extent along the x axis.
func (a AABB) Width() float64 {
	return a.Max.X() - a.Min.X()
}

// Height returns the box's extent along the y axis.
func (a AABB) Height() float64 {
	return a.Max.Y() - a.Min.Y()
}

// RayIntersect performs a segment/AABB intersection test (slab method),
// returning the entry parameter t in [0, maxLen] along origin+dir*t, or
// ok=false if the ray misses or maxLen is exceeded.
func (a AABB) RayIntersect(origin, dir mgl64.Vec2, maxLen float64) (t float64, ok bool) {
	tMin, tMax := 0.0, maxLen

	for axis := 0; axis < 2; axis++ {
		o, d := origin[axis], dir[axis]
		lo, hi := a.Min[axis], a.Max[axis]

		if math.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}

		inv := 1.0 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}
