// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for 2D collision
// detection.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, converging toward
// the origin in typically 3-6 iterations.
//
// In 2D the simplex never grows past a triangle: a triangle either contains the
// origin (collision) or it doesn't, in which case it reduces to its closest edge
// or vertex. There is no tetrahedron case.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Simplex represents a set of 1-3 points in the Minkowski difference space.
// The simplex evolves during GJK iterations, always containing the most recent
// support point at index Count-1.
// Size progression: 1 point -> 2 points (line) -> 3 points (triangle)
type Simplex struct {
	Points [3]mgl64.Vec2
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// Supporter is anything that can report its farthest point in world space
// along a direction. *actor.RigidBody (whole-body), *actor.BodyFixture
// (single fixture, used by narrow-phase) and the CCD sweep's swept-pose
// wrapper implement it.
type Supporter interface {
	SupportWorld(direction mgl64.Vec2) mgl64.Vec2
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B).
//
// The Minkowski difference A - B is the set of all vectors (a - b) where a is in A
// and b is in B. For collision detection, we only need the extreme points
// (support points) in any direction.
//
// This is the fundamental query that makes GJK work for any convex shape - shapes
// only need to implement a Support() function, not expose their full geometry.
func MinkowskiSupport(a, b Supporter, direction mgl64.Vec2) mgl64.Vec2 {
	supportA := a.SupportWorld(direction)
	supportB := b.SupportWorld(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// center estimates a support's world-space centroid by averaging its support
// points along the four cardinal axes. Used only to seed GJK's first search
// direction; any direction choice is safe, a better one just means fewer
// iterations.
func center(s Supporter) mgl64.Vec2 {
	sum := mgl64.Vec2{0, 0}
	for _, dir := range [4]mgl64.Vec2{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		sum = sum.Add(s.SupportWorld(dir))
	}
	return sum.Mul(0.25)
}

// GJK performs collision detection between two convex supports (typically a
// pair of fixtures).
//
// Algorithm overview:
//  1. Start with an initial search direction (toward B from A)
//  2. Get the first support point in the Minkowski difference
//  3. Iteratively refine the simplex toward the origin
//  4. If the origin is contained -> collision
//  5. If the origin cannot be reached -> no collision
//
// The simplex is modified in place. On a collision it usually holds a
// triangle enclosing the origin, which EPA uses as its initial polygon; when
// the origin is hit by a single support point or lies on a line segment it
// holds only 1 or 2 points.
func GJK(a, b Supporter, simplex *Simplex) bool {
	direction := center(b).Sub(center(a))
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec2{1, 0}
	}

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Mul(-1)

	if direction.LenSqr() < 1e-16 {
		return true
	}

	const maxIterations = 32
	for i := 0; i < maxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// distanceIterations caps the closest-point refinement in Distance;
// well-separated convex pairs converge in a handful of steps.
const distanceIterations = 32

// Distance returns the separation between two convex supports and the unit
// direction from a toward b along the closest axis. Overlapping or touching
// supports report 0 together with a center-to-center fallback direction.
// Conservative-advancement CCD needs the actual gap, not just GJK's boolean
// verdict, so this runs the distance subalgorithm: track the closest point v
// of the Minkowski difference's simplex to the origin and pull in support
// points along -v until no further progress is possible.
func Distance(a, b Supporter) (float64, mgl64.Vec2) {
	fallback := center(b).Sub(center(a))
	if fallback.LenSqr() < 1e-12 {
		fallback = mgl64.Vec2{1, 0}
	} else {
		fallback = fallback.Normalize()
	}

	s0 := MinkowskiSupport(a, b, fallback)
	s1 := MinkowskiSupport(a, b, fallback.Mul(-1))
	v := closestOnSegment(s0, s1)

	for i := 0; i < distanceIterations; i++ {
		if v.LenSqr() < 1e-18 {
			return 0, fallback
		}
		w := MinkowskiSupport(a, b, v.Mul(-1))
		if v.LenSqr()-v.Dot(w) < 1e-10 {
			break
		}
		if triangleContainsOrigin(s0, s1, w) {
			return 0, fallback
		}
		v0 := closestOnSegment(s0, w)
		v1 := closestOnSegment(s1, w)
		if v0.LenSqr() < v1.LenSqr() {
			s1, v = w, v0
		} else {
			s0, v = w, v1
		}
	}

	d := v.Len()
	if d < 1e-9 {
		return 0, fallback
	}
	// v is the closest point of A-B to the origin, i.e. a vector from B's
	// witness point to A's; negate for the a-toward-b direction.
	return d, v.Mul(-1.0 / d)
}

// closestOnSegment returns the point of segment pq closest to the origin.
func closestOnSegment(p, q mgl64.Vec2) mgl64.Vec2 {
	pq := q.Sub(p)
	denom := pq.LenSqr()
	if denom < 1e-18 {
		return p
	}
	t := -p.Dot(pq) / denom
	switch {
	case t <= 0:
		return p
	case t >= 1:
		return q
	}
	return p.Add(pq.Mul(t))
}

// triangleContainsOrigin reports whether the origin lies inside (or on) the
// triangle abc, by checking the origin sits on one consistent side of all
// three edges.
func triangleContainsOrigin(a, b, c mgl64.Vec2) bool {
	d1 := actor.Cross2(b.Sub(a), a.Mul(-1))
	d2 := actor.Cross2(c.Sub(b), b.Mul(-1))
	d3 := actor.Cross2(a.Sub(c), c.Mul(-1))
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// containsOrigin tests if the simplex contains the origin and refines the simplex
// toward the closest feature when it does not.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec2) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	}
	return false
}

// line handles the line simplex case (2 points: A and B), where A is the most
// recently added point.
//
// Returns false (a line cannot contain the origin in 2D unless degenerate).
func line(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	if ab.Dot(ao) <= 0 {
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	// Perpendicular to AB, on the side of the origin: rotate AB by the sign of
	// its cross product with AO, matching the 3D double-cross-product idiom.
	perp := actor.CrossScalarVec(actor.Cross2(ab, ao), ab)
	if perp.LenSqr() < 1e-8 {
		return true
	}

	*direction = perp
	return false
}

// triangle handles the triangle simplex case (3 points: A, B, C), where A is the
// most recently added point.
//
// Tests which Voronoi region contains the origin:
//   - Region A: origin closest to point A alone
//   - Region AB: origin closest to edge AB
//   - Region AC: origin closest to edge AC
//   - Interior: origin is inside the triangle -> collision
//
// Degenerate case: if the points are collinear (zero-area triangle), falls back
// to the line case.
func triangle(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	area := actor.Cross2(ab, ac)
	if area*area < 1e-20 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		return line(simplex, direction)
	}

	// Edge normals pointing away from the opposite vertex.
	abPerp := actor.CrossScalarVec(-area, ab)
	if abPerp.Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = actor.CrossScalarVec(actor.Cross2(ab, ao), ab)
		return false
	}

	acPerp := actor.CrossScalarVec(area, ac)
	if acPerp.Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = actor.CrossScalarVec(actor.Cross2(ac, ao), ac)
		return false
	}

	return true
}
