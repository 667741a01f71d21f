package actor

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType tags the variant held by a Shape.
type ShapeType int

const (
	ShapeTypeCircle ShapeType = iota
	ShapeTypePolygon
	ShapeTypeSegment
)

var (
	// ErrTooFewVertices is returned when a polygon is built from fewer than 3 points.
	ErrTooFewVertices = errors.New("actor: polygon needs at least 3 vertices")
	// ErrNotConvex is returned when a polygon's vertices do not form a convex hull.
	ErrNotConvex = errors.New("actor: polygon must be convex")
	// ErrClockwiseWinding is returned when vertices are not wound CCW.
	ErrClockwiseWinding = errors.New("actor: polygon vertices must be wound counter-clockwise")
	// ErrDegenerateSegment is returned for a segment with coincident endpoints.
	ErrDegenerateSegment = errors.New("actor: segment endpoints must differ")
	// ErrNonPositiveRadius is returned for a circle with radius <= 0.
	ErrNonPositiveRadius = errors.New("actor: radius must be positive")
)

// Shape is the capability set every collision shape variant implements.
type Shape interface {
	Type() ShapeType
	// ComputeAABB returns the world-space AABB of the shape under transform.
	ComputeAABB(transform Transform) AABB
	// ComputeMass returns the local-frame mass properties at the given density.
	// Density 0 contributes no mass (spec §3).
	ComputeMass(density float64) Mass
	// Support returns the farthest point of the shape (local frame) in direction.
	Support(direction mgl64.Vec2) mgl64.Vec2
	// Contains reports whether the local-frame point lies within the shape.
	Contains(localPoint mgl64.Vec2) bool
}

// Wound is the extra capability polygons and segments expose for manifold
// clipping: iterate edges with their outward normals.
type Wound interface {
	EdgeCount() int
	Vertex(i int) mgl64.Vec2
	Normal(i int) mgl64.Vec2
}

// Circle is a shape defined by a center (in the body's local frame) and radius.
type Circle struct {
	Center mgl64.Vec2
	Radius float64
}

// NewCircle validates and builds a Circle.
func NewCircle(center mgl64.Vec2, radius float64) (*Circle, error) {
	if radius <= 0 {
		return nil, ErrNonPositiveRadius
	}
	return &Circle{Center: center, Radius: radius}, nil
}

func (c *Circle) Type() ShapeType { return ShapeTypeCircle }

func (c *Circle) ComputeAABB(transform Transform) AABB {
	center := transform.ToWorld(c.Center)
	r := mgl64.Vec2{c.Radius, c.Radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

func (c *Circle) ComputeMass(density float64) Mass {
	if density <= 0 {
		return Mass{Center: c.Center}
	}
	area := math.Pi * c.Radius * c.Radius
	mass := density * area
	// Solid disc: m*r^2/2 about its own center. AggregateMass applies the
	// parallel-axis shift for the circle's offset from the body's COM.
	inertiaAboutCenter := 0.5 * mass * c.Radius * c.Radius
	return NewMass(c.Center, mass, inertiaAboutCenter)
}

func (c *Circle) Support(direction mgl64.Vec2) mgl64.Vec2 {
	d := direction
	if d.LenSqr() < 1e-18 {
		return c.Center.Add(mgl64.Vec2{c.Radius, 0})
	}
	return c.Center.Add(d.Normalize().Mul(c.Radius))
}

func (c *Circle) Contains(localPoint mgl64.Vec2) bool {
	return localPoint.Sub(c.Center).LenSqr() <= c.Radius*c.Radius
}

// Polygon is a convex, counter-clockwise-wound set of vertices with
// precomputed outward unit normals, per spec §4.1.
type Polygon struct {
	Vertices []mgl64.Vec2
	Normals  []mgl64.Vec2
	Centroid mgl64.Vec2
}

// NewPolygon validates convexity/winding and precomputes edge normals.
func NewPolygon(vertices []mgl64.Vec2) (*Polygon, error) {
	if len(vertices) < 3 {
		return nil, ErrTooFewVertices
	}

	n := len(vertices)
	var signedArea float64
	for i := 0; i < n; i++ {
		a, b := vertices[i], vertices[(i+1)%n]
		signedArea += Cross2(a, b)
	}
	if signedArea < 0 {
		return nil, ErrClockwiseWinding
	}

	for i := 0; i < n; i++ {
		a, b, c := vertices[i], vertices[(i+1)%n], vertices[(i+2)%n]
		if Cross2(b.Sub(a), c.Sub(b)) < -1e-9 {
			return nil, ErrNotConvex
		}
	}

	normals := make([]mgl64.Vec2, n)
	for i := 0; i < n; i++ {
		edge := vertices[(i+1)%n].Sub(vertices[i])
		normals[i] = mgl64.Vec2{edge.Y(), -edge.X()}.Normalize()
	}

	var centroidArea float64
	var centroid mgl64.Vec2
	for i := 0; i < n; i++ {
		a, b := vertices[i], vertices[(i+1)%n]
		cross := Cross2(a, b)
		centroidArea += cross
		centroid = centroid.Add(a.Add(b).Mul(cross))
	}
	centroidArea *= 0.5
	if math.Abs(centroidArea) > 1e-12 {
		centroid = centroid.Mul(1.0 / (6.0 * centroidArea))
	}

	return &Polygon{Vertices: vertices, Normals: normals, Centroid: centroid}, nil
}

func (p *Polygon) Type() ShapeType { return ShapeTypePolygon }

func (p *Polygon) ComputeAABB(transform Transform) AABB {
	world := transform.ToWorld(p.Vertices[0])
	min, max := world, world
	for i := 1; i < len(p.Vertices); i++ {
		world = transform.ToWorld(p.Vertices[i])
		min = mgl64.Vec2{math.Min(min.X(), world.X()), math.Min(min.Y(), world.Y())}
		max = mgl64.Vec2{math.Max(max.X(), world.X()), math.Max(max.Y(), world.Y())}
	}
	return AABB{Min: min, Max: max}
}

func (p *Polygon) ComputeMass(density float64) Mass {
	if density <= 0 {
		return Mass{Center: p.Centroid}
	}

	var area, inertia float64
	var center mgl64.Vec2
	const inv3 = 1.0 / 3.0
	ref := p.Vertices[0]

	for i := 1; i+1 < len(p.Vertices); i++ {
		e1 := p.Vertices[i].Sub(ref)
		e2 := p.Vertices[i+1].Sub(ref)

		d := Cross2(e1, e2)
		triArea := 0.5 * d
		area += triArea

		center = center.Add(e1.Add(e2).Mul(triArea * inv3))

		intx2 := e1.X()*e1.X() + e1.X()*e2.X() + e2.X()*e2.X()
		inty2 := e1.Y()*e1.Y() + e1.Y()*e2.Y() + e2.Y()*e2.Y()
		inertia += (0.25 * inv3 * d) * (intx2 + inty2)
	}

	mass := density * area
	if area > 1e-12 {
		center = center.Mul(1.0 / area)
	}
	center = center.Add(ref)

	// inertia above is about `ref`; shift it to the centroid. AggregateMass
	// applies its own parallel-axis shift from there to the body's COM.
	inertiaAboutRef := density * inertia
	d := center.Sub(ref)
	inertiaAboutCentroid := inertiaAboutRef - mass*d.Dot(d)

	return NewMass(center, mass, inertiaAboutCentroid)
}

func (p *Polygon) Support(direction mgl64.Vec2) mgl64.Vec2 {
	best := p.Vertices[0]
	bestDot := best.Dot(direction)
	for _, v := range p.Vertices[1:] {
		d := v.Dot(direction)
		if d > bestDot {
			bestDot = d
			best = v
		}
	}
	return best
}

func (p *Polygon) Contains(localPoint mgl64.Vec2) bool {
	for i, normal := range p.Normals {
		if localPoint.Sub(p.Vertices[i]).Dot(normal) > 1e-9 {
			return false
		}
	}
	return true
}

func (p *Polygon) EdgeCount() int            { return len(p.Vertices) }
func (p *Polygon) Vertex(i int) mgl64.Vec2   { return p.Vertices[i%len(p.Vertices)] }
func (p *Polygon) Normal(i int) mgl64.Vec2   { return p.Normals[i%len(p.Normals)] }

// Segment is a one-dimensional shape between two points, with a preferred
// face normal for one-sided collision response (e.g. a ground plane edge).
type Segment struct {
	P1, P2     mgl64.Vec2
	FaceNormal mgl64.Vec2
}

// NewSegment validates and builds a Segment.
func NewSegment(p1, p2 mgl64.Vec2) (*Segment, error) {
	edge := p2.Sub(p1)
	if edge.LenSqr() < 1e-18 {
		return nil, ErrDegenerateSegment
	}
	normal := mgl64.Vec2{edge.Y(), -edge.X()}.Normalize()
	return &Segment{P1: p1, P2: p2, FaceNormal: normal}, nil
}

func (s *Segment) Type() ShapeType { return ShapeTypeSegment }

func (s *Segment) ComputeAABB(transform Transform) AABB {
	a, b := transform.ToWorld(s.P1), transform.ToWorld(s.P2)
	return AABB{
		Min: mgl64.Vec2{math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y())},
		Max: mgl64.Vec2{math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y())},
	}
}

// ComputeMass returns zero mass: segments are intended for static geometry
// and contribute nothing to an aggregate, matching a density-0 fixture.
func (s *Segment) ComputeMass(density float64) Mass {
	mid := s.P1.Add(s.P2).Mul(0.5)
	return Mass{Center: mid}
}

func (s *Segment) Support(direction mgl64.Vec2) mgl64.Vec2 {
	if s.P1.Dot(direction) > s.P2.Dot(direction) {
		return s.P1
	}
	return s.P2
}

func (s *Segment) Contains(localPoint mgl64.Vec2) bool {
	return false
}

func (s *Segment) EdgeCount() int { return 1 }
func (s *Segment) Vertex(i int) mgl64.Vec2 {
	if i%2 == 0 {
		return s.P1
	}
	return s.P2
}
func (s *Segment) Normal(i int) mgl64.Vec2 { return s.FaceNormal }
