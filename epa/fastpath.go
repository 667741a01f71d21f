package epa

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// ManifoldSolver turns a separating axis into a contact manifold; the
// clipping step of the narrow-phase pipeline, swappable so a caller can
// replace just the manifold construction while keeping GJK/EPA detection.
type ManifoldSolver func(a, b *actor.BodyFixture, normal mgl64.Vec2, depth float64) Manifold

// Collide is the single narrow-phase entry point the contact manager calls
// for a candidate fixture pair that broad-phase has already narrowed down.
// Circle-circle and circle-polygon/segment pairs go through closed-form fast
// paths (spec §4.3); anything edge-bearing on both sides runs the general
// GJK+EPA+clipping pipeline.
func Collide(a, b *actor.BodyFixture) (Manifold, bool) {
	return CollideWith(a, b, GenerateManifold)
}

// CollideWith is Collide with the manifold-construction step swapped for
// solver. The circle fast paths produce their single contact point in closed
// form and bypass solver entirely.
func CollideWith(a, b *actor.BodyFixture, solver ManifoldSolver) (Manifold, bool) {
	_, circleA := a.Shape.(*actor.Circle)
	_, circleB := b.Shape.(*actor.Circle)

	switch {
	case circleA && circleB:
		return collideCircles(a, b)
	case circleA:
		return collideCirclePolygon(a, b, true)
	case circleB:
		return collideCirclePolygon(b, a, false)
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	simplex.Reset()
	defer gjk.SimplexPool.Put(simplex)

	if !gjk.GJK(a, b, simplex) {
		return Manifold{}, false
	}

	result, err := EPA(a, b, simplex)
	if err != nil {
		return Manifold{}, false
	}

	return solver(a, b, result.Normal, result.Depth), true
}

// collideCircles computes the closed-form contact between two circle
// fixtures: a single point along the line joining their centers.
func collideCircles(a, b *actor.BodyFixture) (Manifold, bool) {
	ca := a.Shape.(*actor.Circle)
	cb := b.Shape.(*actor.Circle)

	centerA := a.Body().Transform.ToWorld(ca.Center)
	centerB := b.Body().Transform.ToWorld(cb.Center)

	d := centerB.Sub(centerA)
	dist := d.Len()
	radiusSum := ca.Radius + cb.Radius

	if dist >= radiusSum {
		return Manifold{}, false
	}

	normal := mgl64.Vec2{0, 1}
	if dist > NormalSnapThreshold {
		normal = d.Mul(1.0 / dist)
	}

	point := centerA.Add(normal.Mul(ca.Radius))
	depth := radiusSum - dist

	return Manifold{Normal: normal, Points: []ManifoldPoint{{Point: point, Penetration: depth}}}, true
}

// collideCirclePolygon computes the closed-form contact between a circle and
// any edge-bearing fixture (polygon or segment), following the classic
// separating-edge + Voronoi-region test (Erin Catto, Box2D b2CollidePolygonAndCircle).
// circleIsA reports whether the circle fixture is the "A" side, so the
// returned manifold's normal can be oriented to point from A toward B.
func collideCirclePolygon(circleFixture, edgeFixture *actor.BodyFixture, circleIsA bool) (Manifold, bool) {
	circle := circleFixture.Shape.(*actor.Circle)
	wound := edgeFixture.Shape.(actor.Wound)

	edgeTransform := edgeFixture.Body().Transform
	circleWorld := circleFixture.Body().Transform.ToWorld(circle.Center)
	c := edgeTransform.ToLocal(circleWorld)

	n := wound.EdgeCount()
	bestIdx := 0
	bestSep := math.Inf(-1)
	for i := 0; i < n; i++ {
		normal := wound.Normal(i)
		v := wound.Vertex(i)
		if s := normal.Dot(c.Sub(v)); s > bestSep {
			bestSep = s
			bestIdx = i
		}
	}

	if bestSep > circle.Radius {
		return Manifold{}, false
	}

	v1 := wound.Vertex(bestIdx)
	v2 := wound.Vertex(bestIdx + 1)

	const epsilon = 1e-9

	var localNormal, localPoint mgl64.Vec2
	switch {
	case bestSep < epsilon:
		// The circle's center is inside (or on) the edge-bearing shape: use
		// the separating edge's own normal.
		localNormal = wound.Normal(bestIdx)
		localPoint = c.Sub(localNormal.Mul(bestSep))
	default:
		u1 := c.Sub(v1).Dot(v2.Sub(v1))
		u2 := c.Sub(v2).Dot(v1.Sub(v2))
		switch {
		case u1 <= 0:
			if c.Sub(v1).LenSqr() > circle.Radius*circle.Radius {
				return Manifold{}, false
			}
			localPoint = v1
			localNormal = normalizeOrFallback(c.Sub(v1))
		case u2 <= 0:
			if c.Sub(v2).LenSqr() > circle.Radius*circle.Radius {
				return Manifold{}, false
			}
			localPoint = v2
			localNormal = normalizeOrFallback(c.Sub(v2))
		default:
			localNormal = wound.Normal(bestIdx)
			localPoint = c.Sub(localNormal.Mul(bestSep))
		}
	}

	separation := localNormal.Dot(c.Sub(localPoint))
	depth := circle.Radius - separation
	if depth < 0 {
		return Manifold{}, false
	}

	worldNormal := edgeTransform.Rotate(localNormal)
	edgeSurface := edgeTransform.ToWorld(localPoint)
	circleSurface := circleWorld.Sub(worldNormal.Mul(circle.Radius))
	point := edgeSurface.Add(circleSurface).Mul(0.5)

	// worldNormal points from the edge shape outward toward the circle.
	// Orient it to the manifold's A-to-B convention.
	normal := worldNormal
	if circleIsA {
		normal = worldNormal.Mul(-1)
	}

	return Manifold{Normal: normal, Points: []ManifoldPoint{{Point: point, Penetration: depth}}}, true
}
