package epa

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// maxContactPoints caps a manifold at two points in 2D, enough to
	// stabilize a box resting on an edge (see Erin Catto, GDC 2007).
	maxContactPoints = 2

	clipEpsilon = 1e-6
)

// FeatureID identifies which pair of shape features produced a contact point,
// stable across frames as long as the same edges/vertices are involved. The
// contact manager uses it to carry accumulated impulses across steps for
// warm-starting (spec §3/§4.6).
type FeatureID struct {
	ReferenceEdge int
	IncidentEdge  int
	IncidentIndex int
	Flip          bool
}

// ManifoldPoint is a single contact: a world-space position, the penetration
// depth along the manifold normal (positive means overlapping), and a stable
// feature id.
type ManifoldPoint struct {
	Point       mgl64.Vec2
	Penetration float64
	ID          FeatureID
}

// Manifold is the narrow-phase result for a fixture pair: a world-space
// normal pointing from A toward B, and up to two contact points.
type Manifold struct {
	Normal mgl64.Vec2
	Points []ManifoldPoint
}

// GenerateManifold builds a clipped contact manifold between two
// edge-bearing fixtures (polygons and/or segments) given the separating
// normal and penetration depth that EPA already computed. Circle pairs never
// reach this function -- they go through the closed-form fast paths in
// fastpath.go, which produce a single contact point directly. It picks as the
// reference edge whichever fixture's face is best aligned with the separating
// axis (A's face along the normal, B's along its negation), clips the other fixture's incident edge against the reference edge's
// side planes (Sutherland-Hodgman), then drops points still outside the
// reference face.
func GenerateManifold(a, b *actor.BodyFixture, normal mgl64.Vec2, depth float64) Manifold {
	woundA, okA := a.Shape.(actor.Wound)
	woundB, okB := b.Shape.(actor.Wound)
	if !okA || !okB {
		// Defensive fallback: one side isn't edge-bearing. Report a single
		// point at the midpoint of the separating axis rather than panicking.
		mid := a.Body().Transform.Position.Add(b.Body().Transform.Position).Mul(0.5)
		return Manifold{Normal: normal, Points: []ManifoldPoint{{Point: mid, Penetration: depth}}}
	}

	refFixture, incFixture := a, b
	refWound, incWound := woundA, woundB
	flip := false

	// Pick whichever fixture's edge normal is closest to the separating
	// normal as the reference edge.
	idxA := bestEdge(woundA, a.Body().Transform, normal)
	idxB := bestEdge(woundB, b.Body().Transform, normal.Mul(-1))
	nA := a.Body().Transform.Rotate(woundA.Normal(idxA))
	nB := b.Body().Transform.Rotate(woundB.Normal(idxB))

	var refIdx int
	if math.Abs(nB.Dot(normal)) > math.Abs(nA.Dot(normal)) {
		refFixture, incFixture = b, a
		refWound, incWound = woundB, woundA
		refIdx = idxB
		flip = true
	} else {
		refIdx = idxA
	}

	refTransform := refFixture.Body().Transform
	incTransform := incFixture.Body().Transform

	refV1 := refTransform.ToWorld(refWound.Vertex(refIdx))
	refV2 := refTransform.ToWorld(refWound.Vertex(refIdx + 1))
	refNormal := refTransform.Rotate(refWound.Normal(refIdx))
	refEdgeDir := refV2.Sub(refV1).Normalize()

	incIdx := incidentEdge(incWound, incTransform, refNormal)
	incV1 := incTransform.ToWorld(incWound.Vertex(incIdx))
	incV2 := incTransform.ToWorld(incWound.Vertex(incIdx + 1))

	points := []clipVertex{
		{pos: incV1, id: FeatureID{ReferenceEdge: refIdx, IncidentEdge: incIdx, IncidentIndex: 0, Flip: flip}},
		{pos: incV2, id: FeatureID{ReferenceEdge: refIdx, IncidentEdge: incIdx, IncidentIndex: 1, Flip: flip}},
	}

	points, ok := clipSegment(points, refEdgeDir.Mul(-1), -refEdgeDir.Dot(refV1))
	if !ok {
		return Manifold{Normal: normal}
	}
	points, ok = clipSegment(points, refEdgeDir, refEdgeDir.Dot(refV2))
	if !ok {
		return Manifold{Normal: normal}
	}

	result := make([]ManifoldPoint, 0, maxContactPoints)
	for _, p := range points {
		separation := p.pos.Sub(refV1).Dot(refNormal)
		if separation <= clipEpsilon {
			result = append(result, ManifoldPoint{
				Point:       p.pos,
				Penetration: -separation,
				ID:          p.id,
			})
		}
	}

	return Manifold{Normal: normal, Points: result}
}

// bestEdge returns the index of the edge whose outward world-space normal is
// most aligned with direction.
func bestEdge(w actor.Wound, t actor.Transform, direction mgl64.Vec2) int {
	best := 0
	bestDot := math.Inf(-1)
	for i := 0; i < w.EdgeCount(); i++ {
		n := t.Rotate(w.Normal(i))
		if d := n.Dot(direction); d > bestDot {
			bestDot = d
			best = i
		}
	}
	return best
}

// incidentEdge returns the incident fixture's edge whose normal is most
// anti-parallel to the reference normal: the edge that "faces into" the
// reference face.
func incidentEdge(w actor.Wound, t actor.Transform, refNormal mgl64.Vec2) int {
	best := 0
	bestDot := math.Inf(1)
	for i := 0; i < w.EdgeCount(); i++ {
		n := t.Rotate(w.Normal(i))
		if d := n.Dot(refNormal); d < bestDot {
			bestDot = d
			best = i
		}
	}
	return best
}

type clipVertex struct {
	pos mgl64.Vec2
	id  FeatureID
}

// clipSegment clips a 2-point segment against the half-plane
// {p : p.Dot(normal) <= offset}, the Sutherland-Hodgman step specialized to
// exactly one clip edge and exactly two input points.
func clipSegment(points []clipVertex, normal mgl64.Vec2, offset float64) ([]clipVertex, bool) {
	if len(points) != 2 {
		return points, len(points) > 0
	}

	d0 := points[0].pos.Dot(normal) - offset
	d1 := points[1].pos.Dot(normal) - offset

	var out []clipVertex
	if d0 <= 0 {
		out = append(out, points[0])
	}
	if d1 <= 0 {
		out = append(out, points[1])
	}

	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		interp := points[0].pos.Add(points[1].pos.Sub(points[0].pos).Mul(t))
		id := points[0].id
		if d0 <= 0 {
			id = points[1].id
		}
		out = append(out, clipVertex{pos: interp, id: id})
	}

	return out, len(out) > 0
}
