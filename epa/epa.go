// Package epa implements the Expanding Polytope Algorithm for computing penetration
// depth and contact manifolds between overlapping convex 2D shapes.
//
// EPA runs after GJK detects a collision to determine:
//   - Penetration depth (how far the shapes overlap)
//   - Contact normal (direction to separate the shapes)
//   - Contact points (where the shapes touch), with stable feature IDs for
//     warm-starting the solver across frames
//
// In 2D the expanding polytope degenerates to an expanding convex polygon: the
// "faces" of the 3D algorithm become edges, and there is no boundary-edge
// bookkeeping because inserting a point always splits exactly one edge into two.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// bodyPosition returns the reference point for the degenerate-simplex
// fallback: the owning body's transform position for a fixture, otherwise
// the supporter's own centroid estimate.
func bodyPosition(s gjk.Supporter) mgl64.Vec2 {
	if f, ok := s.(*actor.BodyFixture); ok && f.Body() != nil {
		return f.Body().Transform.Position
	}
	if b, ok := s.(*actor.RigidBody); ok {
		return b.Transform.Position
	}
	return mgl64.Vec2{0, 0}
}

const (
	// MaxIterations limits polygon expansion to prevent infinite loops.
	MaxIterations = 32

	// ConvergenceTolerance defines when EPA has converged: if a new support
	// point doesn't improve the distance estimate by more than this, the
	// closest edge is accepted as the separating feature.
	ConvergenceTolerance = 1e-4

	// MinEdgeDistance is the minimum edge distance before a face is treated
	// as degenerate (too close to, or behind, the origin).
	MinEdgeDistance = 1e-6

	// NormalSnapThreshold clamps near-zero normal components to exactly zero,
	// improving stability for axis-aligned collisions.
	NormalSnapThreshold = 1e-9
)

// Result is the geometric outcome of a converged EPA run: a separating normal
// (pointing from A to B) and the penetration depth along it, plus the winning
// polygon edge expressed in Minkowski-difference space (used by the manifold
// builder to pick reference features).
type Result struct {
	Normal      mgl64.Vec2
	Depth       float64
	EdgeA, EdgeB mgl64.Vec2
}

// EPA expands the polygon from GJK's terminal simplex toward the origin and
// returns the separating axis with minimum penetration (the MTV).
func EPA(a, b gjk.Supporter, simplex *gjk.Simplex) (Result, error) {
	if simplex.Count < 3 {
		return degenerate(a, b, simplex), nil
	}

	verts := []mgl64.Vec2{simplex.Points[0], simplex.Points[1], simplex.Points[2]}
	ensureCCW(verts)

	for i := 0; i < MaxIterations; i++ {
		idx, normal, dist := closestEdge(verts)
		if idx < 0 {
			return Result{}, fmt.Errorf("epa: degenerate polygon")
		}

		support := gjk.MinkowskiSupport(a, b, normal)
		supportDist := support.Dot(normal)

		if supportDist-dist < ConvergenceTolerance {
			return Result{
				Normal: snapNormal(normal),
				Depth:  math.Max(dist, 0),
				EdgeA:  verts[idx],
				EdgeB:  verts[(idx+1)%len(verts)],
			}, nil
		}

		// Insert the new support point between verts[idx] and verts[idx+1],
		// splitting that edge into two.
		verts = append(verts, mgl64.Vec2{})
		copy(verts[idx+2:], verts[idx+1:len(verts)-1])
		verts[idx+1] = support
	}

	return Result{}, fmt.Errorf("epa: failed to converge after %d iterations", MaxIterations)
}

// ensureCCW reorders a 3-vertex polygon to counter-clockwise winding, which
// closestEdge's outward-normal computation assumes.
func ensureCCW(verts []mgl64.Vec2) {
	area := actor.Cross2(verts[1].Sub(verts[0]), verts[2].Sub(verts[0]))
	if area < 0 {
		verts[1], verts[2] = verts[2], verts[1]
	}
}

// closestEdge finds the polygon edge closest to the origin, returning its
// index, outward unit normal, and distance from the origin to the edge's line.
func closestEdge(verts []mgl64.Vec2) (int, mgl64.Vec2, float64) {
	bestIdx := -1
	bestDist := math.Inf(1)
	var bestNormal mgl64.Vec2

	n := len(verts)
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		edge := b.Sub(a)

		normal := actor.Perp(edge)
		length := normal.Len()
		if length < 1e-12 {
			continue
		}
		normal = normal.Mul(1.0 / length)

		dist := normal.Dot(a)
		if dist < 0 {
			normal = normal.Mul(-1)
			dist = -dist
		}

		if dist < bestDist {
			bestDist = dist
			bestIdx = i
			bestNormal = normal
		}
	}

	return bestIdx, bestNormal, bestDist
}

// degenerate builds an approximate result when GJK terminated with fewer than
// 3 simplex points (shapes barely touching at a vertex or edge).
func degenerate(a, b gjk.Supporter, simplex *gjk.Simplex) Result {
	if simplex.Count == 2 {
		p0, p1 := simplex.Points[0], simplex.Points[1]
		d0, d1 := p0.Len(), p1.Len()

		var normal mgl64.Vec2
		var depth float64
		if d0 < d1 {
			depth, normal = d0, normalizeOrFallback(p0)
		} else {
			depth, normal = d1, normalizeOrFallback(p1)
		}
		return Result{Normal: normal, Depth: depth, EdgeA: p0, EdgeB: p1}
	}

	diff := bodyPosition(b).Sub(bodyPosition(a))
	normal := normalizeOrFallback(diff)
	return Result{Normal: normal, Depth: 0.01, EdgeA: simplex.Points[0], EdgeB: simplex.Points[0]}
}

func normalizeOrFallback(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l < NormalSnapThreshold {
		return mgl64.Vec2{0, 1}
	}
	return v.Mul(1.0 / l)
}

// snapNormal clamps near-zero normal components to exactly zero to avoid
// friction-direction jitter on axis-aligned contacts, then renormalizes.
func snapNormal(normal mgl64.Vec2) mgl64.Vec2 {
	x, y := normal.X(), normal.Y()
	if math.Abs(x) < NormalSnapThreshold {
		x = 0
	}
	if math.Abs(y) < NormalSnapThreshold {
		y = 0
	}
	snapped := mgl64.Vec2{x, y}
	l := snapped.Len()
	if l < 1e-12 {
		return normal
	}
	return snapped.Mul(1.0 / l)
}
