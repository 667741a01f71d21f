package feather

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// ccdIterations caps conservative advancement; if the root is not
	// bracketed within the budget the body is left at the last advanced
	// fraction and a single residual contact is accepted (spec §4.8).
	ccdIterations = 20

	// toiTolerance mirrors the solver's linear tolerance: advancement stops
	// once the swept gap falls below it.
	toiTolerance = 0.005
)

// sweptTransform linearly interpolates a body's previous and current
// transform, the swept pose CCD tests for overlap at fraction t in [0, 1].
func sweptTransform(b *actor.RigidBody, t float64) actor.Transform {
	pos := b.PreviousTransform.Position.Add(b.Transform.Position.Sub(b.PreviousTransform.Position).Mul(t))
	angle := b.PreviousTransform.Angle() + shortestAngleDelta(b.PreviousTransform.Angle(), b.Transform.Angle())*t
	tr := actor.NewTransform()
	tr.Position = pos
	tr.SetAngle(angle)
	return tr
}

// allSensors reports a body none of whose fixtures resolve collisions;
// such a body cannot be tunneled "through" in any observable way, so CCD
// skips it.
func allSensors(b *actor.RigidBody) bool {
	for _, f := range b.Fixtures {
		if !f.IsSensor {
			return false
		}
	}
	return true
}

func shortestAngleDelta(from, to float64) float64 {
	d := to - from
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// ccdBody is a gjk.Supporter that reports the whole body's support point at
// a swept pose, independent of the body's live Transform (so CCD can probe
// intermediate poses without mutating the body mid-search).
type ccdBody struct {
	body      *actor.RigidBody
	transform actor.Transform
}

func (c ccdBody) SupportWorld(direction mgl64.Vec2) mgl64.Vec2 {
	local := c.transform.InverseRotate(direction)
	best := c.body.Fixtures[0].Shape.Support(local)
	bestDot := best.Dot(local)
	for _, f := range c.body.Fixtures[1:] {
		p := f.Shape.Support(local)
		if d := p.Dot(local); d > bestDot {
			best, bestDot = p, d
		}
	}
	return c.transform.ToWorld(best)
}

// distanceAt returns the gap between a and b's swept poses at fraction t,
// with the closest-axis direction from a toward b.
func distanceAt(a, b *actor.RigidBody, t float64) (float64, mgl64.Vec2) {
	ca := ccdBody{body: a, transform: sweptTransform(a, t)}
	cb := ccdBody{body: b, transform: sweptTransform(b, t)}
	return gjk.Distance(ca, cb)
}

// relativeSweepTravel bounds how far a and b's surfaces can close over the
// whole step: relative translation plus each body's rotational reach over
// the swept angle. The conservative-advancement step size divides the
// current gap by this bound, so a root can never be skipped.
func relativeSweepTravel(a, b *actor.RigidBody) float64 {
	linear := a.Transform.Position.Sub(a.PreviousTransform.Position).
		Sub(b.Transform.Position.Sub(b.PreviousTransform.Position)).Len()
	angA := math.Abs(shortestAngleDelta(a.PreviousTransform.Angle(), a.Transform.Angle())) * a.RotationDiscRadius
	angB := math.Abs(shortestAngleDelta(b.PreviousTransform.Angle(), b.Transform.Angle())) * b.RotationDiscRadius
	return linear + angA + angB
}

// sweepTOI conservatively advances t through [0, 1] to the first fraction
// at which the gap between a and b's swept poses closes below the linear
// tolerance (spec §4.8). Each iteration advances by gap / maxApproach,
// where maxApproach bounds how fast the gap can close across the whole
// step, so disjoint endpoints are handled: a body that would pass entirely
// through the other still has its crossing bracketed mid-interval. Returns
// ok=false when the pair never gets that close within the step, or was
// already touching at t=0 (the discrete solver owns that contact).
func sweepTOI(a, b *actor.RigidBody) (toi float64, ok bool) {
	maxApproach := relativeSweepTravel(a, b)
	if maxApproach < 1e-12 {
		return 1, false
	}

	t := 0.0
	for i := 0; i < ccdIterations; i++ {
		gap, _ := distanceAt(a, b, t)
		if gap < toiTolerance {
			if t == 0 {
				return 0, false
			}
			// Advance a hair past exact contact so the next step's narrow
			// phase sees the pair and emits the residual contact.
			return math.Min(t+(gap+toiTolerance/2)/maxApproach, 1), true
		}
		t += gap / maxApproach
		if t >= 1 {
			return 1, false
		}
	}
	return t, true
}

// impactNormal samples the closest-axis direction from fast toward hit at
// the latest fraction at or before toi where the swept poses still have a
// positive gap.
func impactNormal(fast, hit *actor.RigidBody, toi float64) (mgl64.Vec2, bool) {
	travel := relativeSweepTravel(fast, hit)
	if travel < 1e-12 {
		return mgl64.Vec2{}, false
	}
	back := toiTolerance / travel

	t := toi
	for i := 0; i < ccdIterations; i++ {
		if gap, n := distanceAt(fast, hit, t); gap > 0 {
			return n, true
		}
		if t == 0 {
			return mgl64.Vec2{}, false
		}
		t = math.Max(0, t-back)
	}
	return mgl64.Vec2{}, false
}

// sweepCCD rewinds any body whose motion this step would have carried it
// into (or entirely through) another body back to its first time of impact,
// per the world's CCDMode (spec §4.8). At the rewound pose the approach
// component of the fast body's velocity is cancelled (the resolution pass)
// and the remainder of the step is re-integrated with what is left; the
// residual contact surfaces in the next step's velocity solve.
func (w *World) sweepCCD(dt float64) {
	if w.Settings.CCDMode == CCDNone {
		return
	}

	candidates := make([]*actor.RigidBody, 0, len(w.Bodies))
	for _, b := range w.Bodies {
		if !b.Enabled || b.IsStatic() || allSensors(b) {
			continue
		}
		if w.Settings.CCDMode == CCDBulletsOnly && !b.Bullet {
			continue
		}
		travel := b.Transform.Position.Sub(b.PreviousTransform.Position).Len()
		if travel < b.RotationDiscRadius*0.5 {
			continue
		}
		candidates = append(candidates, b)
	}

	for _, fast := range candidates {
		minTOI := 1.0
		var hit *actor.RigidBody

		for _, other := range w.Bodies {
			if other == fast || !other.Enabled || allSensors(other) {
				continue
			}
			toi, swept := w.timeOfImpact(fast, other)
			if swept && toi < minTOI {
				minTOI = toi
				hit = other
			}
		}

		if hit == nil {
			continue
		}

		fast.Transform = sweptTransform(fast, minTOI)

		// The rewound pose sits a hair past exact contact (sweepTOI aims
		// slightly inside so the next narrow phase sees the pair), where the
		// distance query has no axis to report; back off toward t=0 until a
		// real gap exists and take the closest-axis normal there.
		if normal, found := impactNormal(fast, hit, minTOI); found {
			rel := fast.LinearVelocity.Sub(hit.LinearVelocity)
			if vn := rel.Dot(normal); vn > 0 {
				fast.LinearVelocity = fast.LinearVelocity.Sub(normal.Mul(vn))
			}
		}
		fast.Transform.Position = fast.Transform.Position.Add(fast.LinearVelocity.Mul((1 - minTOI) * dt))
	}
}
