package feather

import (
	"math"
	"unsafe"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/epa"
)

// fixturePairKey canonically orders two fixture pointers so (a,b) and (b,a)
// hash to the same contact, the 2D counterpart of the teacher's pairKey in
// trigger.go. The key is identity only: constraint orientation always
// follows broad-phase pair order, which is insertion-index stable, where
// pointer order is not reproducible across runs.
type fixturePairKey struct {
	a, b *actor.BodyFixture
}

func makeFixturePairKey(a, b *actor.BodyFixture) fixturePairKey {
	if uintptr(unsafe.Pointer(a)) > uintptr(unsafe.Pointer(b)) {
		a, b = b, a
	}
	return fixturePairKey{a, b}
}

// liveContact is a manifold-backed ContactConstraint plus the sensor/touch
// bookkeeping the manager needs to fire begin/persist/end exactly once each
// (spec §4.5).
type liveContact struct {
	fixtureA, fixtureB *actor.BodyFixture
	constraint         *constraint.ContactConstraint
	isSensor           bool
	touching           bool
	seenThisStep       bool
}

// ContactManager owns the broad-phase-to-manifold pipeline and the
// begin/persist/end contact lifecycle, renamed and generalized from the
// teacher's trigger.go Events manager (spec §4.5).
type ContactManager struct {
	grid     *SpatialGrid
	contacts map[fixturePairKey]*liveContact
	settings ContactSettings
}

// ContactSettings aliases the solver-level settings the manager stamps onto
// every ContactConstraint it creates.
type ContactSettings = constraint.ContactSettings

// contactSettingsFromWorld derives the contact manager's ContactSettings
// from the world's Settings, so SetSettings has one source of truth instead
// of a second, never-updated copy.
func contactSettingsFromWorld(s Settings) ContactSettings {
	return ContactSettings{
		Baumgarte:            s.Baumgarte,
		LinearSlop:           s.LinearTolerance,
		MaxLinearCorrection:  s.MaxLinearCorrection,
		RestitutionThreshold: s.RestitutionVelocityThreshold,
		MaxWarmStartDistance: s.MaxWarmStartDistance,
	}
}

func newContactManager(grid *SpatialGrid, settings ContactSettings) *ContactManager {
	return &ContactManager{
		grid:     grid,
		contacts: make(map[fixturePairKey]*liveContact),
		settings: settings,
	}
}

// update runs one full broad-phase -> narrow-phase -> lifecycle pass over
// the current grid contents, calling into w's listeners at each stage (spec
// §4.5/§4.9 step 3). It returns the contacts with live, solvable
// constraints (sensors and non-touching pairs are excluded).
func (w *World) updateContacts() []*constraint.ContactConstraint {
	cm := w.contactManager
	for _, lc := range cm.contacts {
		lc.seenThisStep = false
	}

	// ordered collects the pairs in broad-phase report order; the solver's
	// constraint iteration order must be stable across runs (spec §4.6), and
	// the contacts map alone cannot provide that.
	var ordered []*liveContact

	pairs := w.broadPhase(cm.grid)
	for _, pair := range pairs {
		a, b := pair.A, pair.B
		bodyA, bodyB := a.Body(), b.Body()
		if bodyA == nil || bodyB == nil || bodyA == bodyB {
			continue
		}
		if !bodyA.Enabled || !bodyB.Enabled {
			continue
		}
		if bodyA.IsStatic() && bodyB.IsStatic() {
			continue
		}
		if !a.Filter.ShouldCollide(b.Filter) {
			continue
		}

		key := makeFixturePairKey(a, b)
		lc, exists := cm.contacts[key]
		if !exists {
			lc = &liveContact{fixtureA: a, fixtureB: b, isSensor: a.IsSensor || b.IsSensor}
			cm.contacts[key] = lc
		}
		if lc.seenThisStep {
			// Broad-phase strategies may report a pair more than once; the
			// manager deduplicates (spec §4.2).
			continue
		}
		lc.seenThisStep = true
		ordered = append(ordered, lc)

		if bothAtRest(bodyA, bodyB) {
			continue
		}

		if !w.fireBroadPhase(a, b) {
			w.endContact(lc)
			continue
		}

		manifold, hit := w.narrowPhase(lc.fixtureA, lc.fixtureB)
		if !hit || len(manifold.Points) == 0 {
			w.endContact(lc)
			continue
		}
		if !w.fireNarrowPhase(a, b) {
			w.endContact(lc)
			continue
		}

		next := buildContactConstraint(lc.fixtureA, lc.fixtureB, manifold, cm.settings)
		if !w.fireManifold(next) {
			w.endContact(lc)
			continue
		}

		if lc.isSensor {
			// Sensors report the full lifecycle but never reach the solver or
			// islands (spec §4.5).
			wasTouching := lc.touching
			lc.constraint = next
			lc.touching = true
			if !wasTouching {
				w.fireBegin(next)
			} else {
				w.firePersist(next)
			}
			continue
		}

		warmStartFrom(next, lc.constraint, cm.settings.MaxWarmStartDistance, w.TimeStep.DTRatio)
		wasTouching := lc.touching
		lc.constraint = next
		lc.touching = true
		if !wasTouching {
			w.fireBegin(next)
		} else {
			w.firePersist(next)
		}
	}

	for key, lc := range cm.contacts {
		if !lc.seenThisStep {
			w.endContact(lc)
			delete(cm.contacts, key)
			continue
		}
		if !lc.touching && !lc.isSensor {
			delete(cm.contacts, key)
		}
	}

	var live []*constraint.ContactConstraint
	for _, lc := range ordered {
		if lc.touching && !lc.isSensor {
			live = append(live, lc.constraint)
		}
	}
	return live
}

func (w *World) endContact(lc *liveContact) {
	if lc.touching && lc.constraint != nil {
		w.fireEnd(lc.constraint)
	}
	lc.touching = false
}

func bothAtRest(a, b *actor.RigidBody) bool {
	restA := a.AtRest || a.IsStatic()
	restB := b.AtRest || b.IsStatic()
	return restA && restB
}

// buildContactConstraint turns a narrow-phase manifold into a solver-ready
// ContactConstraint, mixing friction and restitution the standard way
// (geometric mean for friction, max for restitution, per spec §3). A
// fixture-level RestitutionThreshold, when set on either side, overrides
// the world default for this pair.
func buildContactConstraint(a, b *actor.BodyFixture, manifold epa.Manifold, settings ContactSettings) *constraint.ContactConstraint {
	points := make([]constraint.ContactPoint, len(manifold.Points))
	for i, mp := range manifold.Points {
		points[i] = constraint.ContactPoint{
			Point: mp.Point,
			Depth: mp.Penetration,
			ID:    mp.ID,
		}
	}

	if t := math.Max(a.RestitutionThreshold, b.RestitutionThreshold); t > 0 {
		settings.RestitutionThreshold = t
	}

	return &constraint.ContactConstraint{
		BodyA:       a.Body(),
		BodyB:       b.Body(),
		FixtureA:    a,
		FixtureB:    b,
		Normal:      manifold.Normal,
		Points:      points,
		Friction:    constraint.ComputeFriction(a.Friction, b.Friction),
		Restitution: constraint.ComputeRestitution(a.Restitution, b.Restitution),
		Settings:    settings,
	}
}

// warmStartFrom carries accumulated impulses from the previous step's
// constraint into the new one wherever a point's FeatureID matches and the
// point hasn't moved more than MaxWarmStartDistance (spec §4.6). dtRatio
// rescales the carried impulses when the caller varies dt between steps, so
// a shorter step doesn't get seeded with a full-length step's impulse.
func warmStartFrom(next, prev *constraint.ContactConstraint, maxDist, dtRatio float64) {
	if prev == nil {
		return
	}
	maxDistSqr := maxDist * maxDist
	for i := range next.Points {
		np := &next.Points[i]
		for _, op := range prev.Points {
			if op.ID != np.ID {
				continue
			}
			if np.Point.Sub(op.Point).LenSqr() > maxDistSqr {
				continue
			}
			np.NormalImpulse = op.NormalImpulse * dtRatio
			np.TangentImpulse = op.TangentImpulse * dtRatio
			break
		}
	}
}
