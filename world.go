package feather

import (
	"errors"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/epa"
	"github.com/go-gl/mathgl/mgl64"
)

// defaultCellSize and defaultCellTableSize seed a new World's SpatialGrid;
// SetBroadPhase replaces only the pair routine run over that grid, not the
// grid itself.
const (
	defaultCellSize      = 2.0
	defaultCellTableSize = 256
)

// NarrowPhaseFunc computes a contact manifold for a fixture pair that
// broad-phase has already narrowed down. Swappable via SetNarrowPhase
// (spec §9 Open Question: algorithms are pluggable per World).
type NarrowPhaseFunc func(a, b *actor.BodyFixture) (epa.Manifold, bool)

// BroadPhaseFunc returns the candidate fixture pairs a World should run
// narrow-phase over this step. Swappable via SetBroadPhase.
type BroadPhaseFunc func(grid *SpatialGrid) []FixturePair

// TimeOfImpactFunc finds the first fraction in [0, 1] at which two bodies'
// swept poses come within the linear tolerance of each other. Swappable via
// SetTimeOfImpactDetector.
type TimeOfImpactFunc func(a, b *actor.RigidBody) (toi float64, ok bool)

// TimeStep is the per-step timing bookkeeping Step maintains: the current
// and previous dt, the inverse, and the ratio used to rescale warm-start
// impulses when the caller varies dt between steps (spec §4.9 step 8).
type TimeStep struct {
	DT      float64
	InvDT   float64
	PrevDT  float64
	DTRatio float64
}

// StepMetrics reports what the last Step did. PositionShortfalls counts the
// islands whose position constraints did not converge within the iteration
// budget -- normal for heavily constrained scenes and deliberately not an
// error (spec §7), but exposed for callers that want to adapt iteration
// counts or dt.
type StepMetrics struct {
	Islands            int
	Contacts           int
	PositionShortfalls int
}

// World owns every body and joint in a simulation and drives the step
// pipeline (spec §4.9). Bodies and joints are referenced by direct pointer
// throughout the solver, matching the narrow-phase and constraint packages;
// World's Add/Remove methods are the only place ownership changes, so a
// handle layer (if a caller wants one) is a thin wrapper around those calls
// rather than a second source of truth -- see DESIGN.md.
type World struct {
	Bodies []*actor.RigidBody
	Joints []constraint.Joint

	Gravity  mgl64.Vec2
	Settings Settings
	Bounds   Bounds

	TimeStep TimeStep
	Metrics  StepMetrics

	grid           *SpatialGrid
	contactManager *ContactManager
	listeners      listenerSet

	narrowPhase    NarrowPhaseFunc
	broadPhase     BroadPhaseFunc
	timeOfImpact   TimeOfImpactFunc
	manifoldSolver epa.ManifoldSolver

	stepping bool

	jointsByBody map[*actor.RigidBody][]constraint.Joint
}

// NewWorld creates an empty World with the given gravity and spec §6
// default settings.
func NewWorld(gravity mgl64.Vec2) *World {
	settings := NewSettings()
	grid := NewSpatialGrid(defaultCellSize, defaultCellTableSize)
	w := &World{
		Bodies:       nil,
		Gravity:      gravity,
		Settings:     settings,
		grid:         grid,
		jointsByBody: make(map[*actor.RigidBody][]constraint.Joint),
	}
	w.manifoldSolver = epa.GenerateManifold
	w.narrowPhase = func(a, b *actor.BodyFixture) (epa.Manifold, bool) {
		return epa.CollideWith(a, b, w.manifoldSolver)
	}
	w.broadPhase = func(g *SpatialGrid) []FixturePair { return g.FindPairs() }
	w.timeOfImpact = sweepTOI
	w.contactManager = newContactManager(grid, contactSettingsFromWorld(settings))
	return w
}

// SetGravity replaces the world's constant acceleration.
func (w *World) SetGravity(g mgl64.Vec2) { w.Gravity = g }

// SetBounds installs (or replaces) the world's departure box.
func (w *World) SetBounds(b Bounds) { w.Bounds = b }

// SetSettings replaces every tunable at once, including the contact
// manager's derived ContactSettings -- Baumgarte, LinearTolerance,
// MaxLinearCorrection, RestitutionVelocityThreshold and
// MaxWarmStartDistance all feed every ContactConstraint built from this
// point on (spec §6).
func (w *World) SetSettings(s Settings) {
	w.Settings = s
	w.contactManager.settings = contactSettingsFromWorld(s)
}

// SetNarrowPhase overrides the fixture-pair collision routine.
func (w *World) SetNarrowPhase(f NarrowPhaseFunc) { w.narrowPhase = f }

// SetBroadPhase overrides the candidate-pair routine.
func (w *World) SetBroadPhase(f BroadPhaseFunc) { w.broadPhase = f }

// SetManifoldSolver overrides just the manifold-construction step of the
// default narrow phase; a full SetNarrowPhase override supersedes it.
func (w *World) SetManifoldSolver(s epa.ManifoldSolver) { w.manifoldSolver = s }

// SetTimeOfImpactDetector overrides the CCD sweep's TOI search.
func (w *World) SetTimeOfImpactDetector(f TimeOfImpactFunc) { w.timeOfImpact = f }

// AddBody inserts a body and its fixtures into the world and broad-phase
// grid. Returns ErrStructuralMutationDuringStep if called from inside a
// listener during Step (spec §5/§7).
func (w *World) AddBody(b *actor.RigidBody) error {
	if w.stepping {
		return ErrStructuralMutationDuringStep
	}
	w.Bodies = append(w.Bodies, b)
	b.PreviousTransform = b.Transform
	b.RecomputeFixtureAABBs()
	for _, f := range b.Fixtures {
		w.grid.Insert(f)
	}
	return nil
}

// RemoveBody removes a body, its fixtures, and cascades to destroy every
// joint attached to it, firing DestructionListener for each (spec §3).
func (w *World) RemoveBody(b *actor.RigidBody) error {
	if w.stepping {
		return ErrStructuralMutationDuringStep
	}
	for _, f := range b.Fixtures {
		w.grid.Remove(f)
	}
	for _, j := range append([]constraint.Joint(nil), w.jointsByBody[b]...) {
		w.removeJointUnchecked(j)
	}

	for i, body := range w.Bodies {
		if body == b {
			w.Bodies = append(w.Bodies[:i], w.Bodies[i+1:]...)
			break
		}
	}
	w.fireBodyDestroyed(b)
	return nil
}

// AddJoint attaches a joint to the world and indexes it by both of its
// bodies for RemoveBody's cascade.
func (w *World) AddJoint(j constraint.Joint) error {
	if w.stepping {
		return ErrStructuralMutationDuringStep
	}
	w.Joints = append(w.Joints, j)
	a, b := j.Bodies()
	w.jointsByBody[a] = append(w.jointsByBody[a], j)
	w.jointsByBody[b] = append(w.jointsByBody[b], j)
	return nil
}

// RemoveJoint detaches a joint, firing DestructionListener.
func (w *World) RemoveJoint(j constraint.Joint) error {
	if w.stepping {
		return ErrStructuralMutationDuringStep
	}
	w.removeJointUnchecked(j)
	return nil
}

func (w *World) removeJointUnchecked(j constraint.Joint) {
	for i, joint := range w.Joints {
		if joint == j {
			w.Joints = append(w.Joints[:i], w.Joints[i+1:]...)
			break
		}
	}
	a, b := j.Bodies()
	w.jointsByBody[a] = removeJointFromSlice(w.jointsByBody[a], j)
	w.jointsByBody[b] = removeJointFromSlice(w.jointsByBody[b], j)
	w.fireJointDestroyed(j)
}

func removeJointFromSlice(s []constraint.Joint, j constraint.Joint) []constraint.Joint {
	for i, v := range s {
		if v == j {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// QueryAABB delegates to the broad-phase grid.
func (w *World) QueryAABB(aabb actor.AABB) []*actor.BodyFixture { return w.grid.QueryAABB(aabb) }

// QueryPoint delegates to the broad-phase grid.
func (w *World) QueryPoint(p mgl64.Vec2) []*actor.BodyFixture { return w.grid.QueryPoint(p) }

// RayCast delegates to the broad-phase grid.
func (w *World) RayCast(origin, dir mgl64.Vec2, maxLen float64, all bool) []RayHit {
	return w.grid.RayCast(origin, dir, maxLen, all)
}

// Step advances the simulation by dt seconds through the full spec §4.9
// pipeline: listener begin, velocity/position integration, contact
// generation, island solve, CCD, bounds check, at-rest update, listener
// end. A body that diverges to NaN/Inf is disabled and reported via a
// DivergedError joined into the returned error, but does not stop the step.
func (w *World) Step(dt float64) error {
	if dt <= 0 {
		return ErrInvalidTimeStep
	}

	w.stepping = true
	defer func() { w.stepping = false }()

	w.TimeStep.PrevDT = w.TimeStep.DT
	w.TimeStep.DT = dt
	w.TimeStep.InvDT = 1.0 / dt
	w.TimeStep.DTRatio = 1.0
	if w.TimeStep.PrevDT > 0 {
		w.TimeStep.DTRatio = dt / w.TimeStep.PrevDT
	}
	w.Metrics = StepMetrics{}

	w.fireStepBegin()

	for _, b := range w.Bodies {
		if !b.Enabled || b.AtRest {
			continue
		}
		b.IntegrateVelocity(dt, w.Gravity)
	}

	for _, b := range w.Bodies {
		if !b.Enabled || b.AtRest {
			continue
		}
		b.IntegratePosition(dt, w.Settings.MaxTranslation, w.Settings.MaxRotation)
		b.RecomputeFixtureAABBs()
		for _, f := range b.Fixtures {
			w.grid.Move(f)
		}
	}

	contacts := w.updateContacts()
	islands := assembleIslands(w.Bodies, w.Joints, contacts)
	w.Metrics.Contacts = len(contacts)
	w.Metrics.Islands = len(islands)

	for _, isl := range islands {
		w.solveIsland(isl, dt)
		if !isl.positionsSolved {
			w.Metrics.PositionShortfalls++
		}
	}

	w.sweepCCD(dt)
	w.checkBounds()

	for _, isl := range islands {
		updateAtRest(isl, dt, w.Settings)
	}

	var diverged []error
	for _, b := range w.Bodies {
		if !b.Enabled {
			continue
		}
		if !isFinite(b.Transform.Position.X()) || !isFinite(b.Transform.Position.Y()) ||
			!isFinite(b.LinearVelocity.X()) || !isFinite(b.LinearVelocity.Y()) ||
			!isFinite(b.AngularVelocity) {
			b.SetEnabled(false)
			diverged = append(diverged, &DivergedError{Body: b})
		}
	}

	w.fireStepEnd()

	return errors.Join(diverged...)
}

// StepN runs count fixed steps of Settings.StepFrequency seconds each,
// joining every step's error (spec §4.9's fixed-frequency loop).
func (w *World) StepN(count int) error {
	var errs []error
	for i := 0; i < count; i++ {
		if err := w.Step(w.Settings.StepFrequency); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// solveIsland runs the velocity and position solver passes for one island:
// contacts prepare once (with warm-starting), then friction-before-normal
// velocity iterations run alongside joint velocity solves, followed by
// position-correction iterations that stop early once every constraint
// reports satisfied (spec §4.6).
func (w *World) solveIsland(isl *island, dt float64) {
	for _, c := range isl.contacts {
		c.Prepare(w.Settings.WarmStartingEnabled)
	}

	for i := 0; i < w.Settings.VelocityIterations; i++ {
		for _, j := range isl.joints {
			j.SolveVelocity(dt)
		}
		for _, c := range isl.contacts {
			c.SolveFriction()
		}
		for _, c := range isl.contacts {
			c.SolveNormal()
		}
	}

	for _, c := range isl.contacts {
		w.firePostSolve(c)
	}

	isl.positionsSolved = false
	for i := 0; i < w.Settings.PositionIterations; i++ {
		solved := true
		for _, j := range isl.joints {
			if !j.SolvePosition(dt) {
				solved = false
			}
		}
		for _, c := range isl.contacts {
			if !c.SolvePosition() {
				solved = false
			}
		}
		if solved {
			isl.positionsSolved = true
			break
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
