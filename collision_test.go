package feather

import (
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/epa"
	"github.com/go-gl/mathgl/mgl64"
)

// TestWorld_SensorReportsContactWithoutResolution confirms the sensor
// contract from spec §4.5: the contact lifecycle fires, but the pair never
// reaches the solver, so the falling body passes straight through.
func TestWorld_SensorReportsContactWithoutResolution(t *testing.T) {
	w := NewWorld(mgl64.Vec2{0, -10})

	gate := boxBody(t, 0.5, mgl64.Vec2{0, 0}, 1)
	gate.Mass = actor.InfiniteAtOrigin()
	gate.Fixtures[0].IsSensor = true
	if err := w.AddBody(gate); err != nil {
		t.Fatal(err)
	}

	ball := circleBody(t, 0.1, mgl64.Vec2{0, 2}, 1)
	if err := w.AddBody(ball); err != nil {
		t.Fatal(err)
	}

	began := false
	w.AddContactListener(contactListenerFunc{begin: func(c *constraint.ContactConstraint) { began = true }})

	for i := 0; i < 120; i++ {
		if err := w.Step(1.0 / 60.0); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	if !began {
		t.Error("expected the sensor overlap to fire ContactListener.Begin")
	}
	if ball.Transform.Position.Y() > -1 {
		t.Errorf("ball.y = %v, expected it to fall through the sensor unimpeded", ball.Transform.Position.Y())
	}
}

// TestWorld_ImpactWakesRestingBody checks that an at-rest body struck by an
// awake one is pulled into the awake body's island and resumes simulating
// (spec §4.7's traversal through non-sensor contacts).
func TestWorld_ImpactWakesRestingBody(t *testing.T) {
	w := NewWorld(mgl64.Vec2{0, -10})

	ground := boxBody(t, 5, mgl64.Vec2{0, -5}, 1)
	ground.Mass = actor.InfiniteAtOrigin()
	if err := w.AddBody(ground); err != nil {
		t.Fatal(err)
	}

	sleeper := boxBody(t, 0.5, mgl64.Vec2{0, 0.5}, 1)
	if err := w.AddBody(sleeper); err != nil {
		t.Fatal(err)
	}

	const dt = 1.0 / 60.0
	for i := 0; i < 180; i++ {
		if err := w.Step(dt); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if !sleeper.AtRest {
		t.Fatal("expected the box to be at rest before the impact")
	}

	hammer := boxBody(t, 0.5, mgl64.Vec2{0, 3}, 1)
	if err := w.AddBody(hammer); err != nil {
		t.Fatal(err)
	}

	woke := false
	for i := 0; i < 120; i++ {
		if err := w.Step(dt); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if !sleeper.AtRest {
			woke = true
			break
		}
	}

	if !woke {
		t.Error("expected the falling box's impact to wake the resting one")
	}
}

// TestWorld_StepMetrics_CountsIslandsAndContacts gives the spec §7
// ConvergenceShortfall surface a smoke test: a box resting on the ground is
// one island with at least one live contact.
func TestWorld_StepMetrics_CountsIslandsAndContacts(t *testing.T) {
	w := NewWorld(mgl64.Vec2{0, -10})

	ground := boxBody(t, 5, mgl64.Vec2{0, -5}, 1)
	ground.Mass = actor.InfiniteAtOrigin()
	if err := w.AddBody(ground); err != nil {
		t.Fatal(err)
	}
	box := boxBody(t, 0.5, mgl64.Vec2{0, 0.45}, 1)
	if err := w.AddBody(box); err != nil {
		t.Fatal(err)
	}

	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if w.Metrics.Islands != 1 {
		t.Errorf("Metrics.Islands = %d, want 1", w.Metrics.Islands)
	}
	if w.Metrics.Contacts < 1 {
		t.Errorf("Metrics.Contacts = %d, want >= 1", w.Metrics.Contacts)
	}
}

// TestWorld_SetManifoldSolver_OverridesClipping swaps the manifold solver
// for one that reports a single midpoint contact and confirms the default
// narrow phase routes polygon pairs through it.
func TestWorld_SetManifoldSolver_OverridesClipping(t *testing.T) {
	w := NewWorld(mgl64.Vec2{0, 0})

	called := false
	w.SetManifoldSolver(func(a, b *actor.BodyFixture, normal mgl64.Vec2, depth float64) epa.Manifold {
		called = true
		mid := a.Body().Transform.Position.Add(b.Body().Transform.Position).Mul(0.5)
		return epa.Manifold{Normal: normal, Points: []epa.ManifoldPoint{{Point: mid, Penetration: depth}}}
	})

	a := boxBody(t, 0.5, mgl64.Vec2{-0.4, 0}, 1)
	if err := w.AddBody(a); err != nil {
		t.Fatal(err)
	}
	b := boxBody(t, 0.5, mgl64.Vec2{0.4, 0}, 1)
	if err := w.AddBody(b); err != nil {
		t.Fatal(err)
	}

	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if !called {
		t.Error("expected the overriding manifold solver to be invoked for the polygon pair")
	}
}
