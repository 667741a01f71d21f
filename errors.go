// Package feather is the root of the feather2d rigid-body engine: the world
// pipeline that ties geometry (actor), narrow-phase (gjk/epa), and the
// solver (constraint) together into a single Step call.
package feather

import (
	"errors"

	"github.com/akmonengine/feather2d/actor"
)

// ErrInvalidTimeStep is returned by Step when dt <= 0 (spec §4.9/§7).
var ErrInvalidTimeStep = errors.New("feather: dt must be > 0")

// ErrStructuralMutationDuringStep is returned when Add/Remove is called
// while a Step is in progress (spec §5/§7): listeners may read world state
// but must not mutate its structure mid-step.
var ErrStructuralMutationDuringStep = errors.New("feather: cannot add or remove bodies/joints during a step")

// DivergedError reports that a body's state went non-finite (NaN/Inf) during
// integration (spec §4.9/§7). The step continues after disabling the body;
// this is informational, not a failure of the whole Step call.
type DivergedError struct {
	Body *actor.RigidBody
}

func (e *DivergedError) Error() string {
	return "feather: body state diverged (NaN/Inf) and was disabled"
}
