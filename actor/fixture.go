package actor

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrNegativeDensity is returned for a fixture with density < 0.
	ErrNegativeDensity = errors.New("actor: density must be >= 0")
	// ErrNegativeFriction is returned for a fixture with friction < 0.
	ErrNegativeFriction = errors.New("actor: friction must be >= 0")
	// ErrNegativeRestitution is returned for a fixture with restitution < 0.
	ErrNegativeRestitution = errors.New("actor: restitution must be >= 0")
)

// Filter controls which fixture pairs are even offered to narrow-phase.
// Two fixtures collide unless they share a nonzero Group that says no, or
// their Category/Mask bits disagree.
type Filter struct {
	Category uint32
	Mask     uint32
	Group    int32
}

// DefaultFilter collides with everything.
func DefaultFilter() Filter {
	return Filter{Category: 0x0001, Mask: 0xFFFFFFFF, Group: 0}
}

// ShouldCollide applies the standard category/mask/group precedence: a
// shared nonzero group overrides the category/mask test.
func (f Filter) ShouldCollide(other Filter) bool {
	if f.Group != 0 && f.Group == other.Group {
		return f.Group > 0
	}
	return f.Category&other.Mask != 0 && other.Category&f.Mask != 0
}

// BodyFixture attaches a shape and material properties to a body, per spec §3.
type BodyFixture struct {
	Shape Shape

	Density     float64
	Friction    float64
	Restitution float64
	// RestitutionThreshold is the minimum relative normal velocity for
	// restitution to apply at all (prevents resting-contact jitter).
	// 0 inherits the world's RestitutionVelocityThreshold setting.
	RestitutionThreshold float64

	IsSensor bool
	Filter   Filter

	aabb AABB
	body *RigidBody
}

// NewFixture validates and constructs a fixture with sane defaults.
func NewFixture(shape Shape, density, friction, restitution float64) (*BodyFixture, error) {
	if density < 0 {
		return nil, ErrNegativeDensity
	}
	if friction < 0 {
		return nil, ErrNegativeFriction
	}
	if restitution < 0 {
		return nil, ErrNegativeRestitution
	}
	return &BodyFixture{
		Shape:       shape,
		Density:     density,
		Friction:    friction,
		Restitution: restitution,
		Filter:      DefaultFilter(),
	}, nil
}

// ComputeAABB refreshes and returns the fixture's cached world AABB.
func (f *BodyFixture) ComputeAABB(transform Transform) AABB {
	f.aabb = f.Shape.ComputeAABB(transform)
	return f.aabb
}

// AABB returns the fixture's last computed world AABB.
func (f *BodyFixture) AABB() AABB {
	return f.aabb
}

// Body returns the owning rigid body, or nil if the fixture has not been
// attached to one yet.
func (f *BodyFixture) Body() *RigidBody {
	return f.body
}

// SupportWorld returns the fixture's support point in world space along
// direction -- the per-fixture counterpart to RigidBody.SupportWorld, used
// by narrow-phase once broad-phase has narrowed collision down to a single
// fixture pair (spec §3: ContactConstraint references two fixtures, not just
// two bodies).
func (f *BodyFixture) SupportWorld(direction mgl64.Vec2) mgl64.Vec2 {
	t := f.body.Transform
	local := t.InverseRotate(direction)
	return t.ToWorld(f.Shape.Support(local))
}
