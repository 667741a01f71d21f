package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and orientation in 2D space. Rotation is
// stored as sin/cos rather than a bare angle, per the teacher's habit of
// caching the derived rotation (it cached a quaternion; here there's only
// one degree of freedom so sin/cos is the cheapest equivalent).
type Transform struct {
	Position mgl64.Vec2
	Sin      float64
	Cos      float64
}

// NewTransform creates an identity transform.
func NewTransform() Transform {
	return Transform{Position: mgl64.Vec2{0, 0}, Sin: 0, Cos: 1}
}

// NewTransformAt creates a transform at the given position and angle (radians).
func NewTransformAt(position mgl64.Vec2, angle float64) Transform {
	return Transform{Position: position, Sin: math.Sin(angle), Cos: math.Cos(angle)}
}

// Angle reconstructs the rotation angle from the cached sin/cos.
func (t Transform) Angle() float64 {
	return math.Atan2(t.Sin, t.Cos)
}

// SetAngle replaces the rotation with the given angle (radians).
func (t *Transform) SetAngle(angle float64) {
	t.Sin = math.Sin(angle)
	t.Cos = math.Cos(angle)
}

// Rotate applies only the rotational part of the transform to v.
func (t Transform) Rotate(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		t.Cos*v.X() - t.Sin*v.Y(),
		t.Sin*v.X() + t.Cos*v.Y(),
	}
}

// InverseRotate applies the inverse rotation (rotation transpose) to v.
func (t Transform) InverseRotate(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		t.Cos*v.X() + t.Sin*v.Y(),
		-t.Sin*v.X() + t.Cos*v.Y(),
	}
}

// ToWorld transforms a local-space point into world space.
func (t Transform) ToWorld(local mgl64.Vec2) mgl64.Vec2 {
	return t.Position.Add(t.Rotate(local))
}

// ToLocal transforms a world-space point into local space.
func (t Transform) ToLocal(world mgl64.Vec2) mgl64.Vec2 {
	return t.InverseRotate(world.Sub(t.Position))
}

// Mat2 returns the rotation as a 2x2 matrix, the way the teacher derives a
// rotation Mat3 from its quaternion for world-space inertia.
func (t Transform) Mat2() mgl64.Mat2 {
	return mgl64.Mat2{t.Cos, t.Sin, -t.Sin, t.Cos}
}

// Mul composes two transforms: the result maps local points of `t` expressed
// in the frame of `other` into the common outer frame (other * t).
func (t Transform) Mul(other Transform) Transform {
	sin := other.Sin*t.Cos + other.Cos*t.Sin
	cos := other.Cos*t.Cos - other.Sin*t.Sin
	return Transform{
		Position: other.ToWorld(t.Position),
		Sin:      sin,
		Cos:      cos,
	}
}
