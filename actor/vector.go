package actor

import "github.com/go-gl/mathgl/mgl64"

// Cross2 computes the 2D scalar cross product (z-component of the 3D cross
// product of (a.x, a.y, 0) and (b.x, b.y, 0)). mathgl only defines Cross for
// Vec3, so this fills the 2D gap the rest of the package relies on.
func Cross2(a, b mgl64.Vec2) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// CrossScalarVec rotates v by +90 degrees and scales it by s. This is the
// 2D analogue of s × v used to turn an angular velocity into a linear one.
func CrossScalarVec(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v.Y(), s * v.X()}
}

// CrossVecScalar rotates v by -90 degrees and scales it by s, i.e. v × s.
func CrossVecScalar(v mgl64.Vec2, s float64) mgl64.Vec2 {
	return mgl64.Vec2{s * v.Y(), -s * v.X()}
}

// Perp returns v rotated 90 degrees counter-clockwise.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v.Y(), v.X()}
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
