package actor

import "github.com/go-gl/mathgl/mgl64"

// MassType tags how a body responds to forces, per spec §3.
type MassType int

const (
	// Normal bodies have finite mass and inertia.
	Normal MassType = iota
	// InfiniteMass bodies have finite inertia but infinite mass: they
	// rotate freely but never translate in response to forces.
	InfiniteMass
	// InfiniteInertia bodies have finite mass but infinite inertia: they
	// translate freely but never rotate in response to torques.
	InfiniteInertia
	// Infinite bodies have both infinite mass and inertia. Static by
	// default; a body with this mass type and nonzero velocity is kinematic.
	Infinite
)

// Mass holds the aggregated mass properties of a body.
type Mass struct {
	Center       mgl64.Vec2 // center of mass, local frame
	Mass         float64
	Inertia      float64 // about the center of mass
	InvMass      float64
	InvInertia   float64
	Type         MassType
}

// NewMass derives InvMass/InvInertia from Mass/Inertia and Type, zeroing the
// inverses that Type says should never respond.
func NewMass(center mgl64.Vec2, mass, inertia float64) Mass {
	m := Mass{Center: center, Mass: mass, Inertia: inertia}
	m.normalize()
	return m
}

// InfiniteAtOrigin is the degenerate mass used for bodies whose fixtures
// contribute zero mass (all densities zero) and for static bodies.
func InfiniteAtOrigin() Mass {
	return Mass{Center: mgl64.Vec2{0, 0}, Type: Infinite}
}

func (m *Mass) normalize() {
	const epsilon = 1e-12

	switch {
	case m.Mass <= epsilon && m.Inertia <= epsilon:
		m.Type = Infinite
		m.Mass, m.Inertia = 0, 0
	case m.Mass <= epsilon:
		m.Type = InfiniteMass
		m.Mass = 0
	case m.Inertia <= epsilon:
		m.Type = InfiniteInertia
		m.Inertia = 0
	default:
		m.Type = Normal
	}

	if m.Mass > epsilon {
		m.InvMass = 1.0 / m.Mass
	} else {
		m.InvMass = 0
	}
	if m.Inertia > epsilon {
		m.InvInertia = 1.0 / m.Inertia
	} else {
		m.InvInertia = 0
	}
}

// AggregateMass sums per-fixture masses (area-weighted centroid, parallel
// axis theorem for inertia) into a single body mass, per spec §4.1. An
// aggregate with zero total mass degenerates to InfiniteAtOrigin.
func AggregateMass(masses []Mass) Mass {
	var totalMass float64
	var weightedCenter mgl64.Vec2

	for _, m := range masses {
		totalMass += m.Mass
		weightedCenter = weightedCenter.Add(m.Center.Mul(m.Mass))
	}

	if totalMass <= 1e-12 {
		return InfiniteAtOrigin()
	}

	center := weightedCenter.Mul(1.0 / totalMass)

	var totalInertia float64
	for _, m := range masses {
		d := m.Center.Sub(center)
		// Parallel axis theorem: I_about_center = I_own + mass * d^2
		totalInertia += m.Inertia + m.Mass*d.Dot(d)
	}

	return NewMass(center, totalMass, totalInertia)
}
