package actor

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewFixture_ValidatesInputs(t *testing.T) {
	circle, _ := NewCircle(mgl64.Vec2{0, 0}, 1)

	tests := []struct {
		name                                  string
		density, friction, restitution        float64
		wantErr                               error
	}{
		{"negative density", -1, 0, 0, ErrNegativeDensity},
		{"negative friction", 1, -1, 0, ErrNegativeFriction},
		{"negative restitution", 1, 0, -1, ErrNegativeRestitution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFixture(circle, tt.density, tt.friction, tt.restitution)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilter_ShouldCollide(t *testing.T) {
	tests := []struct {
		name string
		a, b Filter
		want bool
	}{
		{"defaults collide", DefaultFilter(), DefaultFilter(), true},
		{"negative shared group never collides", Filter{Group: -1}, Filter{Group: -1}, false},
		{"positive shared group always collides", Filter{Group: 1, Category: 1, Mask: 0}, Filter{Group: 1, Category: 2, Mask: 0}, true},
		{"disjoint masks", Filter{Category: 1, Mask: 1}, Filter{Category: 2, Mask: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.ShouldCollide(tt.b); got != tt.want {
				t.Errorf("ShouldCollide = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBodyFixture_ComputeAABB(t *testing.T) {
	circle, _ := NewCircle(mgl64.Vec2{0, 0}, 1)
	f, _ := NewFixture(circle, 1, 0, 0)

	aabb := f.ComputeAABB(NewTransformAt(mgl64.Vec2{5, 5}, 0))
	if aabb.Min != (mgl64.Vec2{4, 4}) || aabb.Max != (mgl64.Vec2{6, 6}) {
		t.Errorf("AABB = %+v", aabb)
	}
	if f.AABB() != aabb {
		t.Error("AABB() should return the cached value from ComputeAABB")
	}
}
