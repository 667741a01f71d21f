package feather

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is an optional world-space box; a body whose AABB leaves it fires
// every registered BoundsListener and is disabled in the same step (spec
// §4.9 step 6). A World with no Bounds set skips the check entirely.
type Bounds struct {
	actor.AABB
	enabled bool
}

// NewBounds returns an enabled Bounds box.
func NewBounds(min, max mgl64.Vec2) Bounds {
	return Bounds{
		AABB:    actor.AABB{Min: min, Max: max},
		enabled: true,
	}
}

func (w *World) checkBounds() {
	if !w.Bounds.enabled {
		return
	}
	for _, b := range w.Bodies {
		if !b.Enabled {
			continue
		}
		bodyBox := b.WorldAABB()
		if !w.Bounds.Overlaps(bodyBox) {
			w.fireBoundsOutside(b)
			b.SetEnabled(false)
		}
	}
}
