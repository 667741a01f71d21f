package feather

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
)

// island is a transient group of bodies connected through non-sensor
// touching contacts or joints, solved together and put to rest together
// (spec §4.7). Static bodies may belong to more than one island -- they
// bound motion without propagating it.
type island struct {
	bodies   []*actor.RigidBody
	contacts []*constraint.ContactConstraint
	joints   []constraint.Joint

	// positionsSolved is set by solveIsland once its position-correction
	// pass converged within the iteration budget (spec §4.7: an island may
	// only sleep if "the island's position constraints solved cleanly").
	positionsSolved bool
}

type islandEdge struct {
	other    *actor.RigidBody
	contact  *constraint.ContactConstraint
	joint    constraint.Joint
}

// assembleIslands groups every awake, enabled body reachable from each
// other through a contact or joint into one island, per spec §4.7. Disabled
// and already-at-rest bodies are left out of traversal as seeds (they still
// show up if reached from an awake neighbor; the traversal then clears their
// AtRest flag so they are solved with the island).
func assembleIslands(bodies []*actor.RigidBody, joints []constraint.Joint, contacts []*constraint.ContactConstraint) []*island {
	adj := make(map[*actor.RigidBody][]islandEdge)
	link := func(a, b *actor.RigidBody, c *constraint.ContactConstraint, j constraint.Joint) {
		adj[a] = append(adj[a], islandEdge{other: b, contact: c, joint: j})
		adj[b] = append(adj[b], islandEdge{other: a, contact: c, joint: j})
	}
	for _, c := range contacts {
		link(c.BodyA, c.BodyB, c, nil)
	}
	for _, j := range joints {
		a, b := j.Bodies()
		link(a, b, nil, j)
	}

	visited := make(map[*actor.RigidBody]bool)
	var islands []*island

	for _, seed := range bodies {
		if seed.IsStatic() || !seed.Enabled || seed.AtRest || visited[seed] {
			continue
		}

		isl := &island{}
		bodySeen := make(map[*actor.RigidBody]bool)
		contactSeen := make(map[*constraint.ContactConstraint]bool)
		jointSeen := make(map[constraint.Joint]bool)

		stack := []*actor.RigidBody{seed}
		for len(stack) > 0 {
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if bodySeen[b] {
				continue
			}
			bodySeen[b] = true
			isl.bodies = append(isl.bodies, b)

			if b.IsStatic() {
				continue
			}
			visited[b] = true
			if b.AtRest {
				b.SetAtRest(false)
			}

			for _, e := range adj[b] {
				if e.contact != nil && !contactSeen[e.contact] {
					contactSeen[e.contact] = true
					isl.contacts = append(isl.contacts, e.contact)
				}
				if e.joint != nil && !jointSeen[e.joint] {
					jointSeen[e.joint] = true
					isl.joints = append(isl.joints, e.joint)
				}
				if !bodySeen[e.other] {
					stack = append(stack, e.other)
				}
			}
		}

		islands = append(islands, isl)
	}

	return islands
}

// updateAtRest advances each non-static body's at-rest timer and puts the
// whole island to sleep only once every member has stayed under the
// velocity thresholds for MinAtRestTime (spec §4.7): a single fast body
// keeps its whole island awake.
func updateAtRest(isl *island, dt float64, settings Settings) {
	canSleep := isl.positionsSolved
	for _, b := range isl.bodies {
		if b.IsStatic() {
			continue
		}
		if !b.AtRestDetectionEnabled {
			canSleep = false
			b.AtRestTime = 0
			continue
		}
		slow := b.LinearVelocity.LenSqr() < settings.MaxAtRestLinearVelocity*settings.MaxAtRestLinearVelocity &&
			absf(b.AngularVelocity) < settings.MaxAtRestAngularVelocity
		if slow {
			b.AtRestTime += dt
		} else {
			b.AtRestTime = 0
			canSleep = false
		}
		if b.AtRestTime < settings.MinAtRestTime {
			canSleep = false
		}
	}

	if canSleep {
		for _, b := range isl.bodies {
			if !b.IsStatic() {
				b.SetAtRest(true)
			}
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
