package worldtest

import (
	"math"

	world "waymark.ai/internal/sim/world"
)

// runScenario drives a mixed workload: players entering and leaving, NPCs spawning and
// despawning, paths, chases and a few rejected requests.
func runScenario(h *Harness, ticks int) {
	h.Enter("alice")
	h.Enter("bob")
	npc := h.Spawn(world.Vec3{X: 12, Z: -7})
	h.StepInput(world.StepInput{Enters: []world.Identity{"carol"}, Spawns: []world.Vec3{{X: -15, Z: 15}}})

	bob, _ := h.W.PawnEntity("bob")
	for i := 0; i < ticks; i++ {
		in := world.StepInput{}
		switch i % 17 {
		case 0:
			x := 10 * math.Cos(float64(i))
			z := 10 * math.Sin(float64(i))
			in.Moves = append(in.Moves, world.MoveRequest{Identity: "alice", ReqID: "a", Intent: world.PathIntent{Waypoints: []world.Vec3{{X: x, Z: z}, {X: -x, Z: z / 2}}}})
		case 3:
			in.Moves = append(in.Moves, world.MoveRequest{Identity: "carol", ReqID: "c", Intent: world.ChaseIntent{Target: bob}})
		case 5:
			in.Moves = append(in.Moves, world.MoveRequest{Identity: "bob", ReqID: "b", Intent: world.ChaseIntent{Target: npc}})
		case 7:
			in.Moves = append(in.Moves,
				world.MoveRequest{Identity: "alice", ReqID: "bad", Intent: world.PathIntent{Waypoints: []world.Vec3{{X: 500}}}},
				world.MoveRequest{Identity: "ghost", ReqID: "ghost", Intent: world.PathIntent{}},
			)
		case 11:
			if i == 11 {
				in.Despawns = []uint32{npc}
			}
		case 13:
			if i%2 == 0 {
				in.Leaves = []world.Identity{"carol"}
			} else {
				in.Enters = []world.Identity{"carol"}
			}
		}
		h.StepInput(in)
	}
}
