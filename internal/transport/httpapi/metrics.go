package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"waymark.ai/internal/sim/world"
)

// Minimal Prometheus exposition format.
func metricsHandler(w *world.World, idx IndexStats) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		id := w.ID()
		m := w.Metrics()
		tick := m.Tick
		if tick == 0 {
			tick = w.CurrentTick()
		}

		gauge(rw, "waymark_world_tick", "Current world tick.", id, float64(tick))
		gauge(rw, "waymark_world_entities", "Live entities.", id, float64(m.Entities))
		gauge(rw, "waymark_world_characters", "Known characters, in world or not.", id, float64(m.Characters))
		gauge(rw, "waymark_world_pawns", "Characters currently in the world.", id, float64(m.Pawns))
		gauge(rw, "waymark_world_intents", "Entities with a movement intent.", id, float64(m.Intents))
		gauge(rw, "waymark_world_clients", "Connected clients with an observation stream.", id, float64(m.Clients))
		gauge(rw, "waymark_world_loaded_chunks", "Chunks holding at least one entity.", id, float64(m.LoadedChunks))
		gauge(rw, "waymark_world_step_ms", "Last tick step duration in milliseconds.", id, m.StepMS)
		gauge(rw, "waymark_world_last_dt_seconds", "Elapsed time fed to the last movement pass.", id, m.LastDT)
		gauge(rw, "waymark_world_moved_last_tick", "Entities that moved in the last tick.", id, float64(m.MovedLastTick))

		fmt.Fprintf(rw, "# HELP waymark_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE waymark_world_queue_depth gauge\n")
		for _, q := range []struct {
			name string
			n    int
		}{
			{"requests", m.QueueDepths.Requests},
			{"enter", m.QueueDepths.Enter},
			{"leave", m.QueueDepths.Leave},
			{"spawn", m.QueueDepths.Spawn},
			{"despawn", m.QueueDepths.Despawn},
		} {
			fmt.Fprintf(rw, "waymark_world_queue_depth{world=%q,queue=%q} %d\n", id, q.name, q.n)
		}

		counter(rw, "waymark_world_arrived_total", "Intents finished by arrival.", id, m.ArrivedTotal)
		counter(rw, "waymark_world_healed_total", "Intents removed because their target or owner vanished.", id, m.HealedTotal)
		counter(rw, "waymark_world_requests_accepted_total", "Accepted move requests.", id, m.RequestsAccepted)
		counter(rw, "waymark_world_requests_rejected_total", "Rejected move requests.", id, m.RequestsRejected)

		if idx != nil {
			s := idx.Stats()
			gauge(rw, "waymark_index_queue_depth", "Index writer backlog.", id, float64(s.QueueDepth))
			gauge(rw, "waymark_index_queue_capacity", "Index writer queue capacity.", id, float64(s.QueueCapacity))
			fmt.Fprintf(rw, "# HELP waymark_index_dropped_total Index rows dropped on a full queue.\n")
			fmt.Fprintf(rw, "# TYPE waymark_index_dropped_total counter\n")
			for _, d := range []struct {
				kind string
				n    uint64
			}{
				{"tick", s.DropTickTotal},
				{"audit", s.DropAuditTotal},
				{"snapshot", s.DropSnapshotTotal},
				{"snapshot_state", s.DropSnapshotStateTotal},
				{"tuning", s.DropTuningTotal},
			} {
				fmt.Fprintf(rw, "waymark_index_dropped_total{world=%q,kind=%q} %d\n", id, d.kind, d.n)
			}
		}
	}
}

func gauge(w io.Writer, name, help, world string, v float64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s{world=%q} %g\n", name, help, name, name, world, v)
}

func counter(w io.Writer, name, help, world string, v uint64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s{world=%q} %d\n", name, help, name, name, world, v)
}
