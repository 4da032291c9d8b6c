package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Entities     int `json:"entities"`
	Characters   int `json:"characters"`
	Pawns        int `json:"pawns"`
	Intents      int `json:"intents"`
	Clients      int `json:"clients"`
	LoadedChunks int `json:"loaded_chunks"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
	LastDT float64 `json:"last_dt"`

	MovedLastTick    int    `json:"moved_last_tick"`
	ArrivedTotal     uint64 `json:"arrived_total"`
	HealedTotal      uint64 `json:"healed_total"`
	RequestsAccepted uint64 `json:"requests_accepted"`
	RequestsRejected uint64 `json:"requests_rejected"`
}

type QueueDepths struct {
	Requests int `json:"requests"`
	Enter    int `json:"enter"`
	Leave    int `json:"leave"`
	Spawn    int `json:"spawn"`
	Despawn  int `json:"despawn"`
}

func (w *World) storeMetrics(stepMS, dt float64) {
	s := w.store
	w.metrics.Store(WorldMetrics{
		Tick:         w.tick.Load(),
		Entities:     len(s.entities),
		Characters:   len(s.characters),
		Pawns:        len(s.pawns),
		Intents:      len(s.movements),
		Clients:      len(w.clients),
		LoadedChunks: len(s.chunks),
		QueueDepths: QueueDepths{
			Requests: len(w.requests),
			Enter:    len(w.enter),
			Leave:    len(w.leave),
			Spawn:    len(w.spawn),
			Despawn:  len(w.despawn),
		},
		StepMS:           stepMS,
		LastDT:           dt,
		MovedLastTick:    w.lastMove.Moved,
		ArrivedTotal:     w.counters.arrived,
		HealedTotal:      w.counters.healed,
		RequestsAccepted: w.counters.accepted,
		RequestsRejected: w.counters.rejected,
	})
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
