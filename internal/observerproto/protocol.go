// Package observerproto is the wire format of the loopback-only spectator stream. It is
// versioned separately from the client protocol.
package observerproto

import "waymark.ai/internal/protocol"

const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
)

// Client -> Server. First message on the observer WS connection; may be re-sent to change
// the filter.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// EveryTicks thins the stream to one frame per N ticks (default 1).
	EveryTicks int `json:"every_ticks,omitempty"`

	// Optional area filter: only entities within RadiusChunks chunks of Center.
	Center       *[3]float64 `json:"center,omitempty"`
	RadiusChunks int         `json:"radius_chunks,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz       int     `json:"tick_rate_hz"`
	ChunkSize        float64 `json:"chunk_size"`
	AcceptanceRadius float64 `json:"acceptance_radius"`
	MoveSpeed        float64 `json:"move_speed"`
	MaxMoveDistance  float64 `json:"max_move_distance"`
}

// Server -> Client.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Entities []protocol.EntityObs `json:"entities"`
}
