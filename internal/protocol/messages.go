package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
	// Token is an identity token from POST /v1/session. The identity a connection acts as
	// is taken from the token only.
	Token string `json:"token"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	Identity        string      `json:"identity"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz       int     `json:"tick_rate_hz"`
	ChunkSize        float64 `json:"chunk_size"`
	ObsRadiusChunks  int     `json:"obs_radius_chunks"`
	AcceptanceRadius float64 `json:"acceptance_radius"`
	MoveSpeed        float64 `json:"move_speed"`
	MaxMoveDistance  float64 `json:"max_move_distance"`
}

// ENTER / LEAVE (client -> server)
type EnterMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
}

type LeaveMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
}

// ENTER_RESULT (server -> client)
type EnterResultMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ReqID           string     `json:"req_id,omitempty"`
	OK              bool       `json:"ok"`
	Code            string     `json:"code,omitempty"`
	Message         string     `json:"message,omitempty"`
	EntityID        uint32     `json:"entity_id,omitempty"`
	Pos             [3]float64 `json:"pos"`
}

// MOVE (client -> server). Kind selects which of Path or Target is read.
type MoveMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ReqID           string       `json:"req_id,omitempty"`
	Kind            string       `json:"kind"`
	Path            [][3]float64 `json:"path,omitempty"`
	Target          uint32       `json:"target,omitempty"`
}

// MOVE_RESULT (server -> client)
type MoveResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Tick            uint64 `json:"tick"`
}

// ERROR (server -> client) for messages that could not be routed.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
