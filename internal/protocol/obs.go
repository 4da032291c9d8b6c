package protocol

// OBS (server -> client): the observer's pawn plus every entity in nearby chunks.
type ObsMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	Identity        string      `json:"identity"`
	Self            *EntityObs  `json:"self,omitempty"`
	Entities        []EntityObs `json:"entities"`
}

type EntityObs struct {
	EntityID uint32     `json:"entity_id"`
	Pos      [3]float64 `json:"pos"`
	ChunkID  uint32     `json:"chunk_id"`
	Player   bool       `json:"player,omitempty"`
	Intent   *IntentObs `json:"intent,omitempty"`
}

type IntentObs struct {
	Kind   string       `json:"kind"`
	Path   [][3]float64 `json:"path,omitempty"`
	Target uint32       `json:"target,omitempty"`
}
