package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello       = "HELLO"
	TypeWelcome     = "WELCOME"
	TypeEnter       = "ENTER"
	TypeEnterResult = "ENTER_RESULT"
	TypeLeave       = "LEAVE"
	TypeMove        = "MOVE"
	TypeMoveResult  = "MOVE_RESULT"
	TypeObs         = "OBS"
	TypeError       = "ERROR"
)

// Movement intent kinds on the wire.
const (
	KindPath  = "PATH"
	KindChase = "CHASE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
