package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrUnauthorized    = "E_UNAUTHORIZED"

	// World presence.
	ErrAlreadyInWorld = "E_ALREADY_IN_WORLD"
	ErrWorldBusy      = "E_WORLD_BUSY"

	// Movement requests.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNoPawn        = "E_NO_PAWN"
	ErrSelfTarget    = "E_SELF_TARGET"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrOutOfRange    = "E_OUT_OF_RANGE"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrUnauthorized:    {},
	ErrAlreadyInWorld:  {},
	ErrWorldBusy:       {},
	ErrBadRequest:      {},
	ErrNoPawn:          {},
	ErrSelfTarget:      {},
	ErrInvalidTarget:   {},
	ErrOutOfRange:      {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
