package runtime

import (
	"errors"

	"waymark.ai/internal/protocol"
)

type ErrorKind string

const (
	KindNoPawn             ErrorKind = "NO_PAWN"
	KindMissingEntityState ErrorKind = "MISSING_ENTITY_STATE"
	KindSelfTarget         ErrorKind = "SELF_TARGET"
	KindTargetNotFound     ErrorKind = "TARGET_NOT_FOUND"
	KindOutOfRange         ErrorKind = "OUT_OF_RANGE"
	KindInvalidWaypoint    ErrorKind = "INVALID_WAYPOINT"
	KindInvalidIntent      ErrorKind = "INVALID_INTENT"
)

// MoveError is a rejected movement request. Values compare equal under errors.Is when
// their kinds match, so callers test against the Err* sentinels.
type MoveError struct {
	Kind    ErrorKind
	Message string
}

func (e *MoveError) Error() string {
	if e.Message == "" {
		return "request_move: " + string(e.Kind)
	}
	return "request_move: " + e.Message
}

func (e *MoveError) Is(target error) bool {
	t, ok := target.(*MoveError)
	return ok && t.Kind == e.Kind
}

// Code is the wire error code for e.
func (e *MoveError) Code() string {
	switch e.Kind {
	case KindNoPawn:
		return protocol.ErrNoPawn
	case KindMissingEntityState:
		return protocol.ErrInternal
	case KindSelfTarget:
		return protocol.ErrSelfTarget
	case KindTargetNotFound:
		return protocol.ErrInvalidTarget
	case KindOutOfRange:
		return protocol.ErrOutOfRange
	case KindInvalidWaypoint, KindInvalidIntent:
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}

// IsValidation reports whether err is a user-correctable rejection rather than an
// integrity problem elsewhere in the world state.
func IsValidation(err error) bool {
	var me *MoveError
	if !errors.As(err, &me) {
		return false
	}
	return me.Kind != KindMissingEntityState
}

// ErrorCode maps any request error to a wire code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var me *MoveError
	if errors.As(err, &me) {
		return me.Code()
	}
	return protocol.ErrInternal
}

var (
	ErrNoPawn             = &MoveError{Kind: KindNoPawn, Message: "unable to find character pawn for sender"}
	ErrMissingEntityState = &MoveError{Kind: KindMissingEntityState, Message: "unable to resolve entity state for pawn"}
	ErrSelfTarget         = &MoveError{Kind: KindSelfTarget, Message: "cannot move toward yourself"}
	ErrTargetNotFound     = &MoveError{Kind: KindTargetNotFound, Message: "target entity not found"}
	ErrOutOfRange         = &MoveError{Kind: KindOutOfRange, Message: "target is too far away"}
	ErrInvalidWaypoint    = &MoveError{Kind: KindInvalidWaypoint, Message: "waypoint is not a valid world position"}
	ErrInvalidIntent      = &MoveError{Kind: KindInvalidIntent, Message: "unknown movement intent"}
)
