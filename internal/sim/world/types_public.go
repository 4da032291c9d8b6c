package world

import (
	movementruntime "waymark.ai/internal/sim/world/feature/movement/runtime"
	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

type Identity = modelpkg.Identity
type Vec3 = modelpkg.Vec3
type Quat = modelpkg.Quat
type Transform = modelpkg.Transform
type Entity = modelpkg.Entity
type Character = modelpkg.Character
type CharacterPawn = modelpkg.CharacterPawn
type MoveIntent = modelpkg.MoveIntent
type PathIntent = modelpkg.PathIntent
type ChaseIntent = modelpkg.ChaseIntent
type EntityMovement = modelpkg.EntityMovement
type Removal = movementruntime.Removal
type MoveError = movementruntime.MoveError

var (
	ErrNoPawn             = movementruntime.ErrNoPawn
	ErrMissingEntityState = movementruntime.ErrMissingEntityState
	ErrSelfTarget         = movementruntime.ErrSelfTarget
	ErrTargetNotFound     = movementruntime.ErrTargetNotFound
	ErrOutOfRange         = movementruntime.ErrOutOfRange
	ErrInvalidWaypoint    = movementruntime.ErrInvalidWaypoint
	ErrUnauthorizedTick   = movementruntime.ErrUnauthorizedTick
)

// MoveErrorCode maps a RequestMove error to its wire error code.
func MoveErrorCode(err error) string { return movementruntime.ErrorCode(err) }
