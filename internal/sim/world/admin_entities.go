package world

import (
	"context"
	"fmt"
)

// RequestSpawn spawns a non-player entity at the next tick boundary and waits for its id.
// It is safe to call from other goroutines.
func (w *World) RequestSpawn(ctx context.Context, pos Vec3) (uint32, error) {
	resp := make(chan SpawnResult, 1)
	select {
	case w.spawn <- SpawnRequest{Pos: pos, Resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.EntityID, r.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// RequestDespawn removes a non-player entity at the next tick boundary.
// It is safe to call from other goroutines.
func (w *World) RequestDespawn(ctx context.Context, entityID uint32) error {
	resp := make(chan error, 1)
	select {
	case w.despawn <- DespawnRequest{EntityID: entityID, Resp: resp}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestEnter and RequestLeave are the goroutine-safe forms of EnterWorld and LeaveWorld.
func (w *World) RequestEnter(ctx context.Context, req EnterRequest) (EnterResult, error) {
	if req.Resp == nil {
		req.Resp = make(chan EnterResult, 1)
	}
	select {
	case w.enter <- req:
	case <-ctx.Done():
		return EnterResult{}, ctx.Err()
	}
	select {
	case r := <-req.Resp:
		return r, nil
	case <-ctx.Done():
		return EnterResult{}, fmt.Errorf("%w: %w", ErrEnterPending, ctx.Err())
	}
}

// RequestLeave queues a leave for identity. out identifies the session that entered and may
// be nil.
func (w *World) RequestLeave(ctx context.Context, identity Identity, out chan []byte) error {
	resp := make(chan error, 1)
	select {
	case w.leave <- LeaveRequest{Identity: identity, Out: out, Resp: resp}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
