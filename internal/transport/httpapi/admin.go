package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"waymark.ai/internal/protocol"
	"waymark.ai/internal/sim/world"
)

const adminTimeout = 5 * time.Second

type spawnRequest struct {
	Pos *[3]float64 `json:"pos" validate:"required"`
}

// Admin endpoints never touch world state directly: reads go through the published view
// and writes are queued for the next tick boundary.
func adminRoutes(r chi.Router, w *world.World) {
	r.Get("/state", func(rw http.ResponseWriter, r *http.Request) {
		v := w.View()
		writeJSON(rw, http.StatusOK, struct {
			WorldID  string               `json:"world_id"`
			Tick     uint64               `json:"tick"`
			Metrics  world.WorldMetrics   `json:"metrics"`
			Entities []protocol.EntityObs `json:"entities"`
		}{
			WorldID:  w.ID(),
			Tick:     v.Tick,
			Metrics:  w.Metrics(),
			Entities: v.Entities,
		})
	})

	r.Get("/intents", func(rw http.ResponseWriter, r *http.Request) {
		v := w.View()
		writeJSON(rw, http.StatusOK, map[string]any{"tick": v.Tick, "intents": v.Intents})
	})

	r.Post("/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
		defer cancel()
		res, err := w.RequestSnapshot(ctx)
		if err != nil {
			writeJSON(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "tick": res.Tick, "error": err.Error()})
			return
		}
		writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "snapshot": res})
	})

	r.Post("/entities", func(rw http.ResponseWriter, r *http.Request) {
		var req spawnRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "invalid json")
			return
		}
		if err := validate.Struct(req); err != nil {
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "pos is required")
				return
			}
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
		defer cancel()
		id, err := w.RequestSpawn(ctx, world.Vec3{X: req.Pos[0], Y: req.Pos[1], Z: req.Pos[2]})
		if err != nil {
			writeWorldError(rw, err)
			return
		}
		writeJSON(rw, http.StatusCreated, map[string]any{"ok": true, "entity_id": id})
	})

	r.Delete("/entities/{id}", func(rw http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
		if err != nil || id == 0 {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "bad entity id")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
		defer cancel()
		if err := w.RequestDespawn(ctx, uint32(id)); err != nil {
			writeWorldError(rw, err)
			return
		}
		writeJSON(rw, http.StatusOK, map[string]any{"ok": true})
	})
}

func writeWorldError(rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, world.ErrEntityNotFound):
		writeError(rw, http.StatusNotFound, protocol.ErrInvalidTarget, err.Error())
	case errors.Is(err, world.ErrPawnEntity):
		writeError(rw, http.StatusConflict, protocol.ErrBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrWorldBusy, err.Error())
	default:
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
	}
}
