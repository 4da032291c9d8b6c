package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"waymark.ai/internal/auth"
	"waymark.ai/internal/protocol"
)

type sessionRequest struct {
	// Identity resumes an existing character; empty mints a new one.
	Identity string `json:"identity" validate:"omitempty,uuid"`
	Name     string `json:"name" validate:"omitempty,max=32,printascii"`
}

type sessionResponse struct {
	Token           string `json:"token"`
	Identity        string `json:"identity"`
	ProtocolVersion string `json:"protocol_version"`
}

var validate = validator.New()

func sessionHandler(svc *auth.Service) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "invalid json")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}
		token, ident, err := svc.Issue(req.Identity, req.Name)
		if err != nil {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}
		writeJSON(rw, http.StatusOK, sessionResponse{
			Token:           token,
			Identity:        ident,
			ProtocolVersion: protocol.Version,
		})
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, msg string) {
	writeJSON(rw, status, map[string]any{"ok": false, "code": code, "error": msg})
}
