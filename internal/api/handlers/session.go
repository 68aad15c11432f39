package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SessionHandler struct {
	svc *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func writeSessionError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrInvalidExperiment):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoSnapshotStore):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.SessionConfig
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeSessionError(w, err, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(id); err != nil {
		writeSessionError(w, err, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Observe(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req service.Observation
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := h.svc.Observe(id, req)
	if err != nil {
		writeSessionError(w, err, "failed to learn interaction")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *SessionHandler) Regula(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	regula, err := h.svc.Extract(id)
	if err != nil {
		writeSessionError(w, err, "failed to extract regula")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regula": regula})
}

func (h *SessionHandler) Hypotheses(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.Hypotheses(id)
	if err != nil {
		writeSessionError(w, err, "failed to list hypotheses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hypotheses": rows})
}

type evaluateRequest struct {
	Regula domain.Regula `json:"regula"`
}

func (h *SessionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req evaluateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Regula) == 0 {
		writeError(w, http.StatusBadRequest, "regula is required")
		return
	}

	eval, err := h.svc.Evaluate(id, req.Regula)
	if err != nil {
		writeSessionError(w, err, "failed to evaluate session")
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.Snapshot(r.Context(), id)
	if err != nil {
		writeSessionError(w, err, "failed to snapshot session")
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}
