package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/regula/internal/generator"
	"github.com/Harshitk-cp/regula/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ExperimentHandler struct {
	svc *service.ExperimentService
}

func NewExperimentHandler(svc *service.ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{svc: svc}
}

// writeRunError maps errors from running an experiment to a status.
func writeRunError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidExperiment):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, generator.ErrUngenerable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "experiment cancelled")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *ExperimentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ExperimentConfig
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.svc.RunLearning(r.Context(), req)
	if err != nil {
		writeRunError(w, err, "failed to run experiment")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *ExperimentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	out, err := h.svc.List(r.Context(), limit)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list experiments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiments": out})
}

func (h *ExperimentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid experiment id")
		return
	}

	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExperimentNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to get experiment")
		}
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *ExperimentHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid experiment id")
		return
	}
	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	out, err := h.svc.FindSimilar(r.Context(), id, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExperimentNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to find similar experiments")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiments": out})
}

// RunDialogue serves POST /v1/dialogues.
func (h *ExperimentHandler) RunDialogue(w http.ResponseWriter, r *http.Request) {
	var req service.DialogueConfig
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.svc.RunDialogue(r.Context(), req)
	if err != nil {
		writeRunError(w, err, "failed to run dialogue experiment")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}
