package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brianhealey/phonebook/internal/auth"
	"github.com/brianhealey/phonebook/internal/models"
)

func (h *Handlers) listPersons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.List())
}

func (h *Handlers) getPerson(w http.ResponseWriter, r *http.Request) {
	c, appErr := h.reg.Get(chi.URLParam(r, "id"))
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) createPerson(w http.ResponseWriter, r *http.Request) {
	var req models.ContactCreate
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, appErr := h.reg.Create(r.Context(), req)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	slog.Info("api: contact created", "id", c.ID, "owner", auth.OwnerFromContext(r.Context()))
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) updatePerson(w http.ResponseWriter, r *http.Request) {
	var req models.ContactUpdate
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, appErr := h.reg.Update(r.Context(), chi.URLParam(r, "id"), req)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	slog.Info("api: contact updated", "id", c.ID, "owner", auth.OwnerFromContext(r.Context()))
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) deletePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if appErr := h.reg.Delete(r.Context(), id); appErr != nil {
		writeError(w, appErr)
		return
	}
	slog.Info("api: contact deleted", "id", id, "owner", auth.OwnerFromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
