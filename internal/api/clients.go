package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in store.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateClient(&in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.store.CreateClient(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r, events.EntityClient, c.ID, events.ActionCreated, map[string]any{"name": c.Name})
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityClient)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.store.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityClient, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityClient)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in store.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateClient(&in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.store.UpdateClient(r.Context(), id, in)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityClient, err))
		return
	}
	s.record(r, events.EntityClient, c.ID, events.ActionUpdated, map[string]any{"name": c.Name})
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityClient)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteClient(r.Context(), id); err != nil {
		writeError(w, r, lookupErr(events.EntityClient, err))
		return
	}
	s.record(r, events.EntityClient, id, events.ActionDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}
