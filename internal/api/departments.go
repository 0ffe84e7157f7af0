package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"
)

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := s.store.ListDepartments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, depts)
}

func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var in store.DepartmentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateDepartment(&in); err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.store.CreateDepartment(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r, events.EntityDepartment, d.ID, events.ActionCreated, map[string]any{"name": d.Name})
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityDepartment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.store.GetDepartment(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityDepartment, err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityDepartment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in store.DepartmentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateDepartment(&in); err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.store.UpdateDepartment(r.Context(), id, in)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityDepartment, err))
		return
	}
	s.record(r, events.EntityDepartment, d.ID, events.ActionUpdated, map[string]any{"name": d.Name})
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityDepartment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteDepartment(r.Context(), id); err != nil {
		writeError(w, r, lookupErr(events.EntityDepartment, err))
		return
	}
	s.record(r, events.EntityDepartment, id, events.ActionDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}
