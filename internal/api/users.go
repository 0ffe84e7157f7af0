package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := uuidParams(r, "department_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := store.UserFilter{DepartmentID: ids["department_id"]}
	users, err := s.store.ListUsers(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in store.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateUser(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.store.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r, events.EntityUser, u.ID, events.ActionCreated, map[string]any{"email": u.Email, "role": u.Role})
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityUser)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityUser, err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityUser)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in store.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateUser(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.store.UpdateUser(r.Context(), id, in)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityUser, err))
		return
	}
	s.record(r, events.EntityUser, u.ID, events.ActionUpdated, map[string]any{"email": u.Email, "role": u.Role})
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityUser)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, lookupErr(events.EntityUser, err))
		return
	}
	s.record(r, events.EntityUser, id, events.ActionDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}
