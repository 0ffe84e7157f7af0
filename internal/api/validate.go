package api

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pathID returns the {id} URL parameter. Anything that is not a UUID cannot
// name a stored row and is reported as not found.
func pathID(r *http.Request, entity string) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", notFound(entity)
	}
	return id, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validRole(role string) bool {
	switch role {
	case store.RoleAdmin, store.RoleManager, store.RoleAgent:
		return true
	}
	return false
}

// optional trims a nullable string and maps blank to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ensureExists checks that id names a stored entity of the given kind and
// returns a 404-mapped error when it does not.
func (s *Server) ensureExists(ctx context.Context, entity, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(entity)
	}
	var err error
	switch entity {
	case events.EntityDepartment:
		_, err = s.store.GetDepartment(ctx, id)
	case events.EntityUser:
		_, err = s.store.GetUser(ctx, id)
	case events.EntityClient:
		_, err = s.store.GetClient(ctx, id)
	case events.EntityProject:
		_, err = s.store.GetProject(ctx, id)
	case events.EntityCall:
		_, err = s.store.GetCall(ctx, id)
	case events.EntityReport:
		_, err = s.store.GetReport(ctx, id)
	}
	return lookupErr(entity, err)
}

func (s *Server) ensureOptional(ctx context.Context, entity string, id *string) error {
	if id == nil {
		return nil
	}
	return s.ensureExists(ctx, entity, *id)
}

func validateDepartment(in *store.DepartmentInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return badRequest("name is required")
	}
	return nil
}

func (s *Server) validateUser(ctx context.Context, in *store.UserInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.DepartmentID = optional(in.DepartmentID)
	if in.Name == "" {
		return badRequest("name is required")
	}
	if in.Email == "" {
		return badRequest("email is required")
	}
	if !validEmail(in.Email) {
		return badRequest("email is invalid")
	}
	if in.Role == "" {
		in.Role = store.RoleAgent
	}
	if !validRole(in.Role) {
		return badRequest("role must be one of admin, manager, agent")
	}
	return s.ensureOptional(ctx, events.EntityDepartment, in.DepartmentID)
}

func validateClient(in *store.ClientInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = optional(in.Email)
	in.Phone = optional(in.Phone)
	in.Company = optional(in.Company)
	if in.Name == "" {
		return badRequest("name is required")
	}
	if in.Email != nil && !validEmail(*in.Email) {
		return badRequest("email is invalid")
	}
	return nil
}

func (s *Server) validateProject(ctx context.Context, in *store.ProjectInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ClientID = optional(in.ClientID)
	in.DepartmentID = optional(in.DepartmentID)
	if in.Name == "" {
		return badRequest("name is required")
	}
	if err := s.ensureOptional(ctx, events.EntityClient, in.ClientID); err != nil {
		return err
	}
	if err := s.ensureOptional(ctx, events.EntityDepartment, in.DepartmentID); err != nil {
		return err
	}
	for _, uid := range in.UserIDs {
		if err := s.ensureExists(ctx, events.EntityUser, uid); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) validateCall(ctx context.Context, in *store.CallInput) error {
	in.ClientID = optional(in.ClientID)
	if in.ProjectID == "" {
		return badRequest("project_id is required")
	}
	if in.UserID == "" {
		return badRequest("user_id is required")
	}
	if in.StartTime != nil && in.EndTime != nil && in.EndTime.Before(*in.StartTime) {
		return badRequest("end_time must not be before start_time")
	}
	if err := s.ensureExists(ctx, events.EntityProject, in.ProjectID); err != nil {
		return err
	}
	if err := s.ensureExists(ctx, events.EntityUser, in.UserID); err != nil {
		return err
	}
	return s.ensureOptional(ctx, events.EntityClient, in.ClientID)
}

func (s *Server) validateReport(ctx context.Context, in *store.ReportInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.CallID = optional(in.CallID)
	if in.ProjectID == "" {
		return badRequest("project_id is required")
	}
	if in.UserID == "" {
		return badRequest("user_id is required")
	}
	if in.Title == "" {
		return badRequest("title is required")
	}
	if err := s.ensureExists(ctx, events.EntityProject, in.ProjectID); err != nil {
		return err
	}
	if err := s.ensureExists(ctx, events.EntityUser, in.UserID); err != nil {
		return err
	}
	return s.ensureOptional(ctx, events.EntityCall, in.CallID)
}

// uuidParams reads optional ID query parameters, rejecting values that are
// not UUIDs.
func uuidParams(r *http.Request, names ...string) (map[string]string, error) {
	q := r.URL.Query()
	out := make(map[string]string, len(names))
	for _, name := range names {
		v := q.Get(name)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			return nil, badRequest("%s must be a UUID", name)
		}
		out[name] = v
	}
	return out, nil
}
