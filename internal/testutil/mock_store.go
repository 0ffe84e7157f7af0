package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"

	"github.com/google/uuid"
)

// MockStore is a thread-safe in-memory implementation of store.DataStore for testing.
type MockStore struct {
	mu sync.Mutex

	Departments map[string]store.Department
	Users       map[string]store.User
	Clients     map[string]store.Client
	Projects    map[string]store.Project
	Calls       map[string]store.Call
	Reports     map[string]store.Report
	AuditLogs   []events.Entry

	InsertErr error
	ListErr   error

	InsertCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Departments: make(map[string]store.Department),
		Users:       make(map[string]store.User),
		Clients:     make(map[string]store.Client),
		Projects:    make(map[string]store.Project),
		Calls:       make(map[string]store.Call),
		Reports:     make(map[string]store.Report),
		AuditLogs:   make([]events.Entry, 0),
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("get %s %s: %w", kind, id, store.ErrNotFound)
}

func now() time.Time { return time.Now().UTC() }

// Departments.

func (m *MockStore) CreateDepartment(_ context.Context, in store.DepartmentInput) (store.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.Departments {
		if d.Name == in.Name {
			return store.Department{}, fmt.Errorf("insert department: %w", store.ErrConflict)
		}
	}
	d := store.Department{ID: uuid.New().String(), Name: in.Name, Description: in.Description, CreatedAt: now(), UpdatedAt: now()}
	m.Departments[d.ID] = d
	return d, nil
}

func (m *MockStore) GetDepartment(_ context.Context, id string) (store.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Departments[id]
	if !ok {
		return store.Department{}, notFound("department", id)
	}
	return d, nil
}

func (m *MockStore) ListDepartments(_ context.Context) ([]store.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := []store.Department{}
	for _, d := range m.Departments {
		results = append(results, d)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (m *MockStore) UpdateDepartment(_ context.Context, id string, in store.DepartmentInput) (store.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.Departments[id]
	if !ok {
		return store.Department{}, notFound("department", id)
	}
	d.Name, d.Description, d.UpdatedAt = in.Name, in.Description, now()
	m.Departments[id] = d
	return d, nil
}

func (m *MockStore) DeleteDepartment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Departments[id]; !ok {
		return notFound("department", id)
	}
	for _, u := range m.Users {
		if u.DepartmentID != nil && *u.DepartmentID == id {
			return fmt.Errorf("delete department %s: %w", id, store.ErrConflict)
		}
	}
	delete(m.Departments, id)
	return nil
}

// Users.

func (m *MockStore) CreateUser(_ context.Context, in store.UserInput) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == in.Email {
			return store.User{}, fmt.Errorf("insert user: %w", store.ErrConflict)
		}
	}
	u := store.User{ID: uuid.New().String(), Name: in.Name, Email: in.Email, Role: in.Role, DepartmentID: in.DepartmentID, CreatedAt: now(), UpdatedAt: now()}
	m.Users[u.ID] = u
	return u, nil
}

func (m *MockStore) GetUser(_ context.Context, id string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return store.User{}, notFound("user", id)
	}
	return u, nil
}

func (m *MockStore) ListUsers(_ context.Context, f store.UserFilter) ([]store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := []store.User{}
	for _, u := range m.Users {
		if f.DepartmentID != "" && (u.DepartmentID == nil || *u.DepartmentID != f.DepartmentID) {
			continue
		}
		results = append(results, u)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (m *MockStore) UpdateUser(_ context.Context, id string, in store.UserInput) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return store.User{}, notFound("user", id)
	}
	u.Name, u.Email, u.Role, u.DepartmentID, u.UpdatedAt = in.Name, in.Email, in.Role, in.DepartmentID, now()
	m.Users[id] = u
	return u, nil
}

func (m *MockStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[id]; !ok {
		return notFound("user", id)
	}
	delete(m.Users, id)
	return nil
}

// Clients.

func (m *MockStore) CreateClient(_ context.Context, in store.ClientInput) (store.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := store.Client{ID: uuid.New().String(), Name: in.Name, Email: in.Email, Phone: in.Phone, Company: in.Company, CreatedAt: now(), UpdatedAt: now()}
	m.Clients[c.ID] = c
	return c, nil
}

func (m *MockStore) GetClient(_ context.Context, id string) (store.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Clients[id]
	if !ok {
		return store.Client{}, notFound("client", id)
	}
	return c, nil
}

func (m *MockStore) ListClients(_ context.Context) ([]store.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := []store.Client{}
	for _, c := range m.Clients {
		results = append(results, c)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (m *MockStore) UpdateClient(_ context.Context, id string, in store.ClientInput) (store.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Clients[id]
	if !ok {
		return store.Client{}, notFound("client", id)
	}
	c.Name, c.Email, c.Phone, c.Company, c.UpdatedAt = in.Name, in.Email, in.Phone, in.Company, now()
	m.Clients[id] = c
	return c, nil
}

func (m *MockStore) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Clients[id]; !ok {
		return notFound("client", id)
	}
	delete(m.Clients, id)
	return nil
}

// Projects.

func dedupe(ids []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (m *MockStore) CreateProject(_ context.Context, in store.ProjectInput) (store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uid := range in.UserIDs {
		if _, ok := m.Users[uid]; !ok {
			return store.Project{}, fmt.Errorf("insert project: %w", store.ErrConflict)
		}
	}
	p := store.Project{
		ID: uuid.New().String(), Name: in.Name, Description: in.Description,
		ClientID: in.ClientID, DepartmentID: in.DepartmentID, UserIDs: dedupe(in.UserIDs),
		CreatedAt: now(), UpdatedAt: now(),
	}
	m.Projects[p.ID] = p
	return p, nil
}

func (m *MockStore) GetProject(_ context.Context, id string) (store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Projects[id]
	if !ok {
		return store.Project{}, notFound("project", id)
	}
	return p, nil
}

func (m *MockStore) ListProjects(_ context.Context, f store.ProjectFilter) ([]store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := []store.Project{}
	for _, p := range m.Projects {
		if f.ClientID != "" && (p.ClientID == nil || *p.ClientID != f.ClientID) {
			continue
		}
		if f.UserID != "" && !contains(p.UserIDs, f.UserID) {
			continue
		}
		results = append(results, p)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.After(results[j].CreatedAt) })
	return results, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *MockStore) UpdateProject(_ context.Context, id string, in store.ProjectInput) (store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Projects[id]
	if !ok {
		return store.Project{}, notFound("project", id)
	}
	for _, uid := range in.UserIDs {
		if _, ok := m.Users[uid]; !ok {
			return store.Project{}, fmt.Errorf("update project: %w", store.ErrConflict)
		}
	}
	p.Name, p.Description, p.ClientID, p.DepartmentID = in.Name, in.Description, in.ClientID, in.DepartmentID
	p.UserIDs, p.UpdatedAt = dedupe(in.UserIDs), now()
	m.Projects[id] = p
	return p, nil
}

func (m *MockStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Projects[id]; !ok {
		return notFound("project", id)
	}
	delete(m.Projects, id)
	return nil
}

// Calls.

func (m *MockStore) CreateCall(_ context.Context, in store.CallInput) (store.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := store.Call{
		ID: uuid.New().String(), ProjectID: in.ProjectID, UserID: in.UserID, ClientID: in.ClientID,
		StartTime: in.StartTime, EndTime: in.EndTime, Summary: in.Summary,
		CreatedAt: now(), UpdatedAt: now(),
	}
	m.Calls[c.ID] = c
	return c, nil
}

func (m *MockStore) GetCall(_ context.Context, id string) (store.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Calls[id]
	if !ok {
		return store.Call{}, notFound("call", id)
	}
	return c, nil
}

func (m *MockStore) ListCalls(_ context.Context, f store.CallFilter) ([]store.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := []store.Call{}
	for _, c := range m.Calls {
		if f.ProjectID != "" && c.ProjectID != f.ProjectID {
			continue
		}
		if f.UserID != "" && c.UserID != f.UserID {
			continue
		}
		if f.ClientID != "" && (c.ClientID == nil || *c.ClientID != f.ClientID) {
			continue
		}
		if f.From != nil && (c.StartTime == nil || c.StartTime.Before(*f.From)) {
			continue
		}
		if f.To != nil && (c.StartTime == nil || !c.StartTime.Before(*f.To)) {
			continue
		}
		results = append(results, c)
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].StartTime, results[j].StartTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	if f.Limit > 0 && len(results) > f.Limit {
		results = results[:f.Limit]
	}
	return results, nil
}

func (m *MockStore) UpdateCall(_ context.Context, id string, in store.CallInput) (store.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Calls[id]
	if !ok {
		return store.Call{}, notFound("call", id)
	}
	c.ProjectID, c.UserID, c.ClientID = in.ProjectID, in.UserID, in.ClientID
	c.StartTime, c.EndTime, c.Summary, c.UpdatedAt = in.StartTime, in.EndTime, in.Summary, now()
	m.Calls[id] = c
	return c, nil
}

func (m *MockStore) SetCallAnalysis(_ context.Context, id string, analysis json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Calls[id]
	if !ok {
		return notFound("call", id)
	}
	c.Analysis = analysis
	m.Calls[id] = c
	return nil
}

func (m *MockStore) DeleteCall(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Calls[id]; !ok {
		return notFound("call", id)
	}
	delete(m.Calls, id)
	return nil
}

// Reports.

func (m *MockStore) CreateReport(_ context.Context, in store.ReportInput) (store.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := store.Report{
		ID: uuid.New().String(), ProjectID: in.ProjectID, UserID: in.UserID, CallID: in.CallID,
		Title: in.Title, Content: in.Content, CreatedAt: now(), UpdatedAt: now(),
	}
	m.Reports[r.ID] = r
	return r, nil
}

func (m *MockStore) GetReport(_ context.Context, id string) (store.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Reports[id]
	if !ok {
		return store.Report{}, notFound("report", id)
	}
	return r, nil
}

func (m *MockStore) ListReports(_ context.Context, f store.ReportFilter) ([]store.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := []store.Report{}
	for _, r := range m.Reports {
		if f.ProjectID != "" && r.ProjectID != f.ProjectID {
			continue
		}
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func (m *MockStore) UpdateReport(_ context.Context, id string, in store.ReportInput) (store.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Reports[id]
	if !ok {
		return store.Report{}, notFound("report", id)
	}
	r.ProjectID, r.UserID, r.CallID, r.Title, r.Content, r.UpdatedAt = in.ProjectID, in.UserID, in.CallID, in.Title, in.Content, now()
	m.Reports[id] = r
	return r, nil
}

func (m *MockStore) DeleteReport(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Reports[id]; !ok {
		return notFound("report", id)
	}
	delete(m.Reports, id)
	return nil
}

// Audit logs.

func (m *MockStore) InsertAuditLogs(_ context.Context, entries []events.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.AuditLogs = append(m.AuditLogs, entries...)
	return nil
}

func (m *MockStore) ListAuditLogs(_ context.Context, f store.AuditFilter) ([]events.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := []events.Entry{}
	for i := len(m.AuditLogs) - 1; i >= 0; i-- {
		e := m.AuditLogs[i]
		if f.Entity != "" && e.Entity != f.Entity {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		results = append(results, e)
		if f.Limit > 0 && len(results) >= f.Limit {
			break
		}
	}
	return results, nil
}

func (m *MockStore) Ping(_ context.Context) error { return nil }

func (m *MockStore) Close() {}

// GetInsertCalls returns how many times InsertAuditLogs was called.
func (m *MockStore) GetInsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InsertCalls
}

// GetAuditCount returns total audit entries stored.
func (m *MockStore) GetAuditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AuditLogs)
}
