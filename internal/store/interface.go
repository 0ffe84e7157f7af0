package store

import (
	"context"
	"encoding/json"

	"github.com/MikeSquared-Agency/callboard/internal/events"
)

// DataStore is the interface consumed by the API, the audit batcher and the
// analysis ingester. The concrete implementation is *Store (pgx-backed).
type DataStore interface {
	CreateDepartment(ctx context.Context, in DepartmentInput) (Department, error)
	GetDepartment(ctx context.Context, id string) (Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	UpdateDepartment(ctx context.Context, id string, in DepartmentInput) (Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	CreateUser(ctx context.Context, in UserInput) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]User, error)
	UpdateUser(ctx context.Context, id string, in UserInput) (User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateClient(ctx context.Context, in ClientInput) (Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	UpdateClient(ctx context.Context, id string, in ClientInput) (Client, error)
	DeleteClient(ctx context.Context, id string) error

	CreateProject(ctx context.Context, in ProjectInput) (Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]Project, error)
	UpdateProject(ctx context.Context, id string, in ProjectInput) (Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateCall(ctx context.Context, in CallInput) (Call, error)
	GetCall(ctx context.Context, id string) (Call, error)
	ListCalls(ctx context.Context, f CallFilter) ([]Call, error)
	UpdateCall(ctx context.Context, id string, in CallInput) (Call, error)
	SetCallAnalysis(ctx context.Context, id string, analysis json.RawMessage) error
	DeleteCall(ctx context.Context, id string) error

	CreateReport(ctx context.Context, in ReportInput) (Report, error)
	GetReport(ctx context.Context, id string) (Report, error)
	ListReports(ctx context.Context, f ReportFilter) ([]Report, error)
	UpdateReport(ctx context.Context, id string, in ReportInput) (Report, error)
	DeleteReport(ctx context.Context, id string) error

	InsertAuditLogs(ctx context.Context, entries []events.Entry) error
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]events.Entry, error)

	Ping(ctx context.Context) error
	Close()
}
