package store

import (
	"encoding/json"
	"time"
)

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// User roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DepartmentID *string   `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserInput struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id"`
}

type UserFilter struct {
	DepartmentID string
}

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Company   *string   `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ClientInput struct {
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ClientID     *string   `json:"client_id,omitempty"`
	DepartmentID *string   `json:"department_id,omitempty"`
	UserIDs      []string  `json:"user_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProjectInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ClientID     *string  `json:"client_id"`
	DepartmentID *string  `json:"department_id"`
	UserIDs      []string `json:"user_ids"`
}

type ProjectFilter struct {
	UserID   string
	ClientID string
}

type Call struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	UserID    string          `json:"user_id"`
	ClientID  *string         `json:"client_id,omitempty"`
	StartTime *time.Time      `json:"start_time"`
	EndTime   *time.Time      `json:"end_time"`
	Summary   string          `json:"summary"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CallInput struct {
	ProjectID string     `json:"project_id"`
	UserID    string     `json:"user_id"`
	ClientID  *string    `json:"client_id"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Summary   string     `json:"summary"`
}

// CallFilter narrows ListCalls. Zero values are ignored. From and To bound
// start_time (inclusive, exclusive).
type CallFilter struct {
	ProjectID string
	UserID    string
	ClientID  string
	From      *time.Time
	To        *time.Time
	Limit     int
}

type Report struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	CallID    *string   `json:"call_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReportInput struct {
	ProjectID string  `json:"project_id"`
	UserID    string  `json:"user_id"`
	CallID    *string `json:"call_id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
}

type ReportFilter struct {
	ProjectID string
	UserID    string
}

type AuditFilter struct {
	Entity   string
	EntityID string
	ActorID  string
	Limit    int
}
