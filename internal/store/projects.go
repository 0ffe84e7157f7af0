package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectCols = `p.id, p.name, p.description, p.client_id, p.department_id, p.created_at, p.updated_at,
	COALESCE((SELECT array_agg(pu.user_id::text ORDER BY pu.user_id) FROM project_users pu WHERE pu.project_id = p.id), '{}')`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ClientID, &p.DepartmentID, &p.CreatedAt, &p.UpdatedAt, &p.UserIDs)
	return p, err
}

func getProject(ctx context.Context, q querier, id string) (Project, error) {
	return scanProject(q.QueryRow(ctx, `SELECT `+projectCols+` FROM projects p WHERE p.id = $1`, id))
}

// setProjectUsers replaces the membership rows of a project.
func setProjectUsers(ctx context.Context, tx pgx.Tx, projectID string, userIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM project_users WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear project users: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		rows = append(rows, []any{projectID, uid})
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"project_users"},
		[]string{"project_id", "user_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy project users: %w", classify(err))
	}
	return nil
}

// CreateProject inserts the project and its user memberships in a single
// transaction.
func (s *Store) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	id := uuid.New().String()
	var p Project

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO projects (id, name, description, client_id, department_id)
			VALUES ($1, $2, $3, $4, $5)`,
			id, in.Name, in.Description, in.ClientID, in.DepartmentID,
		)
		if err != nil {
			return classify(err)
		}
		if err := setProjectUsers(ctx, tx, id, in.UserIDs); err != nil {
			return err
		}
		p, err = getProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	p, err := getProject(ctx, s.pool, id)
	if err != nil {
		return Project{}, fmt.Errorf("get project %s: %w", id, classify(err))
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, f ProjectFilter) ([]Project, error) {
	q := `SELECT ` + projectCols + ` FROM projects p WHERE true`
	args := []any{}
	argN := 1

	if f.UserID != "" {
		q += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM project_users pu WHERE pu.project_id = p.id AND pu.user_id = $%d)`, argN)
		args = append(args, f.UserID)
		argN++
	}
	if f.ClientID != "" {
		q += fmt.Sprintf(` AND p.client_id = $%d`, argN)
		args = append(args, f.ClientID)
	}
	q += ` ORDER BY p.created_at DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	results := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// UpdateProject rewrites the project row and replaces its memberships
// atomically.
func (s *Store) UpdateProject(ctx context.Context, id string, in ProjectInput) (Project, error) {
	var p Project

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := execOne(ctx, tx, `
			UPDATE projects SET name = $2, description = $3, client_id = $4, department_id = $5, updated_at = now()
			WHERE id = $1`,
			id, in.Name, in.Description, in.ClientID, in.DepartmentID,
		)
		if err != nil {
			return err
		}
		if err := setProjectUsers(ctx, tx, id, in.UserIDs); err != nil {
			return err
		}
		p, err = getProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return Project{}, fmt.Errorf("update project %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := execOne(ctx, s.pool, `DELETE FROM projects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}
