package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const departmentCols = `id, name, description, created_at, updated_at`

func scanDepartment(row pgx.Row) (Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) CreateDepartment(ctx context.Context, in DepartmentInput) (Department, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO departments (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING `+departmentCols,
		uuid.New().String(), in.Name, in.Description,
	)
	d, err := scanDepartment(row)
	if err != nil {
		return Department{}, fmt.Errorf("insert department: %w", classify(err))
	}
	return d, nil
}

func (s *Store) GetDepartment(ctx context.Context, id string) (Department, error) {
	d, err := scanDepartment(s.pool.QueryRow(ctx, `SELECT `+departmentCols+` FROM departments WHERE id = $1`, id))
	if err != nil {
		return Department{}, fmt.Errorf("get department %s: %w", id, classify(err))
	}
	return d, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+departmentCols+` FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	results := []Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

func (s *Store) UpdateDepartment(ctx context.Context, id string, in DepartmentInput) (Department, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE departments SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+departmentCols,
		id, in.Name, in.Description,
	)
	d, err := scanDepartment(row)
	if err != nil {
		return Department{}, fmt.Errorf("update department %s: %w", id, classify(err))
	}
	return d, nil
}

func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	if err := execOne(ctx, s.pool, `DELETE FROM departments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete department %s: %w", id, err)
	}
	return nil
}
