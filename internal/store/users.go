package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userCols = `id, name, email, role, department_id, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.DepartmentID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, in UserInput) (User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, role, department_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userCols,
		uuid.New().String(), in.Name, in.Email, in.Role, in.DepartmentID,
	)
	u, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", classify(err))
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", id, classify(err))
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	q := `SELECT ` + userCols + ` FROM users`
	args := []any{}
	if f.DepartmentID != "" {
		q += ` WHERE department_id = $1`
		args = append(args, f.DepartmentID)
	}
	q += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	results := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id string, in UserInput) (User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, email = $3, role = $4, department_id = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userCols,
		id, in.Name, in.Email, in.Role, in.DepartmentID,
	)
	u, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("update user %s: %w", id, classify(err))
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := execOne(ctx, s.pool, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
