package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const reportCols = `id, project_id, user_id, call_id, title, content, created_at, updated_at`

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.ProjectID, &r.UserID, &r.CallID, &r.Title, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) CreateReport(ctx context.Context, in ReportInput) (Report, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reports (id, project_id, user_id, call_id, title, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+reportCols,
		uuid.New().String(), in.ProjectID, in.UserID, in.CallID, in.Title, in.Content,
	)
	r, err := scanReport(row)
	if err != nil {
		return Report{}, fmt.Errorf("insert report: %w", classify(err))
	}
	return r, nil
}

func (s *Store) GetReport(ctx context.Context, id string) (Report, error) {
	r, err := scanReport(s.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
	if err != nil {
		return Report{}, fmt.Errorf("get report %s: %w", id, classify(err))
	}
	return r, nil
}

func (s *Store) ListReports(ctx context.Context, f ReportFilter) ([]Report, error) {
	q := `SELECT ` + reportCols + ` FROM reports WHERE true`
	args := []any{}
	argN := 1

	if f.ProjectID != "" {
		q += fmt.Sprintf(` AND project_id = $%d`, argN)
		args = append(args, f.ProjectID)
		argN++
	}
	if f.UserID != "" {
		q += fmt.Sprintf(` AND user_id = $%d`, argN)
		args = append(args, f.UserID)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	results := []Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) UpdateReport(ctx context.Context, id string, in ReportInput) (Report, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE reports SET project_id = $2, user_id = $3, call_id = $4, title = $5, content = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+reportCols,
		id, in.ProjectID, in.UserID, in.CallID, in.Title, in.Content,
	)
	r, err := scanReport(row)
	if err != nil {
		return Report{}, fmt.Errorf("update report %s: %w", id, classify(err))
	}
	return r, nil
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	if err := execOne(ctx, s.pool, `DELETE FROM reports WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	return nil
}
