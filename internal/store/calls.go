package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const callCols = `id, project_id, user_id, client_id, start_time, end_time, summary, analysis, created_at, updated_at`

func scanCall(row pgx.Row) (Call, error) {
	var (
		c        Call
		analysis []byte
	)
	err := row.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.ClientID, &c.StartTime, &c.EndTime, &c.Summary, &analysis, &c.CreatedAt, &c.UpdatedAt)
	if len(analysis) > 0 {
		c.Analysis = json.RawMessage(analysis)
	}
	return c, err
}

func (s *Store) CreateCall(ctx context.Context, in CallInput) (Call, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO calls (id, project_id, user_id, client_id, start_time, end_time, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+callCols,
		uuid.New().String(), in.ProjectID, in.UserID, in.ClientID, in.StartTime, in.EndTime, in.Summary,
	)
	c, err := scanCall(row)
	if err != nil {
		return Call{}, fmt.Errorf("insert call: %w", classify(err))
	}
	return c, nil
}

func (s *Store) GetCall(ctx context.Context, id string) (Call, error) {
	c, err := scanCall(s.pool.QueryRow(ctx, `SELECT `+callCols+` FROM calls WHERE id = $1`, id))
	if err != nil {
		return Call{}, fmt.Errorf("get call %s: %w", id, classify(err))
	}
	return c, nil
}

// ListCalls returns calls matching the filter ordered by start time, oldest
// first. Calls without a start time sort last.
func (s *Store) ListCalls(ctx context.Context, f CallFilter) ([]Call, error) {
	q := `SELECT ` + callCols + ` FROM calls WHERE true`
	args := []any{}
	argN := 1

	add := func(clause string, v any) {
		q += fmt.Sprintf(clause, argN)
		args = append(args, v)
		argN++
	}
	if f.ProjectID != "" {
		add(` AND project_id = $%d`, f.ProjectID)
	}
	if f.UserID != "" {
		add(` AND user_id = $%d`, f.UserID)
	}
	if f.ClientID != "" {
		add(` AND client_id = $%d`, f.ClientID)
	}
	if f.From != nil {
		add(` AND start_time >= $%d`, *f.From)
	}
	if f.To != nil {
		add(` AND start_time < $%d`, *f.To)
	}

	q += ` ORDER BY start_time ASC NULLS LAST, created_at ASC`

	if f.Limit > 0 {
		add(` LIMIT $%d`, f.Limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	results := []Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (s *Store) UpdateCall(ctx context.Context, id string, in CallInput) (Call, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE calls SET project_id = $2, user_id = $3, client_id = $4, start_time = $5, end_time = $6,
		       summary = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+callCols,
		id, in.ProjectID, in.UserID, in.ClientID, in.StartTime, in.EndTime, in.Summary,
	)
	c, err := scanCall(row)
	if err != nil {
		return Call{}, fmt.Errorf("update call %s: %w", id, classify(err))
	}
	return c, nil
}

// SetCallAnalysis stores the analytics payload produced for a call.
func (s *Store) SetCallAnalysis(ctx context.Context, id string, analysis json.RawMessage) error {
	err := execOne(ctx, s.pool,
		`UPDATE calls SET analysis = $2, updated_at = now() WHERE id = $1`,
		id, []byte(analysis),
	)
	if err != nil {
		return fmt.Errorf("set call analysis %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteCall(ctx context.Context, id string) error {
	if err := execOne(ctx, s.pool, `DELETE FROM calls WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete call %s: %w", id, err)
	}
	return nil
}
