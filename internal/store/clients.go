package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const clientCols = `id, name, email, phone, company, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) CreateClient(ctx context.Context, in ClientInput) (Client, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO clients (id, name, email, phone, company)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+clientCols,
		uuid.New().String(), in.Name, in.Email, in.Phone, in.Company,
	)
	c, err := scanClient(row)
	if err != nil {
		return Client{}, fmt.Errorf("insert client: %w", classify(err))
	}
	return c, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (Client, error) {
	c, err := scanClient(s.pool.QueryRow(ctx, `SELECT `+clientCols+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return Client{}, fmt.Errorf("get client %s: %w", id, classify(err))
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientCols+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	results := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (s *Store) UpdateClient(ctx context.Context, id string, in ClientInput) (Client, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE clients SET name = $2, email = $3, phone = $4, company = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+clientCols,
		id, in.Name, in.Email, in.Phone, in.Company,
	)
	c, err := scanClient(row)
	if err != nil {
		return Client{}, fmt.Errorf("update client %s: %w", id, classify(err))
	}
	return c, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	if err := execOne(ctx, s.pool, `DELETE FROM clients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	return nil
}
