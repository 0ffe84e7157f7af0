package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/callboard/internal/events"

	"github.com/jackc/pgx/v5"
)

// InsertAuditLogs batch-inserts audit entries into audit_logs.
func (s *Store) InsertAuditLogs(ctx context.Context, entries []events.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		var actor *string
		if e.ActorID != "" {
			a := e.ActorID
			actor = &a
		}
		rows[i] = []any{e.ID, actor, e.Entity, e.EntityID, e.Action, e.Timestamp, []byte(e.Metadata)}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"audit_logs"},
		[]string{"id", "actor_id", "entity", "entity_id", "action", "timestamp", "metadata"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy audit logs: %w", err)
	}

	slog.Debug("inserted audit logs", "count", len(entries))
	return nil
}

// ListAuditLogs returns audit entries newest first.
func (s *Store) ListAuditLogs(ctx context.Context, f AuditFilter) ([]events.Entry, error) {
	q := `SELECT id, actor_id, entity, entity_id, action, timestamp, metadata FROM audit_logs WHERE true`
	args := []any{}
	argN := 1

	if f.Entity != "" {
		q += fmt.Sprintf(` AND entity = $%d`, argN)
		args = append(args, f.Entity)
		argN++
	}
	if f.EntityID != "" {
		q += fmt.Sprintf(` AND entity_id = $%d`, argN)
		args = append(args, f.EntityID)
		argN++
	}
	if f.ActorID != "" {
		q += fmt.Sprintf(` AND actor_id = $%d`, argN)
		args = append(args, f.ActorID)
		argN++
	}

	q += ` ORDER BY timestamp DESC`

	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT $%d`, argN)
		args = append(args, f.Limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	results := []events.Entry{}
	for rows.Next() {
		var (
			e     events.Entry
			actor *string
			ts    time.Time
			meta  []byte
		)
		if err := rows.Scan(&e.ID, &actor, &e.Entity, &e.EntityID, &e.Action, &ts, &meta); err != nil {
			return nil, err
		}
		if actor != nil {
			e.ActorID = *actor
		}
		e.Timestamp = ts
		e.Metadata = json.RawMessage(meta)
		results = append(results, e)
	}
	return results, rows.Err()
}
