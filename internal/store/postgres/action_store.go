package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/01protocol/drifting-01/internal/domain"
)

// ActionStore implements domain.ActionStore using PostgreSQL.
type ActionStore struct {
	pool *pgxpool.Pool
}

var _ domain.ActionStore = (*ActionStore)(nil)

// NewActionStore creates a new ActionStore backed by the given connection pool.
func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// Log appends one journal row. Missing IDs and timestamps are filled in so
// callers can pass bare events.
func (s *ActionStore) Log(ctx context.Context, ev domain.ActionEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	detailJSON, err := json.Marshal(ev.Detail)
	if err != nil {
		return fmt.Errorf("postgres: marshal action detail: %w", err)
	}

	const query = `INSERT INTO action_log (id, type, asset, detail, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, query, ev.ID, string(ev.Type), ev.Asset, detailJSON, ev.CreatedAt); err != nil {
		return fmt.Errorf("postgres: log action %s: %w", ev.Type, err)
	}
	return nil
}

// List returns journal rows with pagination and optional time filtering,
// newest first.
func (s *ActionStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ActionEvent, error) {
	query := `SELECT id, type, asset, detail, created_at FROM action_log WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list actions: %w", err)
	}
	defer rows.Close()

	var events []domain.ActionEvent
	for rows.Next() {
		ev, err := scanAction(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list actions rows: %w", err)
	}
	return events, nil
}

// ListBefore returns all journal rows created before the given instant,
// oldest first, for archival.
func (s *ActionStore) ListBefore(ctx context.Context, before time.Time) ([]domain.ActionEvent, error) {
	const query = `SELECT id, type, asset, detail, created_at FROM action_log WHERE created_at < $1 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list actions before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var events []domain.ActionEvent
	for rows.Next() {
		ev, err := scanAction(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list actions before rows: %w", err)
	}
	return events, nil
}

// DeleteBefore removes journal rows created before the given instant and
// returns how many were deleted.
func (s *ActionStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM action_log WHERE created_at < $1`
	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete actions before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func scanAction(scan func(dest ...any) error) (domain.ActionEvent, error) {
	var ev domain.ActionEvent
	var typ string
	var detailJSON []byte

	if err := scan(&ev.ID, &typ, &ev.Asset, &detailJSON, &ev.CreatedAt); err != nil {
		return domain.ActionEvent{}, fmt.Errorf("postgres: scan action: %w", err)
	}
	ev.Type = domain.ActionType(typ)

	if detailJSON != nil {
		if err := json.Unmarshal(detailJSON, &ev.Detail); err != nil {
			return domain.ActionEvent{}, fmt.Errorf("postgres: unmarshal action detail: %w", err)
		}
	}
	return ev, nil
}
