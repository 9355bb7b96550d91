package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/01protocol/drifting-01/internal/domain"
)

// FillStore implements domain.FillStore using PostgreSQL.
type FillStore struct {
	pool *pgxpool.Pool
}

var _ domain.FillStore = (*FillStore)(nil)

// NewFillStore creates a new FillStore backed by the given connection pool.
func NewFillStore(pool *pgxpool.Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Insert records one executed leg.
func (s *FillStore) Insert(ctx context.Context, fill domain.Fill) error {
	if fill.ID == "" {
		fill.ID = uuid.NewString()
	}
	if fill.CreatedAt.IsZero() {
		fill.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO fills (id, venue, market, side, price, size, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, query,
		fill.ID, fill.Venue, fill.Market, string(fill.Side),
		fill.Price, fill.Size, fill.OrderID, fill.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert fill %s/%s: %w", fill.Venue, fill.Market, err)
	}
	return nil
}

// ListByMarket returns fills for one market with pagination and optional
// time filtering, newest first.
func (s *FillStore) ListByMarket(ctx context.Context, market string, opts domain.ListOpts) ([]domain.Fill, error) {
	query := `SELECT id, venue, market, side, price, size, order_id, created_at FROM fills WHERE market = $1`
	args := []any{market}
	argIdx := 2

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
		return nil, fmt.Errorf("postgres: list fills for %s: %w", market, err)
	}
	defer rows.Close()

	var fills []domain.Fill
	for rows.Next() {
		f, err := scanFill(rows.Scan)
		if err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list fills rows: %w", err)
	}
	return fills, nil
}

// ListBefore returns all fills created before the given instant, oldest
// first, for archival.
func (s *FillStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Fill, error) {
	const query = `SELECT id, venue, market, side, price, size, order_id, created_at
		FROM fills WHERE created_at < $1 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var fills []domain.Fill
	for rows.Next() {
		f, err := scanFill(rows.Scan)
		if err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list fills before rows: %w", err)
	}
	return fills, nil
}

// DeleteBefore removes fills created before the given instant and returns
// how many were deleted.
func (s *FillStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM fills WHERE created_at < $1`
	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete fills before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func scanFill(scan func(dest ...any) error) (domain.Fill, error) {
	var f domain.Fill
	var side string

	if err := scan(&f.ID, &f.Venue, &f.Market, &side, &f.Price, &f.Size, &f.OrderID, &f.CreatedAt); err != nil {
		return domain.Fill{}, fmt.Errorf("postgres: scan fill: %w", err)
	}
	f.Side = domain.OrderSide(side)
	return f, nil
}
