package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// ActionStore persists the append-only decision journal.
type ActionStore interface {
	Log(ctx context.Context, ev ActionEvent) error
	List(ctx context.Context, opts ListOpts) ([]ActionEvent, error)
	ListBefore(ctx context.Context, before time.Time) ([]ActionEvent, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// FillStore persists executed legs.
type FillStore interface {
	Insert(ctx context.Context, fill Fill) error
	ListByMarket(ctx context.Context, market string, opts ListOpts) ([]Fill, error)
	ListBefore(ctx context.Context, before time.Time) ([]Fill, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
