package stock

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("stock not found")

// Repository persists stocks for the tenant carried in the context.
// Stock IDs are unique per (tenant, stock_id); the storage layer enforces
// that as the final backstop against concurrent imports.
type Repository interface {
	Create(ctx context.Context, s Stock) (Stock, error)
	GetByStockID(ctx context.Context, stockID string) (Stock, error)
	ExistingStockIDs(ctx context.Context) (map[string]struct{}, error)
	Count(ctx context.Context) (int64, error)
	DeleteAllHard(ctx context.Context) (int64, error)
}
