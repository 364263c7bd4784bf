package tag

import (
	"context"

	"github.com/google/uuid"
)

type Tag struct {
	ID       int64
	TenantID uuid.UUID
	Name     string
}

// Repository resolves tag names to tags, creating missing ones. Lookup is
// case-insensitive; the stored name keeps the caller's casing.
type Repository interface {
	GetOrCreate(ctx context.Context, name string) (*Tag, error)
	GetAll(ctx context.Context) ([]*Tag, error)
}
