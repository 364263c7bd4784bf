package tray

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrTrayNotFound = errors.New("tray not found")

type Type string

const (
	TypeNumeric Type = "numeric"
	TypeGrid    Type = "grid"
	TypeCustom  Type = "custom"
)

func ParseType(t string) Type {
	switch Type(t) {
	case TypeGrid:
		return TypeGrid
	case TypeCustom:
		return TypeCustom
	}
	return TypeNumeric
}

type Tray struct {
	ID           int64
	TenantID     uuid.UUID
	Name         string
	TrayType     Type
	MaxPositions int
}

type Repository interface {
	GetByName(ctx context.Context, name string) (*Tray, error)
	ExistingNames(ctx context.Context, names []string) (map[string]struct{}, error)
	Create(ctx context.Context, t *Tray) (*Tray, error)
}
