package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/flyroom/flyroom/modules/stocks/domain/entities/tag"
	"github.com/flyroom/flyroom/pkg/composables"
)

type TagRepository struct{}

func NewTagRepository() tag.Repository {
	return &TagRepository{}
}

func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*tag.Tag, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		id         int64
		storedName string
	)
	err = tx.QueryRow(
		ctx,
		`SELECT id, name FROM tags WHERE tenant_id = $1 AND LOWER(name) = LOWER($2)`,
		tenantID.String(), name,
	).Scan(&id, &storedName)
	if err == nil {
		return &tag.Tag{ID: id, TenantID: tenantID, Name: storedName}, nil
	}

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO tags (tenant_id, name) VALUES ($1, $2) RETURNING id`,
		tenantID.String(), name,
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create tag")
	}
	return &tag.Tag{ID: id, TenantID: tenantID, Name: name}, nil
}

func (r *TagRepository) GetAll(ctx context.Context) ([]*tag.Tag, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT id, tenant_id, name FROM tags WHERE tenant_id = $1 ORDER BY name`, tenantID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tags")
	}
	defer rows.Close()

	var tags []*tag.Tag
	for rows.Next() {
		var (
			id          int64
			tenantIDStr string
			name        string
		)
		if err := rows.Scan(&id, &tenantIDStr, &name); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag row")
		}
		parsed, err := uuid.Parse(tenantIDStr)
		if err != nil {
			return nil, errors.Wrap(err, "invalid tenant id on tag row")
		}
		tags = append(tags, &tag.Tag{ID: id, TenantID: parsed, Name: name})
	}
	return tags, rows.Err()
}
