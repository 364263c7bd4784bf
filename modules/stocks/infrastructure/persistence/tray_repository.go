package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/flyroom/flyroom/modules/stocks/domain/entities/tray"
	"github.com/flyroom/flyroom/pkg/composables"
)

type TrayRepository struct{}

func NewTrayRepository() tray.Repository {
	return &TrayRepository{}
}

func (r *TrayRepository) GetByName(ctx context.Context, name string) (*tray.Tray, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	t := &tray.Tray{TenantID: tenantID}
	var trayType string
	err = tx.QueryRow(
		ctx,
		`SELECT id, name, tray_type, max_positions FROM trays WHERE tenant_id = $1 AND name = $2`,
		tenantID.String(), name,
	).Scan(&t.ID, &t.Name, &trayType, &t.MaxPositions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tray.ErrTrayNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tray")
	}
	t.TrayType = tray.ParseType(trayType)
	return t, nil
}

func (r *TrayRepository) ExistingNames(ctx context.Context, names []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(names) == 0 {
		return existing, nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(
		ctx,
		`SELECT name FROM trays WHERE tenant_id = $1 AND name = ANY($2)`,
		tenantID.String(), names,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tray names")
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan tray name")
		}
		existing[name] = struct{}{}
	}
	return existing, rows.Err()
}

func (r *TrayRepository) Create(ctx context.Context, t *tray.Tray) (*tray.Tray, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	created := *t
	created.TenantID = tenantID
	if err := tx.QueryRow(
		ctx,
		`INSERT INTO trays (tenant_id, name, tray_type, max_positions) VALUES ($1, $2, $3, $4) RETURNING id`,
		tenantID.String(), t.Name, string(t.TrayType), t.MaxPositions,
	).Scan(&created.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create tray")
	}
	return &created, nil
}
