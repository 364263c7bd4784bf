package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/flyroom/flyroom/modules/stocks/domain/aggregates/stock"
	"github.com/flyroom/flyroom/modules/stocks/infrastructure/persistence/models"
	"github.com/flyroom/flyroom/pkg/composables"
)

// ErrStockNotFound aliases the domain sentinel so callers can match either.
var ErrStockNotFound = stock.ErrNotFound

const (
	stockFindQuery = `
		SELECT id, tenant_id, stock_id, genotype, origin, repository, repository_stock_id,
		       external_source, notes, tags, tray_id, position, metadata,
		       created_by_id, created_at, updated_at
		FROM stocks`
)

type StockRepository struct{}

func NewStockRepository() stock.Repository {
	return &StockRepository{}
}

func (r *StockRepository) Create(ctx context.Context, s stock.Stock) (stock.Stock, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	dbStock, err := toDBStock(s)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO stocks (
			tenant_id, stock_id, genotype, origin, repository, repository_stock_id,
			external_source, notes, tags, tray_id, position, metadata,
			created_by_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	var id int64
	if err := tx.QueryRow(
		ctx,
		query,
		tenantID.String(),
		dbStock.StockID,
		dbStock.Genotype,
		dbStock.Origin,
		dbStock.Repository,
		dbStock.RepositoryStockID,
		dbStock.ExternalSource,
		dbStock.Notes,
		dbStock.Tags,
		dbStock.TrayID,
		dbStock.Position,
		dbStock.Metadata,
		dbStock.CreatedByID,
		dbStock.CreatedAt,
		dbStock.UpdatedAt,
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to insert stock")
	}

	return r.getByID(ctx, id)
}

func (r *StockRepository) GetByStockID(ctx context.Context, stockID string) (stock.Stock, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	stocks, err := r.queryStocks(ctx, stockFindQuery+" WHERE tenant_id = $1 AND stock_id = $2", tenantID.String(), stockID)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, ErrStockNotFound
	}
	return stocks[0], nil
}

func (r *StockRepository) ExistingStockIDs(ctx context.Context) (map[string]struct{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT stock_id FROM stocks WHERE tenant_id = $1`, tenantID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query stock ids")
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan stock id")
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *StockRepository) Count(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM stocks WHERE tenant_id = $1`, tenantID.String()).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count stocks")
	}
	return count, nil
}

func (r *StockRepository) DeleteAllHard(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM stocks WHERE tenant_id = $1`, tenantID.String())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete stocks")
	}
	return tag.RowsAffected(), nil
}

func (r *StockRepository) getByID(ctx context.Context, id int64) (stock.Stock, error) {
	stocks, err := r.queryStocks(ctx, stockFindQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, ErrStockNotFound
	}
	return stocks[0], nil
}

func (r *StockRepository) queryStocks(ctx context.Context, query string, args ...interface{}) ([]stock.Stock, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query stocks")
	}
	defer rows.Close()

	var stocks []stock.Stock
	for rows.Next() {
		var m models.Stock
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.StockID,
			&m.Genotype,
			&m.Origin,
			&m.Repository,
			&m.RepositoryStockID,
			&m.ExternalSource,
			&m.Notes,
			&m.Tags,
			&m.TrayID,
			&m.Position,
			&m.Metadata,
			&m.CreatedByID,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan stock row")
		}
		entity, err := toDomainStock(&m)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, entity)
	}
	return stocks, rows.Err()
}
