package persistence

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/flyroom/flyroom/modules/stocks/domain/aggregates/stock"
	"github.com/flyroom/flyroom/modules/stocks/infrastructure/persistence/models"
	"github.com/flyroom/flyroom/pkg/mapping"
)

func toDBStock(s stock.Stock) (*models.Stock, error) {
	var metadata []byte
	if len(s.Metadata()) > 0 {
		encoded, err := json.Marshal(s.Metadata())
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode stock metadata")
		}
		metadata = encoded
	}
	return &models.Stock{
		ID:                s.ID(),
		TenantID:          s.TenantID().String(),
		StockID:           s.StockID(),
		Genotype:          s.Genotype(),
		Origin:            string(s.Origin()),
		Repository:        mapping.ValueToSQLNullString(string(s.Repository())),
		RepositoryStockID: mapping.ValueToSQLNullString(s.RepositoryStockID()),
		ExternalSource:    mapping.ValueToSQLNullString(s.ExternalSource()),
		Notes:             mapping.ValueToSQLNullString(s.Notes()),
		Tags:              s.Tags(),
		TrayID:            mapping.PointerToSQLNullInt64(s.TrayID()),
		Position:          mapping.ValueToSQLNullString(s.Position()),
		Metadata:          metadata,
		CreatedByID:       s.CreatedByID().String(),
		CreatedAt:         s.CreatedAt(),
		UpdatedAt:         s.UpdatedAt(),
	}, nil
}

func toDomainStock(m *models.Stock) (stock.Stock, error) {
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tenant id on stock row")
	}
	createdBy, err := uuid.Parse(m.CreatedByID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid creator id on stock row")
	}
	var metadata map[string]string
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to decode stock metadata")
		}
	}
	return stock.New(
		m.StockID,
		m.Genotype,
		stock.WithID(m.ID),
		stock.WithTenantID(tenantID),
		stock.WithOrigin(stock.Origin(m.Origin)),
		stock.WithRepository(
			stock.Center(mapping.SQLNullStringToValue(m.Repository)),
			mapping.SQLNullStringToValue(m.RepositoryStockID),
		),
		stock.WithExternalSource(mapping.SQLNullStringToValue(m.ExternalSource)),
		stock.WithNotes(mapping.SQLNullStringToValue(m.Notes)),
		stock.WithTags(m.Tags),
		stock.WithTray(mapping.SQLNullInt64ToPointer(m.TrayID), mapping.SQLNullStringToValue(m.Position)),
		stock.WithMetadata(metadata),
		stock.WithCreatedByID(createdBy),
		stock.WithTimestamps(m.CreatedAt, m.UpdatedAt),
	), nil
}
