package services

import (
	"context"

	"github.com/flyroom/flyroom/modules/stocks/domain/aggregates/stock"
	"github.com/flyroom/flyroom/pkg/eventbus"
)

// StockService is the surface other modules use to touch the stock
// inventory. The import executor is its main consumer.
type StockService struct {
	repo      stock.Repository
	publisher eventbus.EventBus
}

func NewStockService(repo stock.Repository, publisher eventbus.EventBus) *StockService {
	return &StockService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *StockService) Create(ctx context.Context, entity stock.Stock) (stock.Stock, error) {
	created, err := s.repo.Create(ctx, entity)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(StockCreatedEvent{StockID: created.StockID(), TenantID: created.TenantID()})
	return created, nil
}

func (s *StockService) GetByStockID(ctx context.Context, stockID string) (stock.Stock, error) {
	return s.repo.GetByStockID(ctx, stockID)
}

func (s *StockService) ExistingStockIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.repo.ExistingStockIDs(ctx)
}

func (s *StockService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// DeleteAllHard removes every stock of the tenant. Callers gate this behind
// an admin check.
func (s *StockService) DeleteAllHard(ctx context.Context) (int64, error) {
	return s.repo.DeleteAllHard(ctx)
}
