// Package inmemory provides map-backed repository implementations used by
// tests and by local development without a database.
package inmemory

import (
	"context"
	"strings"
	"sync"

	"github.com/flyroom/flyroom/modules/stocks/domain/aggregates/stock"
	"github.com/flyroom/flyroom/modules/stocks/domain/entities/tag"
	"github.com/flyroom/flyroom/modules/stocks/domain/entities/tray"
	"github.com/flyroom/flyroom/pkg/composables"
)

type StockRepository struct {
	mu     sync.Mutex
	nextID int64
	stocks map[string][]stock.Stock // tenant id -> stocks
}

func NewStockRepository() *StockRepository {
	return &StockRepository{stocks: make(map[string][]stock.Stock)}
}

func (r *StockRepository) Create(ctx context.Context, s stock.Stock) (stock.Stock, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	created := stock.New(
		s.StockID(),
		s.Genotype(),
		stock.WithID(r.nextID),
		stock.WithTenantID(tenantID),
		stock.WithOrigin(s.Origin()),
		stock.WithRepository(s.Repository(), s.RepositoryStockID()),
		stock.WithExternalSource(s.ExternalSource()),
		stock.WithNotes(s.Notes()),
		stock.WithTags(s.Tags()),
		stock.WithTray(s.TrayID(), s.Position()),
		stock.WithMetadata(s.Metadata()),
		stock.WithCreatedByID(s.CreatedByID()),
		stock.WithTimestamps(s.CreatedAt(), s.UpdatedAt()),
	)
	key := tenantID.String()
	r.stocks[key] = append(r.stocks[key], created)
	return created, nil
}

func (r *StockRepository) GetByStockID(ctx context.Context, stockID string) (stock.Stock, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stocks[tenantID.String()] {
		if s.StockID() == stockID {
			return s, nil
		}
	}
	return nil, stock.ErrNotFound
}

func (r *StockRepository) ExistingStockIDs(ctx context.Context) (map[string]struct{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]struct{})
	for _, s := range r.stocks[tenantID.String()] {
		ids[s.StockID()] = struct{}{}
	}
	return ids, nil
}

func (r *StockRepository) Count(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.stocks[tenantID.String()])), nil
}

func (r *StockRepository) DeleteAllHard(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tenantID.String()
	count := int64(len(r.stocks[key]))
	delete(r.stocks, key)
	return count, nil
}

type TagRepository struct {
	mu     sync.Mutex
	nextID int64
	tags   map[string][]*tag.Tag
}

func NewTagRepository() *TagRepository {
	return &TagRepository{tags: make(map[string][]*tag.Tag)}
}

func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*tag.Tag, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tenantID.String()
	for _, t := range r.tags[key] {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	r.nextID++
	created := &tag.Tag{ID: r.nextID, TenantID: tenantID, Name: name}
	r.tags[key] = append(r.tags[key], created)
	return created, nil
}

func (r *TagRepository) GetAll(ctx context.Context) ([]*tag.Tag, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*tag.Tag(nil), r.tags[tenantID.String()]...), nil
}

type TrayRepository struct {
	mu     sync.Mutex
	nextID int64
	trays  map[string][]*tray.Tray
}

func NewTrayRepository() *TrayRepository {
	return &TrayRepository{trays: make(map[string][]*tray.Tray)}
}

func (r *TrayRepository) GetByName(ctx context.Context, name string) (*tray.Tray, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trays[tenantID.String()] {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, tray.ErrTrayNotFound
}

func (r *TrayRepository) ExistingNames(ctx context.Context, names []string) (map[string]struct{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	existing := make(map[string]struct{})
	for _, t := range r.trays[tenantID.String()] {
		if _, ok := wanted[t.Name]; ok {
			existing[t.Name] = struct{}{}
		}
	}
	return existing, nil
}

func (r *TrayRepository) Create(ctx context.Context, t *tray.Tray) (*tray.Tray, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	created := &tray.Tray{
		ID:           r.nextID,
		TenantID:     tenantID,
		Name:         t.Name,
		TrayType:     t.TrayType,
		MaxPositions: t.MaxPositions,
	}
	key := tenantID.String()
	r.trays[key] = append(r.trays[key], created)
	return created, nil
}
