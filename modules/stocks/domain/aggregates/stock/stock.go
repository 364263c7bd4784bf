package stock

import (
	"time"

	"github.com/google/uuid"
)

// Stock is a single genetic line in the lab inventory.
type Stock interface {
	ID() int64
	TenantID() uuid.UUID
	StockID() string
	Genotype() string
	Origin() Origin
	Repository() Center
	RepositoryStockID() string
	ExternalSource() string
	Notes() string
	Tags() []string
	TrayID() *int64
	Position() string
	Metadata() map[string]string
	CreatedByID() uuid.UUID
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

type Option func(*stock)

func WithID(id int64) Option {
	return func(s *stock) { s.id = id }
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(s *stock) { s.tenantID = tenantID }
}

func WithOrigin(origin Origin) Option {
	return func(s *stock) { s.origin = origin }
}

func WithRepository(repository Center, repositoryStockID string) Option {
	return func(s *stock) {
		s.repository = repository
		s.repositoryStockID = repositoryStockID
	}
}

func WithExternalSource(source string) Option {
	return func(s *stock) { s.externalSource = source }
}

func WithNotes(notes string) Option {
	return func(s *stock) { s.notes = notes }
}

func WithTags(tags []string) Option {
	return func(s *stock) { s.tags = tags }
}

func WithTray(trayID *int64, position string) Option {
	return func(s *stock) {
		s.trayID = trayID
		s.position = position
	}
}

func WithMetadata(metadata map[string]string) Option {
	return func(s *stock) { s.metadata = metadata }
}

func WithCreatedByID(userID uuid.UUID) Option {
	return func(s *stock) { s.createdByID = userID }
}

func WithTimestamps(createdAt, updatedAt time.Time) Option {
	return func(s *stock) {
		s.createdAt = createdAt
		s.updatedAt = updatedAt
	}
}

func New(stockID, genotype string, opts ...Option) Stock {
	now := time.Now()
	s := &stock{
		stockID:   stockID,
		genotype:  genotype,
		origin:    OriginInternal,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type stock struct {
	id                int64
	tenantID          uuid.UUID
	stockID           string
	genotype          string
	origin            Origin
	repository        Center
	repositoryStockID string
	externalSource    string
	notes             string
	tags              []string
	trayID            *int64
	position          string
	metadata          map[string]string
	createdByID       uuid.UUID
	createdAt         time.Time
	updatedAt         time.Time
}

func (s *stock) ID() int64                   { return s.id }
func (s *stock) TenantID() uuid.UUID         { return s.tenantID }
func (s *stock) StockID() string             { return s.stockID }
func (s *stock) Genotype() string            { return s.genotype }
func (s *stock) Origin() Origin              { return s.origin }
func (s *stock) Repository() Center          { return s.repository }
func (s *stock) RepositoryStockID() string   { return s.repositoryStockID }
func (s *stock) ExternalSource() string      { return s.externalSource }
func (s *stock) Notes() string               { return s.notes }
func (s *stock) Tags() []string              { return s.tags }
func (s *stock) TrayID() *int64              { return s.trayID }
func (s *stock) Position() string            { return s.position }
func (s *stock) Metadata() map[string]string { return s.metadata }
func (s *stock) CreatedByID() uuid.UUID      { return s.createdByID }
func (s *stock) CreatedAt() time.Time        { return s.createdAt }
func (s *stock) UpdatedAt() time.Time        { return s.updatedAt }
