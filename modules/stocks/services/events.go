package services

import "github.com/google/uuid"

// StockCreatedEvent is published for every stock added to the inventory.
type StockCreatedEvent struct {
	StockID  string
	TenantID uuid.UUID
}
