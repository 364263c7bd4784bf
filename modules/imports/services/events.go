package services

import "github.com/google/uuid"

// ImportCompletedEvent is published after any import commits rows.
type ImportCompletedEvent struct {
	TenantID      uuid.UUID
	UserID        uuid.UUID
	ImportedCount int
	StockIDs      []string
	TraysCreated  []string
}
