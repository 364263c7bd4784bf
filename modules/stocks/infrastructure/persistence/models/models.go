package models

import (
	"database/sql"
	"time"
)

type Stock struct {
	ID                int64
	TenantID          string
	StockID           string
	Genotype          string
	Origin            string
	Repository        sql.NullString
	RepositoryStockID sql.NullString
	ExternalSource    sql.NullString
	Notes             sql.NullString
	Tags              []string
	TrayID            sql.NullInt64
	Position          sql.NullString
	Metadata          []byte
	CreatedByID       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Tag struct {
	ID       int64
	TenantID string
	Name     string
}

type Tray struct {
	ID           int64
	TenantID     string
	Name         string
	TrayType     string
	MaxPositions int
}
