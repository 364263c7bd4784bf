package services

import (
	"github.com/flyroom/flyroom/modules/imports/domain/importing"
)

// MappingSet bundles everything the client sends alongside the file on the
// v2 endpoints.
type MappingSet struct {
	ColumnMappings  []importing.ColumnMapping
	FieldGenerators []importing.FieldGenerator
	Config          importing.Config
	TrayResolutions []importing.TrayResolution
}

// ResolutionAction is what the user decided for one conflicting row.
type ResolutionAction string

const (
	// ResolutionSkip drops the row.
	ResolutionSkip ResolutionAction = "skip"
	// ResolutionUseValue imports the row with the chosen field values.
	ResolutionUseValue ResolutionAction = "use_value"
	// ResolutionManual imports the row with manually edited field values.
	ResolutionManual ResolutionAction = "manual"
)

// Resolution is one row's conflict resolution. FlagNote and FlagTag are
// appended to the row's notes and tags; FieldValues overwrite fields.
type Resolution struct {
	RowIndex    int
	Action      ResolutionAction
	FieldValues map[importing.Field]string
	FlagNote    string
	FlagTag     string
}

// ImportStats summarizes normalized rows for preview screens.
type ImportStats struct {
	TotalRows            int            `json:"total_rows"`
	RepositoryCount      int            `json:"repository_count"`
	ExternalCount        int            `json:"external_count"`
	InternalCount        int            `json:"internal_count"`
	RepositoriesDetected map[string]int `json:"repositories_detected"`
	TraysToCreate        []string       `json:"trays_to_create"`
	ExistingTrays        []string       `json:"existing_trays"`
}

// PreviewResult is the response of the auto-mapping preview.
type PreviewResult struct {
	ColumnsDetected    map[string]string         `json:"columns_detected"`
	ColumnsUnmapped    []string                  `json:"columns_unmapped"`
	SampleRows         []importing.NormalizedRow `json:"sample_rows"`
	RawSampleRows      []importing.RawRow        `json:"raw_sample_rows"`
	Stats              *ImportStats              `json:"stats,omitempty"`
	ValidationWarnings []string                  `json:"validation_warnings"`
	ValidationErrors   []importing.RowError      `json:"validation_errors"`
	CanImport          bool                      `json:"can_import"`
}

// PreviewV2Result is the response of the interactive-mapping preview and of
// mapping validation.
type PreviewV2Result struct {
	Columns            []importing.ColumnInfo `json:"columns"`
	AvailableFields    []importing.Field      `json:"available_fields"`
	RequiredFields     []importing.Field      `json:"required_fields"`
	TotalRows          int                    `json:"total_rows"`
	SampleRows         []importing.RawRow     `json:"sample_rows"`
	CanImport          bool                   `json:"can_import"`
	ValidationWarnings []string               `json:"validation_warnings"`
	TrayColumnMapped   bool                   `json:"tray_column_mapped"`
	Stats              *ImportStats           `json:"stats,omitempty"`
}

// ExecuteResult is the response of the single-phase executes and of phase 2.
type ExecuteResult struct {
	Message         string               `json:"message"`
	ImportedCount   int                  `json:"imported_count"`
	StockIDs        []string             `json:"stock_ids"`
	SkippedCount    int                  `json:"skipped_count"`
	TraysCreated    []string             `json:"trays_created"`
	MetadataFetched int                  `json:"metadata_fetched"`
	Errors          []importing.RowError `json:"errors"`
}

// Phase1Result is the response of phase 1: what was committed plus what
// still needs the user.
type Phase1Result struct {
	ImportedCount    int                       `json:"imported_count"`
	ImportedStockIDs []string                  `json:"imported_stock_ids"`
	ConflictingRows  []importing.ConflictingRow `json:"conflicting_rows"`
	ConflictSummary  map[string]int            `json:"conflict_summary"`
	SessionID        string                    `json:"session_id"`
	TraysCreated     []string                  `json:"trays_created"`
	MetadataFetched  int                       `json:"metadata_fetched"`
	DeletedCount     int64                     `json:"deleted_count"`
}
