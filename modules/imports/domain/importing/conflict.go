package importing

// ConflictType classifies the kinds of conflicts detectors can report.
type ConflictType string

const (
	ConflictCoalesce                 ConflictType = "coalesce_conflict"
	ConflictGenotypeMismatch         ConflictType = "genotype_mismatch"
	ConflictDuplicateStock           ConflictType = "duplicate_stock"
	ConflictMissingRequired          ConflictType = "missing_required"
	ConflictPotentialRepositoryMatch ConflictType = "potential_repository_match"
	ConflictValidationError          ConflictType = "validation_error"
	ConflictLLMFlagged               ConflictType = "llm_flagged"
)

// Conflict is a single detected issue on a row.
type Conflict struct {
	Type        ConflictType      `json:"conflict_type"`
	Field       string            `json:"field"`
	Values      map[string]string `json:"values"`
	RemoteValue string            `json:"remote_value,omitempty"`
	Message     string            `json:"message"`
	Detector    string            `json:"detector"`
	Suggestion  string            `json:"suggestion,omitempty"`
	Confidence  *float64          `json:"confidence,omitempty"`
}

// ConflictingRow pairs a row with everything found wrong with it. RowIndex is
// 1-based to match how spreadsheets number data rows.
type ConflictingRow struct {
	RowIndex       int           `json:"row_index"`
	OriginalRow    RawRow        `json:"original_row"`
	TransformedRow NormalizedRow `json:"transformed_row"`
	Conflicts      []Conflict    `json:"conflicts"`
}

// RepositoryMatch is a candidate repository stock whose genotype matched an
// imported row.
type RepositoryMatch struct {
	Repository string            `json:"repository"`
	StockID    string            `json:"stock_id"`
	Genotype   string            `json:"genotype"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
