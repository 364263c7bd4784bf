package importing

import "fmt"

// RowError collects everything wrong with one row. Row is 1-based.
type RowError struct {
	Row    int           `json:"row"`
	Data   NormalizedRow `json:"data"`
	Errors []string      `json:"errors"`
}

// ValidationResult is the outcome of validating a parsed file.
type ValidationResult struct {
	ValidRows  []NormalizedRow `json:"valid_rows"`
	Errors     []RowError      `json:"errors"`
	TotalRows  int             `json:"total_rows"`
	ValidCount int             `json:"valid_count"`
	ErrorCount int             `json:"error_count"`
}

// Per-field length limits, mirroring the stocks schema.
var fieldMaxLengths = map[Field]int{
	FieldStockID:           100,
	FieldOrigin:            50,
	FieldRepository:        50,
	FieldRepositoryStockID: 50,
	FieldExternalSource:    255,
	FieldTrayName:          100,
	FieldPosition:          20,
	FieldVisibility:        20,
}

// ValidateRows checks every row, auto-generating missing stock ids when
// requested, and splits the input into valid rows and per-row errors.
//
// A stock id must be unique within the file and must not already exist for
// the tenant. Rows failing the required-field check never get a generated id.
func ValidateRows(rows []NormalizedRow, existingStockIDs map[string]struct{}, autoGenerateStockID bool, stockIDPrefix string) ValidationResult {
	result := ValidationResult{TotalRows: len(rows)}
	seen := make(map[string]struct{})

	for i, row := range rows {
		rowIndex := i + 1
		rowErrors := row.ValidateRequired()

		stockID := row.Get(FieldStockID)
		if stockID == "" && autoGenerateStockID && len(rowErrors) == 0 {
			stockID = GenerateStockID(row, rowIndex, stockIDPrefix)
			row.Set(FieldStockID, stockID)
		}

		if stockID != "" {
			if _, dup := seen[stockID]; dup {
				rowErrors = append(rowErrors, fmt.Sprintf("Duplicate stock_id in file: %s", stockID))
			} else if _, exists := existingStockIDs[stockID]; exists {
				rowErrors = append(rowErrors, fmt.Sprintf("Stock ID already exists: %s", stockID))
			} else {
				seen[stockID] = struct{}{}
			}
		}

		if len(rowErrors) == 0 {
			rowErrors = append(rowErrors, checkFieldLengths(row)...)
		}

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, RowError{
				Row:    rowIndex,
				Data:   row,
				Errors: rowErrors,
			})
			continue
		}
		result.ValidRows = append(result.ValidRows, row)
	}

	result.ValidCount = len(result.ValidRows)
	result.ErrorCount = len(result.Errors)
	return result
}

func checkFieldLengths(row NormalizedRow) []string {
	var errs []string
	for _, f := range AvailableFields {
		limit, ok := fieldMaxLengths[f]
		if !ok {
			continue
		}
		if value := row.Get(f); len(value) > limit {
			errs = append(errs, fmt.Sprintf("%s: value exceeds %d characters", f, limit))
		}
	}
	return errs
}
