package importing

import (
	"regexp"
	"strings"
)

// ColumnMapping binds one source column to a target field. Mappings are
// processed in slice order; that order decides which column wins a coalesce
// group, so callers must preserve the user's declaration order.
type ColumnMapping struct {
	ColumnName  string `json:"column_name"`
	TargetField Field  `json:"target_field"`
	// CustomKey names the metadata key used when TargetField is FieldCustom.
	// Empty means derive one from the column name.
	CustomKey string `json:"custom_key,omitempty"`
}

// FieldGenerator builds a field value from a pattern with {ColumnName}
// placeholders. Unresolved placeholders substitute the empty string.
type FieldGenerator struct {
	TargetField Field  `json:"target_field"`
	Pattern     string `json:"pattern"`
}

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ApplyFieldGenerators evaluates generators against each row and stores the
// result under the generator's target field name as a synthetic column.
// Generators run before mapping, so a generated column can participate in
// coalesce groups like any real column.
func ApplyFieldGenerators(rows []RawRow, generators []FieldGenerator) []RawRow {
	if len(generators) == 0 {
		return rows
	}
	for _, row := range rows {
		for _, gen := range generators {
			if gen.TargetField == "" || gen.Pattern == "" {
				continue
			}
			value := placeholderPattern.ReplaceAllStringFunc(gen.Pattern, func(match string) string {
				column := match[1 : len(match)-1]
				return row[column]
			})
			row[string(gen.TargetField)] = value
		}
	}
	return rows
}

// Normalize applies column mappings to raw rows with coalesce support and
// returns the normalized rows plus the metadata keys used by custom mappings.
//
// When several columns map to the same field, the first non-empty value (in
// mapping order) wins; every later non-empty value is recorded as a
// CoalesceConflict, never overwritten. Repository and origin are inferred
// afterwards when not explicitly mapped.
func Normalize(rows []RawRow, mappings []ColumnMapping, generators []FieldGenerator) ([]NormalizedRow, []string) {
	rows = ApplyFieldGenerators(rows, generators)
	mappings = withGeneratorMappings(mappings, generators)

	// Columns mapped to repository_stock_id may carry a repository hint in
	// their very name (e.g. "BDSC#").
	repoHints := make(map[string]string)
	for _, m := range mappings {
		if m.TargetField == FieldRepositoryStockID {
			if hint := RepositoryHintFromColumn(m.ColumnName); hint != "" {
				repoHints[m.ColumnName] = hint
			}
		}
	}

	originExplicit := false
	for _, m := range mappings {
		if m.TargetField == FieldOrigin {
			originExplicit = true
		}
	}

	var metadataKeys []string
	seenMetadataKeys := make(map[string]struct{})

	normalized := make([]NormalizedRow, 0, len(rows))
	for _, raw := range rows {
		row := NewNormalizedRow()
		metadata := make(map[string]string)

		for _, m := range mappings {
			value := strings.TrimSpace(raw[m.ColumnName])
			if value == "" {
				continue
			}

			if m.TargetField == FieldCustom {
				key := m.CustomKey
				if key == "" {
					key = metadataKeyFromColumn(m.ColumnName)
				}
				metadata[key] = value
				if _, seen := seenMetadataKeys[key]; !seen {
					seenMetadataKeys[key] = struct{}{}
					metadataKeys = append(metadataKeys, key)
				}
				continue
			}
			if m.TargetField == "" {
				continue
			}

			if existing, ok := row.Fields[m.TargetField]; ok {
				existingCol := row.CoalesceSources[m.TargetField]
				if existingCol == "" {
					existingCol = "unknown"
				}
				row.CoalesceConflicts = append(row.CoalesceConflicts, CoalesceConflict{
					Field: m.TargetField,
					Columns: map[string]string{
						existingCol:  existing,
						m.ColumnName: value,
					},
				})
				continue
			}

			row.Set(m.TargetField, value)
			row.CoalesceSources[m.TargetField] = m.ColumnName
		}

		if len(metadata) > 0 {
			row.UserMetadata = metadata
		}

		// Repository from column-name hint, unless explicitly mapped.
		if !row.Has(FieldRepository) && row.Has(FieldRepositoryStockID) {
			sourceCol := row.CoalesceSources[FieldRepositoryStockID]
			if hint, ok := repoHints[sourceCol]; ok {
				row.Set(FieldRepository, hint)
			}
		}

		if row.Has(FieldRepository) {
			row.Set(FieldRepository, NormalizeRepository(row.Get(FieldRepository)))
		}

		if !originExplicit || !row.Has(FieldOrigin) {
			row.Set(FieldOrigin, InferOrigin(row))
		}

		normalized = append(normalized, row)
	}

	return normalized, metadataKeys
}

// InferOrigin decides the origin of a row from its data.
//
// Order: explicit valid value; recognized repository name; presence of a
// repository stock id; presence of an external source; internal.
func InferOrigin(row NormalizedRow) string {
	explicit := strings.ToLower(strings.TrimSpace(row.Get(FieldOrigin)))
	switch explicit {
	case "repository", "internal", "external":
		return explicit
	}

	if repo := row.Get(FieldRepository); repo != "" && IsKnownRepository(repo) {
		return "repository"
	}
	if row.Has(FieldRepositoryStockID) {
		return "repository"
	}
	if row.Has(FieldExternalSource) {
		return "external"
	}
	return "internal"
}

// withGeneratorMappings appends implicit mappings for generated synthetic
// columns, after the explicit ones so real columns win coalesce.
func withGeneratorMappings(mappings []ColumnMapping, generators []FieldGenerator) []ColumnMapping {
	if len(generators) == 0 {
		return mappings
	}
	mapped := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		mapped[m.ColumnName] = struct{}{}
	}
	combined := append([]ColumnMapping(nil), mappings...)
	for _, gen := range generators {
		if gen.TargetField == "" {
			continue
		}
		if _, ok := mapped[string(gen.TargetField)]; ok {
			continue
		}
		combined = append(combined, ColumnMapping{
			ColumnName:  string(gen.TargetField),
			TargetField: gen.TargetField,
		})
	}
	return combined
}

func metadataKeyFromColumn(column string) string {
	key := strings.ToLower(column)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
