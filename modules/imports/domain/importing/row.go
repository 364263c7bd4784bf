package importing

import (
	"fmt"
	"strings"
)

// RawRow is one data row as read from the source file: original column name
// to raw cell value. Missing cells are absent keys; column order is carried
// separately by the table that produced the row.
type RawRow map[string]string

// CoalesceConflict records that two or more source columns in the same
// coalesce group were simultaneously non-empty.
type CoalesceConflict struct {
	Field   Field             `json:"field"`
	Columns map[string]string `json:"columns"`
}

// NormalizedRow is a row after column mappings have been applied.
type NormalizedRow struct {
	Fields            map[Field]string  `json:"fields"`
	UserMetadata      map[string]string `json:"user_metadata,omitempty"`
	CoalesceConflicts []CoalesceConflict `json:"coalesce_conflicts,omitempty"`
	// CoalesceSources records which source column supplied each field's value.
	CoalesceSources map[Field]string `json:"coalesce_sources,omitempty"`
}

func NewNormalizedRow() NormalizedRow {
	return NormalizedRow{
		Fields:          make(map[Field]string),
		CoalesceSources: make(map[Field]string),
	}
}

func (r NormalizedRow) Get(f Field) string {
	return r.Fields[f]
}

func (r NormalizedRow) Has(f Field) bool {
	return r.Fields[f] != ""
}

func (r *NormalizedRow) Set(f Field, value string) {
	r.Fields[f] = value
}

// IsComplete reports whether the row satisfies the one required-field group
// of the schema: a genotype or a repository stock id.
func (r NormalizedRow) IsComplete() bool {
	return r.Has(FieldGenotype) || r.Has(FieldRepositoryStockID)
}

// ValidateRequired returns human-readable errors for the required-field
// group, empty when the row is complete.
func (r NormalizedRow) ValidateRequired() []string {
	if r.IsComplete() {
		return nil
	}
	return []string{"Row must have either a repository stock ID (e.g., BDSC#) or a genotype"}
}

// Clone returns a deep copy so staged rows can be mutated during resolution
// without aliasing the session's copy.
func (r NormalizedRow) Clone() NormalizedRow {
	clone := NormalizedRow{
		Fields:          make(map[Field]string, len(r.Fields)),
		CoalesceSources: make(map[Field]string, len(r.CoalesceSources)),
	}
	for k, v := range r.Fields {
		clone.Fields[k] = v
	}
	for k, v := range r.CoalesceSources {
		clone.CoalesceSources[k] = v
	}
	if r.UserMetadata != nil {
		clone.UserMetadata = make(map[string]string, len(r.UserMetadata))
		for k, v := range r.UserMetadata {
			clone.UserMetadata[k] = v
		}
	}
	if r.CoalesceConflicts != nil {
		clone.CoalesceConflicts = append([]CoalesceConflict(nil), r.CoalesceConflicts...)
	}
	return clone
}

// ParseTags splits a tags cell into tag names. Both comma and semicolon work
// as separators; empty entries are dropped.
func ParseTags(tags string) []string {
	if tags == "" {
		return nil
	}
	normalized := strings.ReplaceAll(tags, ";", ",")
	var names []string
	for _, part := range strings.Split(normalized, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// GenerateStockID derives a stock id for a row that has none.
//
// Priority: repository + repository_stock_id -> "BDSC-3605"; repository
// stock id alone -> "EXT-3605"; otherwise "{prefix}-{index:04d}".
func GenerateStockID(row NormalizedRow, index int, prefix string) string {
	repo := strings.ToUpper(row.Get(FieldRepository))
	repoID := row.Get(FieldRepositoryStockID)

	switch {
	case repo != "" && repoID != "":
		return fmt.Sprintf("%s-%s", repo, repoID)
	case repoID != "":
		return fmt.Sprintf("EXT-%s", repoID)
	default:
		return fmt.Sprintf("%s-%04d", prefix, index)
	}
}
