package importing

import "strings"

// Field is a target field of the stock import schema.
type Field string

const (
	FieldStockID           Field = "stock_id"
	FieldGenotype          Field = "genotype"
	FieldOrigin            Field = "origin"
	FieldRepository        Field = "repository"
	FieldRepositoryStockID Field = "repository_stock_id"
	FieldExternalSource    Field = "external_source"
	FieldNotes             Field = "notes"
	FieldTags              Field = "tags"
	FieldTrayName          Field = "tray_name"
	FieldPosition          Field = "position"
	FieldVisibility        Field = "visibility"

	// FieldCustom routes a column into the free-form metadata map instead of
	// a schema field.
	FieldCustom Field = "custom"
)

// AvailableFields lists the fields a column may be mapped to, in display order.
var AvailableFields = []Field{
	FieldStockID,
	FieldGenotype,
	FieldOrigin,
	FieldRepository,
	FieldRepositoryStockID,
	FieldExternalSource,
	FieldNotes,
	FieldTags,
	FieldTrayName,
	FieldPosition,
	FieldVisibility,
}

// RequiredFieldsOneOf is the one required-field group of the schema: every
// row must carry at least one of these.
var RequiredFieldsOneOf = []Field{FieldRepositoryStockID, FieldGenotype}

// columnAliases maps each field to the spreadsheet column names (lower-cased)
// it is auto-detected from.
var columnAliases = map[Field][]string{
	FieldStockID: {
		"stock_id", "stockid", "stock id", "id", "stock", "stock#", "stock #",
		"local_id", "local id", "lab_id", "lab id", "internal_id",
	},
	FieldGenotype: {
		"genotype", "geno", "genotypes", "full genotype", "full_genotype",
	},
	FieldOrigin: {
		"origin", "type", "source_type", "stock_type",
	},
	FieldRepository: {
		"repository", "repo", "stock_center", "source", "center", "stock center",
		"from", "obtained_from", "obtained from",
	},
	FieldRepositoryStockID: {
		"repository_stock_id", "repo_id", "external_id", "bdsc_id", "vdrc_id",
		"center_id", "stock_center_id", "source_id", "catalog", "catalog_number",
		"catalog#", "bdsc#", "vdrc#", "bl#", "stock number", "bdsc", "vdrc", "bl",
	},
	FieldExternalSource: {
		"external_source", "lab", "researcher", "from_lab", "lab_name",
		"received_from", "donor", "donor_lab",
	},
	FieldNotes: {
		"notes", "note", "comments", "comment", "description", "remarks",
	},
	FieldTags: {
		"tags", "tag", "labels", "categories", "keywords",
	},
	FieldTrayName: {
		"tray", "tray_name", "rack", "shelf", "location", "box", "container",
		"storage", "freezer",
	},
	FieldPosition: {
		"position", "pos", "slot", "well", "spot", "tray_position", "tray_pos",
	},
	FieldVisibility: {
		"visibility", "visible", "sharing", "share", "access",
	},
}

// AutoDetectColumn maps a raw column name to a schema field, or "" when the
// name is not recognized. Matching is case-insensitive on the trimmed name.
func AutoDetectColumn(column string) Field {
	lowered := strings.ToLower(strings.TrimSpace(column))
	for _, field := range AvailableFields {
		for _, alias := range columnAliases[field] {
			if lowered == alias {
				return field
			}
		}
	}
	return ""
}
