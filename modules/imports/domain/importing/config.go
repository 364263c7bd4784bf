package importing

// Config holds the per-request options of an import execution.
type Config struct {
	// FetchMetadata enables repository metadata lookups for rows that
	// carry a repository stock id.
	FetchMetadata bool `json:"fetch_metadata"`
	// AutoCreateTrays creates trays named in the file that do not exist yet.
	AutoCreateTrays         bool   `json:"auto_create_trays"`
	DefaultTrayType         string `json:"default_tray_type"`
	DefaultTrayMaxPositions int    `json:"default_tray_max_positions"`
	// DeleteAllBeforeImport wipes the tenant's stocks first. Admin only.
	DeleteAllBeforeImport bool `json:"delete_all_before_import"`
}

// DefaultConfig mirrors the defaults the UI sends when the user leaves
// everything untouched.
func DefaultConfig() Config {
	return Config{
		FetchMetadata:           true,
		AutoCreateTrays:         true,
		DefaultTrayType:         "numeric",
		DefaultTrayMaxPositions: 100,
	}
}

// TrayResolution is the user's decision for a tray name that does not match
// an existing tray: use_existing, create_new (with NewName) or skip.
type TrayResolution struct {
	TrayName string `json:"tray_name"`
	Action   string `json:"action"`
	NewName  string `json:"new_name,omitempty"`
}
