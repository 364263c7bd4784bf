package importing

import "strings"

const maxColumnSamples = 5

// ColumnInfo describes a source column for the mapping UI: its name, up to
// five non-empty sample values and the field it auto-detects to, if any.
type ColumnInfo struct {
	Name         string   `json:"name"`
	SampleValues []string `json:"sample_values"`
	AutoDetected Field    `json:"auto_detected,omitempty"`
}

// BuildColumnInfos inspects the parsed file and returns one ColumnInfo per
// column, preserving file order.
func BuildColumnInfos(columns []string, rows []RawRow) []ColumnInfo {
	infos := make([]ColumnInfo, 0, len(columns))
	for _, col := range columns {
		samples := make([]string, 0, maxColumnSamples)
		for _, row := range rows {
			if value := strings.TrimSpace(row[col]); value != "" {
				samples = append(samples, value)
			}
			if len(samples) >= maxColumnSamples {
				break
			}
		}
		infos = append(infos, ColumnInfo{
			Name:         col,
			SampleValues: samples,
			AutoDetected: AutoDetectColumn(col),
		})
	}
	return infos
}
