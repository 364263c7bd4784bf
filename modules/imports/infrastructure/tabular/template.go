package tabular

import (
	"bytes"
	"encoding/csv"
)

// Template types offered for download.
const (
	TemplateBasic      = "basic"
	TemplateRepository = "repository"
	TemplateFull       = "full"
)

// GenerateCSVTemplate returns a ready-to-fill CSV with example rows. Unknown
// template types fall back to the full template.
func GenerateCSVTemplate(templateType string) string {
	var headers []string
	var exampleRows [][]string

	switch templateType {
	case TemplateBasic:
		headers = []string{"stock_id", "genotype", "notes", "tags"}
		exampleRows = [][]string{
			{"LAB-001", "w[1118]; P{GAL4-elav.L}3", "Elav-GAL4 driver line", "driver,nervous system"},
			{"LAB-002", "y[1] w[*]; P{UAS-GFP}", "GFP reporter", "reporter,UAS"},
		}
	case TemplateRepository:
		headers = []string{"stock_id", "genotype", "repository", "repository_stock_id", "notes", "tags"}
		exampleRows = [][]string{
			{"BL-3605", "w[1118]; P{GAL4-elav.L}3", "Bloomington", "3605", "Elav-GAL4 driver", "driver"},
			{"VDRC-100821", "w[1118]; P{KK}", "VDRC", "100821", "RNAi line", "rnai"},
			{"KY-109706", "w[*]; P{GawB}NP", "Kyoto", "109706", "GAL4 trap", "trap"},
		}
	default:
		headers = []string{
			"stock_id", "genotype", "origin", "repository", "repository_stock_id",
			"external_source", "tray", "position", "notes", "tags",
		}
		exampleRows = [][]string{
			{"BL-3605", "w[1118]; P{GAL4-elav.L}3", "repository", "bdsc", "3605", "", "Rack A", "1", "Elav-GAL4 driver", "driver"},
			{"LAB-001", "w[1118]; Sp/CyO", "internal", "", "", "", "Rack A", "2", "Balancer stock", "balancer"},
			{"EXT-001", "yw; UAS-ChR2", "external", "", "", "Smith Lab", "Rack B", "1", "Optogenetic line", "optogenetics"},
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(headers)
	for _, row := range exampleRows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String()
}
