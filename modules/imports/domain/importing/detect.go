package importing

import (
	"context"
	"fmt"
	"strings"
)

// RemoteRecord is metadata fetched from a stock repository, keyed by
// repository stock id in the DetectionContext.
type RemoteRecord struct {
	Genotype string
	Metadata map[string]string
}

// DetectionContext carries the shared state every detector sees.
type DetectionContext struct {
	// ExistingStockIDs holds stock ids already present for the tenant.
	ExistingStockIDs map[string]struct{}
	// RemoteMetadata maps repository_stock_id to fetched repository data.
	RemoteMetadata map[string]RemoteRecord
	// AllRows allows cross-row analysis.
	AllRows []NormalizedRow
	// RepositoryMatches maps 1-based row index to candidate repository
	// stocks whose genotype matched the row.
	RepositoryMatches map[int][]RepositoryMatch
}

func NewDetectionContext() *DetectionContext {
	return &DetectionContext{
		ExistingStockIDs:  make(map[string]struct{}),
		RemoteMetadata:    make(map[string]RemoteRecord),
		RepositoryMatches: make(map[int][]RepositoryMatch),
	}
}

// Detector analyzes a single row and reports the conflicts it finds.
// rowIndex is 1-based.
type Detector interface {
	Detect(ctx context.Context, row NormalizedRow, rowIndex int, dctx *DetectionContext) ([]Conflict, error)
}

// RuleBasedDetector runs the deterministic checks: coalesce conflicts,
// genotype mismatches against repository data, duplicate stock ids, missing
// required fields and potential repository matches.
type RuleBasedDetector struct{}

func (d *RuleBasedDetector) Detect(_ context.Context, row NormalizedRow, rowIndex int, dctx *DetectionContext) ([]Conflict, error) {
	var conflicts []Conflict
	conflicts = append(conflicts, d.checkCoalesceConflicts(row)...)
	conflicts = append(conflicts, d.checkGenotypeMismatch(row, dctx)...)
	conflicts = append(conflicts, d.checkDuplicateStock(row, dctx)...)
	conflicts = append(conflicts, d.checkMissingRequired(row)...)
	conflicts = append(conflicts, d.checkRepositoryMatches(row, rowIndex, dctx)...)
	return conflicts, nil
}

func (d *RuleBasedDetector) checkCoalesceConflicts(row NormalizedRow) []Conflict {
	var conflicts []Conflict
	for _, cc := range row.CoalesceConflicts {
		conflicts = append(conflicts, Conflict{
			Type:     ConflictCoalesce,
			Field:    string(cc.Field),
			Values:   cc.Columns,
			Message:  fmt.Sprintf("Multiple values found for '%s': choose which to use", cc.Field),
			Detector: "rule",
		})
	}
	return conflicts
}

func (d *RuleBasedDetector) checkGenotypeMismatch(row NormalizedRow, dctx *DetectionContext) []Conflict {
	repoStockID := row.Get(FieldRepositoryStockID)
	localGenotype := row.Get(FieldGenotype)
	if repoStockID == "" || localGenotype == "" {
		return nil
	}

	remote, ok := dctx.RemoteMetadata[repoStockID]
	if !ok || remote.Genotype == "" {
		return nil
	}

	if normalizeGenotype(localGenotype) == normalizeGenotype(remote.Genotype) {
		return nil
	}

	return []Conflict{{
		Type:        ConflictGenotypeMismatch,
		Field:       string(FieldGenotype),
		Values:      map[string]string{"local": localGenotype},
		RemoteValue: remote.Genotype,
		Message:     fmt.Sprintf("Genotype differs from repository data for stock %s", repoStockID),
		Detector:    "rule",
	}}
}

func (d *RuleBasedDetector) checkDuplicateStock(row NormalizedRow, dctx *DetectionContext) []Conflict {
	stockID := row.Get(FieldStockID)
	if stockID == "" {
		return nil
	}
	if _, exists := dctx.ExistingStockIDs[stockID]; !exists {
		return nil
	}
	return []Conflict{{
		Type:     ConflictDuplicateStock,
		Field:    string(FieldStockID),
		Values:   map[string]string{"stock_id": stockID},
		Message:  fmt.Sprintf("Stock ID '%s' already exists in database", stockID),
		Detector: "rule",
	}}
}

func (d *RuleBasedDetector) checkMissingRequired(row NormalizedRow) []Conflict {
	if row.Has(FieldRepositoryStockID) || row.Has(FieldGenotype) {
		return nil
	}
	return []Conflict{{
		Type:     ConflictMissingRequired,
		Field:    "genotype/repository_stock_id",
		Values:   map[string]string{},
		Message:  "Row must have either a repository stock ID or a genotype",
		Detector: "rule",
	}}
}

func (d *RuleBasedDetector) checkRepositoryMatches(row NormalizedRow, rowIndex int, dctx *DetectionContext) []Conflict {
	// Only stocks not already identified as repository stocks.
	if strings.EqualFold(row.Get(FieldOrigin), "repository") {
		return nil
	}
	if row.Has(FieldRepositoryStockID) {
		return nil
	}

	matches := dctx.RepositoryMatches[rowIndex]
	if len(matches) == 0 {
		return nil
	}

	// The first match is the best one.
	best := matches[0]
	repo := strings.ToUpper(best.Repository)
	return []Conflict{{
		Type:  ConflictPotentialRepositoryMatch,
		Field: string(FieldOrigin),
		Values: map[string]string{
			"repository":          repo,
			"repository_stock_id": best.StockID,
			"match_genotype":      best.Genotype,
		},
		RemoteValue: best.Genotype,
		Message:     fmt.Sprintf("Genotype matches %s stock #%s. Consider converting to repository stock.", repo, best.StockID),
		Detector:    "rule",
		Suggestion:  fmt.Sprintf("Convert to %s #%s", repo, best.StockID),
	}}
}

// LLMDetector is a placeholder for model-assisted detection: fuzzy genotype
// matching, semantic duplicates and quality flags. It reports nothing until a
// client is wired in.
type LLMDetector struct{}

func (d *LLMDetector) Detect(context.Context, NormalizedRow, int, *DetectionContext) ([]Conflict, error) {
	return nil, nil
}

// CompositeDetector runs a list of detectors and aggregates their findings
// per row.
type CompositeDetector struct {
	detectors []Detector
}

func NewCompositeDetector(detectors ...Detector) *CompositeDetector {
	return &CompositeDetector{detectors: detectors}
}

func (c *CompositeDetector) Detect(ctx context.Context, row NormalizedRow, rowIndex int, dctx *DetectionContext) ([]Conflict, error) {
	var all []Conflict
	for _, d := range c.detectors {
		conflicts, err := d.Detect(ctx, row, rowIndex, dctx)
		if err != nil {
			return nil, err
		}
		all = append(all, conflicts...)
	}
	return all, nil
}

// DetectAll checks every row and returns only the ones with conflicts.
// originals supplies the untransformed rows for reporting; it may be shorter
// than rows.
func (c *CompositeDetector) DetectAll(ctx context.Context, rows []NormalizedRow, originals []RawRow, dctx *DetectionContext) ([]ConflictingRow, error) {
	var conflicting []ConflictingRow
	for i, row := range rows {
		rowIndex := i + 1
		conflicts, err := c.Detect(ctx, row, rowIndex, dctx)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			continue
		}
		var original RawRow
		if i < len(originals) {
			original = originals[i]
		}
		conflicting = append(conflicting, ConflictingRow{
			RowIndex:       rowIndex,
			OriginalRow:    original,
			TransformedRow: row,
			Conflicts:      conflicts,
		})
	}
	return conflicting, nil
}

// NewDetector builds the default detection pipeline.
func NewDetector(enableLLM bool) *CompositeDetector {
	detectors := []Detector{&RuleBasedDetector{}}
	if enableLLM {
		detectors = append(detectors, &LLMDetector{})
	}
	return NewCompositeDetector(detectors...)
}

func normalizeGenotype(genotype string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(genotype)), " ")
	return strings.ReplaceAll(normalized, ";", ",")
}
