package importing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowWith(fields map[Field]string) NormalizedRow {
	row := NewNormalizedRow()
	for f, v := range fields {
		row.Set(f, v)
	}
	return row
}

func TestRuleBasedDetector_CoalesceConflicts(t *testing.T) {
	row := rowWith(map[Field]string{FieldGenotype: "w[1118]", FieldRepositoryStockID: "3605"})
	row.CoalesceConflicts = []CoalesceConflict{{
		Field:   FieldRepositoryStockID,
		Columns: map[string]string{"BDSC#": "3605", "VDRC#": "v10004"},
	}}

	detector := &RuleBasedDetector{}
	conflicts, err := detector.Detect(context.Background(), row, 1, NewDetectionContext())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictCoalesce, conflicts[0].Type)
	assert.Equal(t, "repository_stock_id", conflicts[0].Field)
	assert.Equal(t, "3605", conflicts[0].Values["BDSC#"])
}

func TestRuleBasedDetector_GenotypeMismatch(t *testing.T) {
	detector := &RuleBasedDetector{}
	dctx := NewDetectionContext()
	dctx.RemoteMetadata["3605"] = RemoteRecord{Genotype: "w[1118]"}

	t.Run("differing genotype flagged", func(t *testing.T) {
		row := rowWith(map[Field]string{
			FieldRepositoryStockID: "3605",
			FieldGenotype:          "yw; Sp/CyO",
		})
		conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, ConflictGenotypeMismatch, conflicts[0].Type)
		assert.Equal(t, "w[1118]", conflicts[0].RemoteValue)
	})

	t.Run("whitespace and case ignored", func(t *testing.T) {
		row := rowWith(map[Field]string{
			FieldRepositoryStockID: "3605",
			FieldGenotype:          "  W[1118] ",
		})
		conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("separator style ignored", func(t *testing.T) {
		dctx.RemoteMetadata["5905"] = RemoteRecord{Genotype: "w[1118]; Dr[1]/TM3, Sb[1]"}
		row := rowWith(map[Field]string{
			FieldRepositoryStockID: "5905",
			FieldGenotype:          "w[1118], Dr[1]/TM3, Sb[1]",
		})
		conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("no remote record means no conflict", func(t *testing.T) {
		row := rowWith(map[Field]string{
			FieldRepositoryStockID: "99999",
			FieldGenotype:          "yw",
		})
		conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})
}

func TestRuleBasedDetector_DuplicateStock(t *testing.T) {
	detector := &RuleBasedDetector{}
	dctx := NewDetectionContext()
	dctx.ExistingStockIDs["BDSC-3605"] = struct{}{}

	row := rowWith(map[Field]string{
		FieldStockID:  "BDSC-3605",
		FieldGenotype: "w[1118]",
	})
	conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictDuplicateStock, conflicts[0].Type)
	assert.Contains(t, conflicts[0].Message, "BDSC-3605")
}

func TestRuleBasedDetector_MissingRequired(t *testing.T) {
	detector := &RuleBasedDetector{}
	row := rowWith(map[Field]string{FieldStockID: "S-1", FieldNotes: "no genotype"})

	conflicts, err := detector.Detect(context.Background(), row, 1, NewDetectionContext())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictMissingRequired, conflicts[0].Type)
	assert.Equal(t, "genotype/repository_stock_id", conflicts[0].Field)
}

func TestRuleBasedDetector_RepositoryMatches(t *testing.T) {
	detector := &RuleBasedDetector{}
	dctx := NewDetectionContext()
	dctx.RepositoryMatches[1] = []RepositoryMatch{
		{Repository: "bdsc", StockID: "5905", Genotype: "w[1118]"},
		{Repository: "vdrc", StockID: "v60000", Genotype: "w[1118]"},
	}

	t.Run("internal stock gets the best match as suggestion", func(t *testing.T) {
		row := rowWith(map[Field]string{
			FieldGenotype: "w[1118]",
			FieldOrigin:   "internal",
		})
		conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, ConflictPotentialRepositoryMatch, conflicts[0].Type)
		assert.Equal(t, "BDSC", conflicts[0].Values["repository"])
		assert.Equal(t, "5905", conflicts[0].Values["repository_stock_id"])
		assert.Equal(t, "Convert to BDSC #5905", conflicts[0].Suggestion)
	})

	t.Run("repository stock is skipped", func(t *testing.T) {
		row := rowWith(map[Field]string{
			FieldGenotype: "w[1118]",
			FieldOrigin:   "repository",
		})
		conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("stock with repository id is skipped", func(t *testing.T) {
		row := rowWith(map[Field]string{
			FieldGenotype:          "w[1118]",
			FieldOrigin:            "internal",
			FieldRepositoryStockID: "5905",
		})
		conflicts, err := detector.Detect(context.Background(), row, 1, dctx)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})
}

func TestCompositeDetector_DetectAll(t *testing.T) {
	detector := NewDetector(false)
	dctx := NewDetectionContext()
	dctx.ExistingStockIDs["DUP-1"] = struct{}{}

	rows := []NormalizedRow{
		rowWith(map[Field]string{FieldGenotype: "w[1118]", FieldStockID: "OK-1", FieldOrigin: "repository"}),
		rowWith(map[Field]string{FieldGenotype: "yw", FieldStockID: "DUP-1", FieldOrigin: "repository"}),
		rowWith(map[Field]string{FieldStockID: "NO-GENO"}),
	}
	originals := []RawRow{
		{"Genotype": "w[1118]"},
		{"Genotype": "yw"},
		{"Genotype": ""},
	}

	conflicting, err := detector.DetectAll(context.Background(), rows, originals, dctx)
	require.NoError(t, err)
	require.Len(t, conflicting, 2)

	assert.Equal(t, 2, conflicting[0].RowIndex)
	assert.Equal(t, ConflictDuplicateStock, conflicting[0].Conflicts[0].Type)
	assert.Equal(t, RawRow{"Genotype": "yw"}, conflicting[0].OriginalRow)

	assert.Equal(t, 3, conflicting[1].RowIndex)
	assert.Equal(t, ConflictMissingRequired, conflicting[1].Conflicts[0].Type)
}

func TestConflict_ConfidenceOptional(t *testing.T) {
	score := 0.85
	flagged := Conflict{
		Type:       ConflictLLMFlagged,
		Field:      "genotype",
		Message:    "Possible semantic duplicate",
		Detector:   "llm",
		Confidence: &score,
	}
	payload, err := json.Marshal(flagged)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"confidence":0.85`)

	detector := &RuleBasedDetector{}
	row := rowWith(map[Field]string{FieldStockID: "S-1"})
	conflicts, err := detector.Detect(context.Background(), row, 1, NewDetectionContext())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Nil(t, conflicts[0].Confidence)
	payload, err = json.Marshal(conflicts[0])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "confidence")
}
