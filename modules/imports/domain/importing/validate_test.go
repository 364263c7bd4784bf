package importing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRows_AutoGenerateStockID(t *testing.T) {
	rows := []NormalizedRow{
		rowWith(map[Field]string{FieldRepository: "bdsc", FieldRepositoryStockID: "3605"}),
		rowWith(map[Field]string{FieldRepositoryStockID: "v10004"}),
		rowWith(map[Field]string{FieldGenotype: "w[1118]"}),
	}

	result := ValidateRows(rows, nil, true, "IMP")
	require.Equal(t, 3, result.ValidCount)
	assert.Equal(t, "BDSC-3605", result.ValidRows[0].Get(FieldStockID))
	assert.Equal(t, "EXT-v10004", result.ValidRows[1].Get(FieldStockID))
	assert.Equal(t, "IMP-0003", result.ValidRows[2].Get(FieldStockID))
}

func TestValidateRows_AutoGenerateIsIdempotent(t *testing.T) {
	rows := []NormalizedRow{
		rowWith(map[Field]string{FieldStockID: "KEEP-1", FieldGenotype: "w[1118]"}),
	}
	result := ValidateRows(rows, nil, true, "IMP")
	require.Equal(t, 1, result.ValidCount)
	assert.Equal(t, "KEEP-1", result.ValidRows[0].Get(FieldStockID))
}

func TestValidateRows_IncompleteRowGetsNoGeneratedID(t *testing.T) {
	rows := []NormalizedRow{
		rowWith(map[Field]string{FieldNotes: "nothing useful"}),
	}
	result := ValidateRows(rows, nil, true, "IMP")
	require.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 1, result.Errors[0].Row)
	assert.Empty(t, result.Errors[0].Data.Get(FieldStockID))
	assert.Contains(t, result.Errors[0].Errors[0], "repository stock ID")
}

func TestValidateRows_Duplicates(t *testing.T) {
	t.Run("within file", func(t *testing.T) {
		rows := []NormalizedRow{
			rowWith(map[Field]string{FieldStockID: "S-1", FieldGenotype: "a"}),
			rowWith(map[Field]string{FieldStockID: "S-1", FieldGenotype: "b"}),
		}
		result := ValidateRows(rows, nil, false, "IMP")
		require.Equal(t, 1, result.ErrorCount)
		assert.Equal(t, 2, result.Errors[0].Row)
		assert.Contains(t, result.Errors[0].Errors[0], "Duplicate stock_id in file: S-1")
	})

	t.Run("against existing stocks", func(t *testing.T) {
		existing := map[string]struct{}{"S-1": {}}
		rows := []NormalizedRow{
			rowWith(map[Field]string{FieldStockID: "S-1", FieldGenotype: "a"}),
		}
		result := ValidateRows(rows, existing, false, "IMP")
		require.Equal(t, 1, result.ErrorCount)
		assert.Contains(t, result.Errors[0].Errors[0], "Stock ID already exists: S-1")
	})
}

func TestValidateRows_FieldLengths(t *testing.T) {
	rows := []NormalizedRow{
		rowWith(map[Field]string{
			FieldStockID:  strings.Repeat("x", 101),
			FieldGenotype: "w[1118]",
		}),
	}
	result := ValidateRows(rows, nil, false, "IMP")
	require.Equal(t, 1, result.ErrorCount)
	assert.Contains(t, result.Errors[0].Errors[0], "stock_id")
	// Genotype has no length limit.
	long := []NormalizedRow{
		rowWith(map[Field]string{FieldGenotype: strings.Repeat("y", 5000)}),
	}
	assert.Equal(t, 1, ValidateRows(long, nil, false, "IMP").ValidCount)
}

func TestNormalizedRow_Clone(t *testing.T) {
	row := rowWith(map[Field]string{FieldGenotype: "w[1118]"})
	row.UserMetadata = map[string]string{"chromosome": "X"}

	clone := row.Clone()
	clone.Set(FieldGenotype, "yw")
	clone.UserMetadata["chromosome"] = "2"

	assert.Equal(t, "w[1118]", row.Get(FieldGenotype))
	assert.Equal(t, "X", row.UserMetadata["chromosome"])
}

func TestBuildColumnInfos(t *testing.T) {
	columns := []string{"Genotype", "BDSC#", "Chromosome"}
	rows := []RawRow{
		{"Genotype": "w[1118]", "BDSC#": "3605", "Chromosome": "X"},
		{"Genotype": "yw", "BDSC#": "", "Chromosome": ""},
	}
	infos := BuildColumnInfos(columns, rows)
	require.Len(t, infos, 3)
	assert.Equal(t, "Genotype", infos[0].Name)
	assert.Equal(t, FieldGenotype, infos[0].AutoDetected)
	assert.Equal(t, []string{"w[1118]", "yw"}, infos[0].SampleValues)
	assert.Equal(t, FieldRepositoryStockID, infos[1].AutoDetected)
	assert.Equal(t, Field(""), infos[2].AutoDetected)
}
