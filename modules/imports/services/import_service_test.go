package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/flybase"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/session"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/tabular"
	"github.com/flyroom/flyroom/modules/stocks/domain/aggregates/stock"
	"github.com/flyroom/flyroom/modules/stocks/domain/entities/tray"
	"github.com/flyroom/flyroom/modules/stocks/infrastructure/persistence/inmemory"
	stockservices "github.com/flyroom/flyroom/modules/stocks/services"
	"github.com/flyroom/flyroom/pkg/composables"
	"github.com/flyroom/flyroom/pkg/eventbus"
	"github.com/flyroom/flyroom/pkg/types"
)

type testEnv struct {
	service *ImportService
	stocks  *inmemory.StockRepository
	tags    *inmemory.TagRepository
	trays   *inmemory.TrayRepository
	bus     eventbus.EventBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	stocks := inmemory.NewStockRepository()
	tags := inmemory.NewTagRepository()
	trays := inmemory.NewTrayRepository()
	bus := eventbus.NewEventPublisher(log)

	svc := NewImportService(
		stockservices.NewStockService(stocks, bus),
		tags,
		trays,
		flybase.NewOfflineCatalog(),
		session.NewStore(30*time.Minute),
		importing.NewDetector(false),
		bus,
		"IMP",
	)
	return &testEnv{service: svc, stocks: stocks, tags: tags, trays: trays, bus: bus}
}

func testCtx(tenantID uuid.UUID, role types.Role) context.Context {
	ctx := composables.WithTenantID(context.Background(), tenantID)
	return composables.WithUser(ctx, &types.User{
		ID:    uuid.New(),
		Email: "importer@example.com",
		Role:  role,
	})
}

func v2Mappings() MappingSet {
	return MappingSet{
		ColumnMappings: []importing.ColumnMapping{
			{ColumnName: "BDSC#", TargetField: importing.FieldRepositoryStockID},
			{ColumnName: "Genotype", TargetField: importing.FieldGenotype},
			{ColumnName: "Tray", TargetField: importing.FieldTrayName},
		},
		Config: importing.DefaultConfig(),
	}
}

func TestExecutePhase1_CleanFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype", "Tray"},
		Rows: []importing.RawRow{
			{"BDSC#": "3605", "Genotype": "w[1118]; Dr[1]/TM3, Sb[1]", "Tray": "Rack A"},
			{"BDSC#": "", "Genotype": "hs-FLP; unique-lab-construct-77", "Tray": "Rack A"},
		},
	}

	result, err := env.service.ExecutePhase1(ctx, table, v2Mappings())
	require.NoError(t, err)

	assert.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, []string{"BDSC-3605", "IMP-0002"}, result.ImportedStockIDs)
	assert.Empty(t, result.ConflictingRows)
	assert.Empty(t, result.SessionID)
	assert.Equal(t, 1, result.MetadataFetched)
	assert.Equal(t, []string{"Rack A"}, result.TraysCreated)

	created, err := env.service.stocks.GetByStockID(ctx, "BDSC-3605")
	require.NoError(t, err)
	assert.Equal(t, stock.OriginRepository, created.Origin())
	assert.Equal(t, stock.CenterBDSC, created.Repository())
	assert.Equal(t, "3605", created.RepositoryStockID())
	assert.Equal(t, "FBst0003605", created.Metadata()["flybase_id"])
	assert.NotNil(t, created.TrayID())

	internal, err := env.service.stocks.GetByStockID(ctx, "IMP-0002")
	require.NoError(t, err)
	assert.Equal(t, stock.OriginInternal, internal.Origin())
}

func TestExecutePhase1_GenotypeMismatchStaged(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype"},
		Rows: []importing.RawRow{
			{"BDSC#": "5905", "Genotype": "yw; completely different"},
			{"BDSC#": "3605", "Genotype": "w[1118]; Dr[1]/TM3, Sb[1]"},
		},
	}

	result, err := env.service.ExecutePhase1(ctx, table, v2Mappings())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ImportedCount)
	assert.Equal(t, []string{"BDSC-3605"}, result.ImportedStockIDs)
	require.Len(t, result.ConflictingRows, 1)
	assert.Equal(t, 1, result.ConflictingRows[0].RowIndex)
	assert.Equal(t, importing.ConflictGenotypeMismatch, result.ConflictingRows[0].Conflicts[0].Type)
	assert.Equal(t, map[string]int{string(importing.ConflictGenotypeMismatch): 1}, result.ConflictSummary)
	require.NotEmpty(t, result.SessionID)

	// The conflicting row is staged, not committed.
	_, err = env.service.stocks.GetByStockID(ctx, "BDSC-5905")
	assert.ErrorIs(t, err, stock.ErrNotFound)
}

func TestExecutePhase2_Resolutions(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype"},
		Rows: []importing.RawRow{
			{"BDSC#": "5905", "Genotype": "yw; completely different"},
		},
	}
	phase1, err := env.service.ExecutePhase1(ctx, table, v2Mappings())
	require.NoError(t, err)
	require.NotEmpty(t, phase1.SessionID)

	t.Run("use_value imports with flags applied", func(t *testing.T) {
		result, err := env.service.ExecutePhase2(ctx, phase1.SessionID, []Resolution{{
			RowIndex: 1,
			Action:   ResolutionUseValue,
			FieldValues: map[importing.Field]string{
				importing.FieldGenotype: "w[1118]",
			},
			FlagNote: "Local genotype verified under scope",
			FlagTag:  "verified",
		}}, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, result.ImportedCount)
		assert.Equal(t, []string{"BDSC-5905"}, result.StockIDs)
		assert.Equal(t, 0, result.SkippedCount)

		created, err := env.service.stocks.GetByStockID(ctx, "BDSC-5905")
		require.NoError(t, err)
		assert.Equal(t, "w[1118]", created.Genotype())
		assert.Contains(t, created.Notes(), "Local genotype verified under scope")
		assert.Contains(t, created.Tags(), "verified")
	})

	t.Run("session is single use", func(t *testing.T) {
		_, err := env.service.ExecutePhase2(ctx, phase1.SessionID, nil, nil)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestExecutePhase2_SkipAndUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype"},
		Rows: []importing.RawRow{
			{"BDSC#": "5905", "Genotype": "first mismatch"},
			{"BDSC#": "3605", "Genotype": "second mismatch"},
			{"BDSC#": "458", "Genotype": "third mismatch"},
		},
	}
	phase1, err := env.service.ExecutePhase1(ctx, table, v2Mappings())
	require.NoError(t, err)
	require.Len(t, phase1.ConflictingRows, 3)

	result, err := env.service.ExecutePhase2(ctx, phase1.SessionID, []Resolution{
		{RowIndex: 1, Action: ResolutionSkip},
		// Row 2 has no resolution at all: also skipped.
		{RowIndex: 3, Action: "banana"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ImportedCount)
	assert.Equal(t, 2, result.SkippedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Errors[0], "Unknown resolution action: banana")
}

func TestExecutePhase2_DuplicateRecheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype"},
		Rows: []importing.RawRow{
			{"BDSC#": "5905", "Genotype": "mismatched genotype"},
		},
	}
	phase1, err := env.service.ExecutePhase1(ctx, table, v2Mappings())
	require.NoError(t, err)

	// Someone else creates the same stock id between the phases.
	_, err = env.service.stocks.Create(ctx, stock.New("BDSC-5905", "w[1118]"))
	require.NoError(t, err)

	result, err := env.service.ExecutePhase2(ctx, phase1.SessionID, []Resolution{{
		RowIndex: 1,
		Action:   ResolutionUseValue,
	}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ImportedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Errors[0], "already exists")
}

func TestExecutePhase2_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype"},
		Rows: []importing.RawRow{
			{"BDSC#": "5905", "Genotype": "mismatched genotype"},
		},
	}
	phase1, err := env.service.ExecutePhase1(ctx, table, v2Mappings())
	require.NoError(t, err)

	otherTenant := testCtx(uuid.New(), types.RoleMember)
	_, err = env.service.ExecutePhase2(otherTenant, phase1.SessionID, nil, nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The failed cross-tenant attempt must not consume the session.
	_, err = env.service.ExecutePhase2(ctx, phase1.SessionID, nil, nil)
	require.NoError(t, err)
}

func TestExecutePhase1_DeleteAllRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	set := v2Mappings()
	set.Config.DeleteAllBeforeImport = true

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype"},
		Rows: []importing.RawRow{
			{"BDSC#": "3605", "Genotype": "w[1118]; Dr[1]/TM3, Sb[1]"},
		},
	}

	t.Run("member is rejected", func(t *testing.T) {
		_, err := env.service.ExecutePhase1(testCtx(uuid.New(), types.RoleMember), table, set)
		assert.ErrorIs(t, err, ErrDeleteAllForbidden)
	})

	t.Run("admin wipes and reimports", func(t *testing.T) {
		ctx := testCtx(uuid.New(), types.RoleAdmin)
		_, err := env.service.stocks.Create(ctx, stock.New("OLD-1", "yw"))
		require.NoError(t, err)

		result, err := env.service.ExecutePhase1(ctx, table, set)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.DeletedCount)
		assert.Equal(t, 1, result.ImportedCount)

		_, err = env.service.stocks.GetByStockID(ctx, "OLD-1")
		assert.ErrorIs(t, err, stock.ErrNotFound)
	})
}

func TestExecute_SinglePhase(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"stock_id", "genotype", "tags"},
		Rows: []importing.RawRow{
			{"stock_id": "LAB-001", "genotype": "w[1118]; Sp/CyO", "tags": "balancer, teaching"},
			{"stock_id": "LAB-002", "genotype": "yw", "tags": ""},
		},
	}

	result, err := env.service.Execute(ctx, table, importing.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, []string{"LAB-001", "LAB-002"}, result.StockIDs)

	created, err := env.service.stocks.GetByStockID(ctx, "LAB-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"balancer", "teaching"}, created.Tags())

	all, err := env.tags.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExecute_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	t.Run("empty file", func(t *testing.T) {
		_, err := env.service.Execute(ctx, &tabular.Table{}, importing.DefaultConfig())
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("no required mapping", func(t *testing.T) {
		table := &tabular.Table{
			Columns: []string{"notes"},
			Rows:    []importing.RawRow{{"notes": "just a note"}},
		}
		_, err := env.service.Execute(ctx, table, importing.DefaultConfig())
		assert.ErrorIs(t, err, ErrMissingRequiredMapping)
	})

	t.Run("duplicate against existing is not re-imported", func(t *testing.T) {
		_, err := env.service.stocks.Create(ctx, stock.New("LAB-009", "yw"))
		require.NoError(t, err)

		table := &tabular.Table{
			Columns: []string{"stock_id", "genotype"},
			Rows: []importing.RawRow{
				{"stock_id": "LAB-009", "genotype": "yw"},
				{"stock_id": "LAB-010", "genotype": "w[1118]"},
			},
		}
		result, err := env.service.Execute(ctx, table, importing.DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, 1, result.ImportedCount)
		assert.Equal(t, []string{"LAB-010"}, result.StockIDs)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0].Errors[0], "already exists")
	})
}

func TestExecuteV2_TrayResolutions(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	_, err := env.trays.Create(ctx, &tray.Tray{Name: "Rack A", TrayType: tray.TypeNumeric, MaxPositions: 100})
	require.NoError(t, err)

	set := v2Mappings()
	set.TrayResolutions = []importing.TrayResolution{
		{TrayName: "Rack A", Action: "skip"},
	}
	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype", "Tray"},
		Rows: []importing.RawRow{
			{"BDSC#": "3605", "Genotype": "w[1118]; Dr[1]/TM3, Sb[1]", "Tray": "Rack A"},
		},
	}

	result, err := env.service.ExecuteV2(ctx, table, set)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)

	created, err := env.service.stocks.GetByStockID(ctx, "BDSC-3605")
	require.NoError(t, err)
	assert.Nil(t, created.TrayID())
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"stock_id", "genotype", "Chromosome"},
		Rows: []importing.RawRow{
			{"stock_id": "LAB-001", "genotype": "w[1118]", "Chromosome": "X"},
		},
	}

	result, err := env.service.Preview(ctx, table)
	require.NoError(t, err)
	assert.True(t, result.CanImport)
	assert.Equal(t, []string{"Chromosome"}, result.ColumnsUnmapped)
	assert.Equal(t, "stock_id", result.ColumnsDetected["stock_id"])
	require.NotNil(t, result.Stats)
	assert.Equal(t, 1, result.Stats.InternalCount)
	require.NotEmpty(t, result.ValidationWarnings)
	assert.Contains(t, result.ValidationWarnings[0], "Chromosome")
}

func TestValidateMappings(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"BDSC#", "Genotype", "Tray"},
		Rows: []importing.RawRow{
			{"BDSC#": "3605", "Genotype": "w[1118]", "Tray": "Rack Z"},
			{"BDSC#": "", "Genotype": "yw", "Tray": ""},
		},
	}

	result, err := env.service.ValidateMappings(ctx, table, v2Mappings())
	require.NoError(t, err)
	assert.True(t, result.CanImport)
	assert.True(t, result.TrayColumnMapped)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 1, result.Stats.RepositoryCount)
	assert.Equal(t, 1, result.Stats.InternalCount)
	assert.Equal(t, []string{"Rack Z"}, result.Stats.TraysToCreate)
}

func TestPreviewV2(t *testing.T) {
	env := newTestEnv(t)
	ctx := testCtx(uuid.New(), types.RoleMember)

	table := &tabular.Table{
		Columns: []string{"Genotype", "Chromosome"},
		Rows: []importing.RawRow{
			{"Genotype": "w[1118]", "Chromosome": "X"},
		},
	}
	result, err := env.service.PreviewV2(ctx, table)
	require.NoError(t, err)
	require.Len(t, result.Columns, 2)
	assert.Equal(t, importing.FieldGenotype, result.Columns[0].AutoDetected)
	assert.Equal(t, 1, result.TotalRows)
	// stock_id missing is a warning, not a blocker.
	assert.True(t, result.CanImport)
	require.NotEmpty(t, result.ValidationWarnings)
}
