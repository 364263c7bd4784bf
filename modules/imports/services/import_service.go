package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
	"github.com/flyroom/flyroom/modules/imports/domain/repolookup"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/session"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/tabular"
	"github.com/flyroom/flyroom/modules/stocks/domain/aggregates/stock"
	"github.com/flyroom/flyroom/modules/stocks/domain/entities/tag"
	"github.com/flyroom/flyroom/modules/stocks/domain/entities/tray"
	stockservices "github.com/flyroom/flyroom/modules/stocks/services"
	"github.com/flyroom/flyroom/pkg/composables"
	"github.com/flyroom/flyroom/pkg/eventbus"
	"github.com/flyroom/flyroom/pkg/serrors"
)

var (
	ErrEmptyFile = serrors.NewError(
		"IMPORT_EMPTY_FILE", "File is empty or has no data rows", "")
	ErrNoValidRows = serrors.NewError(
		"IMPORT_NO_VALID_ROWS", "No valid rows to import", "")
	ErrMissingRequiredMapping = serrors.NewError(
		"IMPORT_INVALID_MAPPINGS",
		"Each row must have either a repository stock ID or a genotype. Please map at least one of these fields.", "")
	ErrSessionNotFound = serrors.NewError(
		"IMPORT_SESSION_NOT_FOUND", "Import session not found or expired. Please start over.", "")
	ErrDeleteAllForbidden = serrors.NewError(
		"IMPORT_FORBIDDEN", "Only admin users can delete all stocks before import", "")
)

// ImportService runs the whole import pipeline: preview, mapping validation
// and the single- and two-phase executes.
type ImportService struct {
	stocks    *stockservices.StockService
	tags      tag.Repository
	trays     tray.Repository
	lookup    repolookup.Service
	sessions  *session.Store
	detector  *importing.CompositeDetector
	publisher eventbus.EventBus

	stockIDPrefix string
}

func NewImportService(
	stocks *stockservices.StockService,
	tags tag.Repository,
	trays tray.Repository,
	lookup repolookup.Service,
	sessions *session.Store,
	detector *importing.CompositeDetector,
	publisher eventbus.EventBus,
	stockIDPrefix string,
) *ImportService {
	return &ImportService{
		stocks:        stocks,
		tags:          tags,
		trays:         trays,
		lookup:        lookup,
		sessions:      sessions,
		detector:      detector,
		publisher:     publisher,
		stockIDPrefix: stockIDPrefix,
	}
}

// Preview parses the file with automatic column detection and reports what
// an import would do.
func (s *ImportService) Preview(ctx context.Context, table *tabular.Table) (*PreviewResult, error) {
	if len(table.Rows) == 0 {
		return &PreviewResult{
			ValidationWarnings: []string{"File is empty or has no data rows"},
		}, nil
	}

	mappings, unmapped, detected := autoMappings(table.Columns)
	rows, _ := importing.Normalize(table.Rows, mappings, nil)

	existing, err := s.stocks.ExistingStockIDs(ctx)
	if err != nil {
		return nil, err
	}
	validation := importing.ValidateRows(rows, existing, true, s.stockIDPrefix)

	stats, err := s.computeStats(ctx, validation.ValidRows)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if len(unmapped) > 0 {
		warnings = append(warnings, fmt.Sprintf("Unmapped columns (will be ignored): %s", strings.Join(unmapped, ", ")))
	}
	if _, ok := detected[importing.FieldStockID]; !ok {
		warnings = append(warnings, "No 'stock_id' column detected - required for import")
	}
	if _, ok := detected[importing.FieldGenotype]; !ok {
		warnings = append(warnings, "No 'genotype' column detected - required for import")
	}
	if len(stats.TraysToCreate) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Will auto-create %d new tray(s): %s", len(stats.TraysToCreate), strings.Join(stats.TraysToCreate, ", ")))
	}

	columnsDetected := make(map[string]string, len(detected))
	for field, column := range detected {
		columnsDetected[column] = string(field)
	}

	_, hasStockID := detected[importing.FieldStockID]
	_, hasGenotype := detected[importing.FieldGenotype]

	return &PreviewResult{
		ColumnsDetected:    columnsDetected,
		ColumnsUnmapped:    unmapped,
		SampleRows:         head(rows, 5),
		RawSampleRows:      head(table.Rows, 5),
		Stats:              stats,
		ValidationWarnings: warnings,
		ValidationErrors:   head(validation.Errors, 10),
		CanImport:          validation.ValidCount > 0 && hasStockID && hasGenotype,
	}, nil
}

// Validate runs validation with automatic column detection and returns the
// full per-row breakdown.
func (s *ImportService) Validate(ctx context.Context, table *tabular.Table) (*importing.ValidationResult, error) {
	mappings, _, _ := autoMappings(table.Columns)
	rows, _ := importing.Normalize(table.Rows, mappings, nil)

	existing, err := s.stocks.ExistingStockIDs(ctx)
	if err != nil {
		return nil, err
	}
	result := importing.ValidateRows(rows, existing, true, s.stockIDPrefix)
	return &result, nil
}

// PreviewV2 returns per-column information for the interactive mapping UI.
func (s *ImportService) PreviewV2(_ context.Context, table *tabular.Table) (*PreviewV2Result, error) {
	if len(table.Rows) == 0 {
		return &PreviewV2Result{
			ValidationWarnings: []string{"File is empty or has no data rows"},
		}, nil
	}

	infos := importing.BuildColumnInfos(table.Columns, table.Rows)

	detected := make(map[importing.Field]struct{})
	for _, info := range infos {
		if info.AutoDetected != "" {
			detected[info.AutoDetected] = struct{}{}
		}
	}
	hasRequired := false
	for _, f := range importing.RequiredFieldsOneOf {
		if _, ok := detected[f]; ok {
			hasRequired = true
		}
	}

	var warnings []string
	if !hasRequired {
		warnings = append(warnings,
			"Each row needs either a repository stock ID (e.g., BDSC#) OR a genotype. Please map at least one of these fields.")
	}
	if _, ok := detected[importing.FieldStockID]; !ok {
		warnings = append(warnings, "No stock_id column detected - IDs will be auto-generated if not mapped.")
	}

	return &PreviewV2Result{
		Columns:            infos,
		AvailableFields:    importing.AvailableFields,
		RequiredFields:     importing.RequiredFieldsOneOf,
		TotalRows:          len(table.Rows),
		SampleRows:         head(table.Rows, 10),
		CanImport:          true,
		ValidationWarnings: warnings,
	}, nil
}

// ValidateMappings applies the user's mappings without committing anything
// and reports stats, including whether a tray step is needed.
func (s *ImportService) ValidateMappings(ctx context.Context, table *tabular.Table, set MappingSet) (*PreviewV2Result, error) {
	if len(table.Rows) == 0 {
		return &PreviewV2Result{
			ValidationWarnings: []string{"File is empty or has no data rows"},
		}, nil
	}

	rows, _ := importing.Normalize(table.Rows, set.ColumnMappings, set.FieldGenerators)

	stats, err := s.computeStats(ctx, rows)
	if err != nil {
		return nil, err
	}

	canImport := false
	for _, row := range rows {
		if row.Has(importing.FieldRepositoryStockID) || row.Has(importing.FieldGenotype) {
			canImport = true
			break
		}
	}

	return &PreviewV2Result{
		Columns:            importing.BuildColumnInfos(table.Columns, head(table.Rows, 10)),
		AvailableFields:    importing.AvailableFields,
		RequiredFields:     importing.RequiredFieldsOneOf,
		TotalRows:          len(rows),
		SampleRows:         head(table.Rows, 10),
		CanImport:          canImport,
		TrayColumnMapped:   trayColumnMapped(set.ColumnMappings),
		Stats:              stats,
	}, nil
}

// Execute imports a file in one shot using automatic column detection.
func (s *ImportService) Execute(ctx context.Context, table *tabular.Table, cfg importing.Config) (*ExecuteResult, error) {
	mappings, _, _ := autoMappings(table.Columns)
	return s.executeSinglePhase(ctx, table, MappingSet{ColumnMappings: mappings, Config: cfg})
}

// ExecuteV2 imports a file in one shot using user-defined mappings.
func (s *ImportService) ExecuteV2(ctx context.Context, table *tabular.Table, set MappingSet) (*ExecuteResult, error) {
	return s.executeSinglePhase(ctx, table, set)
}

func (s *ImportService) executeSinglePhase(ctx context.Context, table *tabular.Table, set MappingSet) (*ExecuteResult, error) {
	if len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	rows, _ := importing.Normalize(table.Rows, set.ColumnMappings, set.FieldGenerators)

	if len(rows) > 0 {
		first := rows[0]
		if !first.Has(importing.FieldRepositoryStockID) && !first.Has(importing.FieldGenotype) {
			return nil, ErrMissingRequiredMapping
		}
	}

	var result *ExecuteResult
	err := composables.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.stocks.ExistingStockIDs(ctx)
		if err != nil {
			return err
		}
		validation := importing.ValidateRows(rows, existing, true, s.stockIDPrefix)
		if validation.ValidCount == 0 {
			return ErrNoValidRows.WithDetails(fmt.Sprintf("%d rows failed validation", validation.ErrorCount))
		}

		st := s.newCommitState(set, existing)
		for _, row := range validation.ValidRows {
			s.fetchRemoteForRow(ctx, st, row)
			if err := s.importStock(ctx, st, row); err != nil {
				return err
			}
		}

		result = &ExecuteResult{
			Message:         fmt.Sprintf("Successfully imported %d stocks", len(st.createdIDs)),
			ImportedCount:   len(st.createdIDs),
			StockIDs:        st.createdIDs,
			TraysCreated:    st.reportedTrays(),
			MetadataFetched: st.metadataFetched,
			Errors:          head(validation.Errors, 20),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCompleted(ctx, result.StockIDs, result.TraysCreated)
	return result, nil
}

// ExecutePhase1 commits clean rows and stages conflicting rows in a
// resolution session.
func (s *ImportService) ExecutePhase1(ctx context.Context, table *tabular.Table, set MappingSet) (*Phase1Result, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	if set.Config.DeleteAllBeforeImport {
		u, err := composables.UseUser(ctx)
		if err != nil {
			return nil, err
		}
		if !u.Role.IsAdmin() {
			return nil, ErrDeleteAllForbidden
		}
	}

	if len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	rows, _ := importing.Normalize(table.Rows, set.ColumnMappings, set.FieldGenerators)

	var result *Phase1Result
	err = composables.InTx(ctx, func(ctx context.Context) error {
		var deleted int64
		if set.Config.DeleteAllBeforeImport {
			deleted, err = s.stocks.DeleteAllHard(ctx)
			if err != nil {
				return err
			}
			composables.UseLogger(ctx).
				WithField("deleted", deleted).
				Info("hard-deleted all stocks before import")
		}

		existing, err := s.stocks.ExistingStockIDs(ctx)
		if err != nil {
			return err
		}

		st := s.newCommitState(set, existing)
		if set.Config.FetchMetadata {
			for i := range rows {
				s.fetchRemoteForRow(ctx, st, rows[i])
			}
		}

		matches := s.findRepositoryMatches(ctx, rows)

		dctx := importing.NewDetectionContext()
		dctx.ExistingStockIDs = existing
		dctx.RemoteMetadata = st.remote
		dctx.AllRows = rows
		dctx.RepositoryMatches = matches

		conflicting, err := s.detector.DetectAll(ctx, rows, table.Rows, dctx)
		if err != nil {
			return err
		}

		conflictingIdx := make(map[int]struct{}, len(conflicting))
		for _, cr := range conflicting {
			conflictingIdx[cr.RowIndex] = struct{}{}
		}

		var cleanRows []importing.NormalizedRow
		for i := range rows {
			rowIndex := i + 1
			if _, ok := conflictingIdx[rowIndex]; ok {
				continue
			}
			if !rows[i].Has(importing.FieldStockID) {
				rows[i].Set(importing.FieldStockID, importing.GenerateStockID(rows[i], rowIndex, s.stockIDPrefix))
			}
			cleanRows = append(cleanRows, rows[i])
		}

		validation := importing.ValidateRows(cleanRows, existing, false, s.stockIDPrefix)
		for _, row := range validation.ValidRows {
			if err := s.importStock(ctx, st, row); err != nil {
				return err
			}
		}

		summary := make(map[string]int)
		for _, cr := range conflicting {
			for _, c := range cr.Conflicts {
				summary[string(c.Type)]++
			}
		}

		sessionID := ""
		if len(conflicting) > 0 {
			sessionID = s.sessions.Create(tenantID.String(), conflicting, set.Config, set.ColumnMappings)
		}

		result = &Phase1Result{
			ImportedCount:    len(st.createdIDs),
			ImportedStockIDs: st.createdIDs,
			ConflictingRows:  conflicting,
			ConflictSummary:  summary,
			SessionID:        sessionID,
			TraysCreated:     st.reportedTrays(),
			MetadataFetched:  st.metadataFetched,
			DeletedCount:     deleted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCompleted(ctx, result.ImportedStockIDs, result.TraysCreated)
	return result, nil
}

// ExecutePhase2 applies the user's resolutions to the staged rows and
// finishes the import. The session is deleted whether or not every row
// succeeds.
func (s *ImportService) ExecutePhase2(ctx context.Context, sessionID string, resolutions []Resolution, trayResolutions []importing.TrayResolution) (*ExecuteResult, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sess, ok := s.sessions.Get(sessionID, tenantID.String())
	if !ok {
		return nil, ErrSessionNotFound
	}
	defer s.sessions.Delete(sessionID)

	set := MappingSet{
		ColumnMappings:  sess.ColumnMappings,
		Config:          sess.Config,
		TrayResolutions: trayResolutions,
	}
	byRow := make(map[int]Resolution, len(resolutions))
	for _, r := range resolutions {
		byRow[r.RowIndex] = r
	}

	var result *ExecuteResult
	err = composables.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.stocks.ExistingStockIDs(ctx)
		if err != nil {
			return err
		}
		st := s.newCommitState(set, existing)

		skipped := 0
		var rowErrors []importing.RowError

		for _, cr := range sess.ConflictingRows {
			resolution, ok := byRow[cr.RowIndex]
			if !ok || resolution.Action == ResolutionSkip {
				skipped++
				continue
			}
			row := cr.TransformedRow.Clone()

			switch resolution.Action {
			case ResolutionUseValue, ResolutionManual:
			default:
				rowErrors = append(rowErrors, importing.RowError{
					Row:    cr.RowIndex,
					Data:   row,
					Errors: []string{fmt.Sprintf("Unknown resolution action: %s", resolution.Action)},
				})
				continue
			}

			applyResolution(&row, resolution)

			if !row.Has(importing.FieldStockID) {
				row.Set(importing.FieldStockID, importing.GenerateStockID(row, cr.RowIndex, s.stockIDPrefix))
			}

			stockID := row.Get(importing.FieldStockID)
			if _, exists := st.existing[stockID]; exists {
				rowErrors = append(rowErrors, importing.RowError{
					Row:    cr.RowIndex,
					Data:   row,
					Errors: []string{fmt.Sprintf("Stock ID '%s' already exists", stockID)},
				})
				continue
			}
			if missing := row.ValidateRequired(); len(missing) > 0 {
				rowErrors = append(rowErrors, importing.RowError{
					Row:    cr.RowIndex,
					Data:   row,
					Errors: missing,
				})
				continue
			}

			if err := s.importStock(ctx, st, row); err != nil {
				return err
			}
		}

		message := fmt.Sprintf("Imported %d stocks", len(st.createdIDs))
		if skipped > 0 {
			message += fmt.Sprintf(", skipped %d", skipped)
		}
		result = &ExecuteResult{
			Message:       message,
			ImportedCount: len(st.createdIDs),
			StockIDs:      st.createdIDs,
			SkippedCount:  skipped,
			TraysCreated:  st.reportedTrays(),
			Errors:        head(rowErrors, 20),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCompleted(ctx, result.StockIDs, result.TraysCreated)
	return result, nil
}

// applyResolution mutates the row per the user's decision: flags append,
// field values overwrite.
func applyResolution(row *importing.NormalizedRow, r Resolution) {
	if r.FlagNote != "" {
		notes := row.Get(importing.FieldNotes)
		if notes != "" {
			notes += "\n\n" + r.FlagNote
		} else {
			notes = r.FlagNote
		}
		row.Set(importing.FieldNotes, notes)
	}
	if r.FlagTag != "" {
		tags := row.Get(importing.FieldTags)
		if tags != "" {
			tags += "," + r.FlagTag
		} else {
			tags = r.FlagTag
		}
		row.Set(importing.FieldTags, tags)
	}
	for field, value := range r.FieldValues {
		row.Set(field, value)
	}
}

// commitState carries the caches shared by every row of one commit.
type commitState struct {
	cfg              importing.Config
	trayColumnMapped bool
	trayResolutions  map[string]importing.TrayResolution
	trayCache        map[string]*tray.Tray
	traysCreated     []string
	remote           map[string]importing.RemoteRecord
	metadataFetched  int
	existing         map[string]struct{}
	createdIDs       []string
}

func (s *ImportService) newCommitState(set MappingSet, existing map[string]struct{}) *commitState {
	trayResolutions := make(map[string]importing.TrayResolution, len(set.TrayResolutions))
	for _, tr := range set.TrayResolutions {
		trayResolutions[tr.TrayName] = tr
	}
	return &commitState{
		cfg:              set.Config,
		trayColumnMapped: trayColumnMapped(set.ColumnMappings),
		trayResolutions:  trayResolutions,
		trayCache:        make(map[string]*tray.Tray),
		remote:           make(map[string]importing.RemoteRecord),
		existing:         existing,
		createdIDs:       []string{},
	}
}

func (st *commitState) reportedTrays() []string {
	if !st.cfg.AutoCreateTrays {
		return []string{}
	}
	if st.traysCreated == nil {
		return []string{}
	}
	return st.traysCreated
}

// fetchRemoteForRow looks the row's repository stock id up, caching per id.
// A successful fetch fixes the row's repository and origin.
func (s *ImportService) fetchRemoteForRow(ctx context.Context, st *commitState, row importing.NormalizedRow) {
	if !st.cfg.FetchMetadata {
		return
	}
	repoStockID := row.Get(importing.FieldRepositoryStockID)
	if repoStockID == "" {
		return
	}

	record, cached := st.remote[repoStockID]
	if !cached {
		remote, err := s.lookup.LookupByID(ctx, repoStockID, row.Get(importing.FieldRepository))
		if err != nil {
			composables.UseLogger(ctx).
				WithError(err).
				WithField("repository_stock_id", repoStockID).
				Warn("failed to fetch repository metadata")
			return
		}
		if remote == nil {
			return
		}
		record = importing.RemoteRecord{Genotype: remote.Genotype, Metadata: remote.Metadata}
		st.remote[repoStockID] = record
	}

	if repo := record.Metadata["repository"]; repo != "" {
		row.Set(importing.FieldRepository, repo)
	}
	row.Set(importing.FieldOrigin, "repository")
}

// findRepositoryMatches searches the catalogs for genotype matches of rows
// not already identified as repository stocks.
func (s *ImportService) findRepositoryMatches(ctx context.Context, rows []importing.NormalizedRow) map[int][]importing.RepositoryMatch {
	matches := make(map[int][]importing.RepositoryMatch)
	for i, row := range rows {
		if strings.EqualFold(row.Get(importing.FieldOrigin), "repository") {
			continue
		}
		if row.Has(importing.FieldRepositoryStockID) {
			continue
		}
		genotype := row.Get(importing.FieldGenotype)
		if genotype == "" {
			continue
		}
		found, err := s.lookup.FindByGenotype(ctx, genotype, 5)
		if err != nil {
			composables.UseLogger(ctx).
				WithError(err).
				Warn("failed to search repositories for genotype matches")
			continue
		}
		if len(found) == 0 {
			continue
		}
		rowMatches := make([]importing.RepositoryMatch, 0, len(found))
		for _, m := range found {
			rowMatches = append(rowMatches, importing.RepositoryMatch{
				Repository: m.Repository,
				StockID:    m.ExternalID,
				Genotype:   m.Genotype,
				Metadata:   m.Metadata,
			})
		}
		matches[i+1] = rowMatches
	}
	return matches
}

// importStock persists one validated row.
func (s *ImportService) importStock(ctx context.Context, st *commitState, row importing.NormalizedRow) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return err
	}

	tagNames := importing.ParseTags(row.Get(importing.FieldTags))
	for _, name := range tagNames {
		if _, err := s.tags.GetOrCreate(ctx, name); err != nil {
			return err
		}
	}

	repoStockID := row.Get(importing.FieldRepositoryStockID)
	record, hasRemote := st.remote[repoStockID]

	var origin stock.Origin
	var repository stock.Center
	if hasRemote {
		origin = stock.OriginRepository
		repository = stock.ParseCenter(record.Metadata["repository"])
	} else {
		origin = parseOrigin(row.Get(importing.FieldOrigin))
		if origin == stock.OriginRepository {
			repository = stock.ParseCenter(row.Get(importing.FieldRepository))
		}
	}

	var trayID *int64
	if name := row.Get(importing.FieldTrayName); name != "" && st.trayColumnMapped {
		t, err := s.getOrCreateTray(ctx, st, name)
		if err != nil {
			return err
		}
		if t != nil {
			trayID = &t.ID
		}
	}

	metadata := make(map[string]string)
	if hasRemote {
		for k, v := range record.Metadata {
			metadata[k] = v
		}
		metadata["genotype"] = record.Genotype
		st.metadataFetched++
	}
	for k, v := range row.UserMetadata {
		metadata[k] = v
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	opts := []stock.Option{
		stock.WithTenantID(tenantID),
		stock.WithOrigin(origin),
		stock.WithExternalSource(row.Get(importing.FieldExternalSource)),
		stock.WithNotes(row.Get(importing.FieldNotes)),
		stock.WithTags(tagNames),
		stock.WithTray(trayID, row.Get(importing.FieldPosition)),
		stock.WithMetadata(metadata),
		stock.WithCreatedByID(u.ID),
	}
	if repository != "" {
		opts = append(opts, stock.WithRepository(repository, repoStockID))
	}

	stockID := row.Get(importing.FieldStockID)
	created, err := s.stocks.Create(ctx, stock.New(stockID, row.Get(importing.FieldGenotype), opts...))
	if err != nil {
		return err
	}

	st.existing[created.StockID()] = struct{}{}
	st.createdIDs = append(st.createdIDs, created.StockID())
	return nil
}

func (s *ImportService) getOrCreateTray(ctx context.Context, st *commitState, name string) (*tray.Tray, error) {
	if t, ok := st.trayCache[name]; ok {
		return t, nil
	}

	resolution, hasResolution := st.trayResolutions[name]

	existing, err := s.trays.GetByName(ctx, name)
	if err != nil && err != tray.ErrTrayNotFound {
		return nil, err
	}

	if existing != nil {
		if hasResolution {
			switch resolution.Action {
			case "skip":
				return nil, nil
			case "create_new":
				if resolution.NewName != "" {
					return s.createTray(ctx, st, resolution.NewName)
				}
			}
		}
		st.trayCache[name] = existing
		return existing, nil
	}

	if !st.cfg.AutoCreateTrays {
		return nil, nil
	}
	return s.createTray(ctx, st, name)
}

func (s *ImportService) createTray(ctx context.Context, st *commitState, name string) (*tray.Tray, error) {
	if t, ok := st.trayCache[name]; ok {
		return t, nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.trays.Create(ctx, &tray.Tray{
		TenantID:     tenantID,
		Name:         name,
		TrayType:     tray.ParseType(st.cfg.DefaultTrayType),
		MaxPositions: st.cfg.DefaultTrayMaxPositions,
	})
	if err != nil {
		return nil, err
	}
	st.trayCache[name] = created
	st.traysCreated = append(st.traysCreated, name)
	return created, nil
}

func (s *ImportService) computeStats(ctx context.Context, rows []importing.NormalizedRow) (*ImportStats, error) {
	stats := &ImportStats{
		TotalRows:            len(rows),
		RepositoriesDetected: make(map[string]int),
		TraysToCreate:        []string{},
		ExistingTrays:        []string{},
	}

	trayNames := make(map[string]struct{})
	for _, row := range rows {
		switch row.Get(importing.FieldOrigin) {
		case "repository":
			stats.RepositoryCount++
			repo := row.Get(importing.FieldRepository)
			if repo == "" {
				repo = "unknown"
			}
			stats.RepositoriesDetected[repo]++
		case "external":
			stats.ExternalCount++
		default:
			stats.InternalCount++
		}
		if name := row.Get(importing.FieldTrayName); name != "" {
			trayNames[name] = struct{}{}
		}
	}

	if len(trayNames) > 0 {
		names := make([]string, 0, len(trayNames))
		for name := range trayNames {
			names = append(names, name)
		}
		existing, err := s.trays.ExistingNames(ctx, names)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, ok := existing[name]; ok {
				stats.ExistingTrays = append(stats.ExistingTrays, name)
			} else {
				stats.TraysToCreate = append(stats.TraysToCreate, name)
			}
		}
		sort.Strings(stats.ExistingTrays)
		sort.Strings(stats.TraysToCreate)
	}

	return stats, nil
}

func (s *ImportService) publishCompleted(ctx context.Context, stockIDs, traysCreated []string) {
	if s.publisher == nil || len(stockIDs) == 0 {
		return
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return
	}
	s.publisher.Publish(ImportCompletedEvent{
		TenantID:      tenantID,
		UserID:        u.ID,
		ImportedCount: len(stockIDs),
		StockIDs:      stockIDs,
		TraysCreated:  traysCreated,
	})
}

// autoMappings builds column mappings from auto-detected column names and
// returns the unmapped columns and which column supplied each field.
func autoMappings(columns []string) ([]importing.ColumnMapping, []string, map[importing.Field]string) {
	var mappings []importing.ColumnMapping
	var unmapped []string
	detected := make(map[importing.Field]string)

	for _, col := range columns {
		field := importing.AutoDetectColumn(col)
		if field == "" {
			unmapped = append(unmapped, col)
			continue
		}
		mappings = append(mappings, importing.ColumnMapping{ColumnName: col, TargetField: field})
		if _, ok := detected[field]; !ok {
			detected[field] = col
		}
	}
	return mappings, unmapped, detected
}

func trayColumnMapped(mappings []importing.ColumnMapping) bool {
	for _, m := range mappings {
		if m.TargetField == importing.FieldTrayName {
			return true
		}
	}
	return false
}

func parseOrigin(origin string) stock.Origin {
	switch strings.ToLower(origin) {
	case "repository":
		return stock.OriginRepository
	case "external":
		return stock.OriginExternal
	}
	return stock.OriginInternal
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
