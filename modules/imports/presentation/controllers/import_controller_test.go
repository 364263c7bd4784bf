package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/flybase"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/session"
	"github.com/flyroom/flyroom/modules/imports/services"
	"github.com/flyroom/flyroom/modules/stocks/infrastructure/persistence/inmemory"
	stockservices "github.com/flyroom/flyroom/modules/stocks/services"
	"github.com/flyroom/flyroom/pkg/eventbus"
	"github.com/flyroom/flyroom/pkg/middleware"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	bus := eventbus.NewEventPublisher(log)
	svc := services.NewImportService(
		stockservices.NewStockService(inmemory.NewStockRepository(), bus),
		inmemory.NewTagRepository(),
		inmemory.NewTrayRepository(),
		flybase.NewOfflineCatalog(),
		session.NewStore(30*time.Minute),
		importing.NewDetector(false),
		bus,
		"IMP",
	)

	router := mux.NewRouter()
	router.Use(middleware.ProvideIdentity())
	NewImportController(svc, 1<<20).Register(router)
	return router
}

func identify(req *http.Request) {
	req.Header.Set("X-Tenant-ID", uuid.NewString())
	req.Header.Set("X-User-ID", uuid.NewString())
	req.Header.Set("X-User-Email", "importer@example.com")
	req.Header.Set("X-User-Role", "member")
}

func uploadRequest(t *testing.T, url, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	identify(req)
	return req
}

func TestImportController_Template(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/imports/template?template_type=repository", nil)
	identify(req)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "flyroom_import_template_repository.csv")
	assert.Contains(t, rec.Body.String(), "repository_stock_id")
}

func TestImportController_TemplateUnknownTypeFallsBack(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/imports/template?template_type=bogus", nil)
	identify(req)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "flyroom_import_template_basic.csv")
}

func TestImportController_MissingIdentity(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/imports/template", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestImportController_Preview(t *testing.T) {
	router := newTestRouter(t)

	csv := "stock_id,genotype\nLAB-001,w[1118]\n"
	req := uploadRequest(t, "/imports/preview", "stocks.csv", csv, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result services.PreviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.CanImport)
	assert.Equal(t, "stock_id", result.ColumnsDetected["stock_id"])
}

func TestImportController_UnsupportedFile(t *testing.T) {
	router := newTestRouter(t)

	req := uploadRequest(t, "/imports/preview", "stocks.pdf", "not a table", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "IMPORT_UNSUPPORTED_FILE", apiErr.Code)
}

func TestImportController_ExecuteV2(t *testing.T) {
	router := newTestRouter(t)

	csv := "BDSC#,Genotype\n3605,\"w[1118]; Dr[1]/TM3, Sb[1]\"\n"
	mappings := `{
		"column_mappings": [
			{"column_name": "BDSC#", "target_field": "repository_stock_id"},
			{"column_name": "Genotype", "target_field": "genotype"}
		],
		"config": {}
	}`
	req := uploadRequest(t, "/imports/execute-v2", "stocks.csv", csv, map[string]string{
		"mappings_json": mappings,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result services.ExecuteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.ImportedCount)
	assert.Equal(t, []string{"BDSC-3605"}, result.StockIDs)
	assert.Equal(t, 1, result.MetadataFetched)
}

func TestImportController_ExecuteV2InvalidMappingsJSON(t *testing.T) {
	router := newTestRouter(t)

	req := uploadRequest(t, "/imports/execute-v2", "stocks.csv", "genotype\nw[1118]\n", map[string]string{
		"mappings_json": "{not json",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportController_Phase2SessionNotFound(t *testing.T) {
	router := newTestRouter(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("request_json", `{"session_id": "nope", "resolutions": []}`))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/imports/execute-v2-phase2", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	identify(req)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "IMPORT_SESSION_NOT_FOUND", apiErr.Code)
}
