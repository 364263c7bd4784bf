package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
	"github.com/flyroom/flyroom/modules/imports/infrastructure/tabular"
	"github.com/flyroom/flyroom/modules/imports/presentation/controllers/dtos"
	"github.com/flyroom/flyroom/modules/imports/services"
	"github.com/flyroom/flyroom/pkg/composables"
	"github.com/flyroom/flyroom/pkg/serrors"
)

// ImportController exposes the stock import pipeline over HTTP. Uploads are
// multipart; structured arguments travel in JSON-encoded form fields next to
// the file.
type ImportController struct {
	service      *services.ImportService
	basePath     string
	maxFileBytes int64
}

func NewImportController(service *services.ImportService, maxFileBytes int64) *ImportController {
	return &ImportController{
		service:      service,
		basePath:     "/imports",
		maxFileBytes: maxFileBytes,
	}
}

func (c *ImportController) Key() string {
	return c.basePath
}

func (c *ImportController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()

	router.HandleFunc("/template", c.downloadTemplate).Methods(http.MethodGet)
	router.HandleFunc("/preview", c.preview).Methods(http.MethodPost)
	router.HandleFunc("/validate", c.validate).Methods(http.MethodPost)
	router.HandleFunc("/execute", c.execute).Methods(http.MethodPost)
	router.HandleFunc("/preview-v2", c.previewV2).Methods(http.MethodPost)
	router.HandleFunc("/validate-mappings", c.validateMappings).Methods(http.MethodPost)
	router.HandleFunc("/execute-v2", c.executeV2).Methods(http.MethodPost)
	router.HandleFunc("/execute-v2-phase1", c.executePhase1).Methods(http.MethodPost)
	router.HandleFunc("/execute-v2-phase2", c.executePhase2).Methods(http.MethodPost)
}

func (c *ImportController) downloadTemplate(w http.ResponseWriter, r *http.Request) {
	templateType := r.URL.Query().Get("template_type")
	switch templateType {
	case tabular.TemplateBasic, tabular.TemplateRepository, tabular.TemplateFull:
	default:
		templateType = tabular.TemplateBasic
	}

	content := tabular.GenerateCSVTemplate(templateType)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=flyroom_import_template_%s.csv", templateType))
	_, _ = w.Write([]byte(content))
}

func (c *ImportController) preview(w http.ResponseWriter, r *http.Request) {
	table, ok := c.parseUpload(w, r)
	if !ok {
		return
	}
	result, err := c.service.Preview(r.Context(), table)
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ImportController) validate(w http.ResponseWriter, r *http.Request) {
	table, ok := c.parseUpload(w, r)
	if !ok {
		return
	}
	result, err := c.service.Validate(r.Context(), table)
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ImportController) execute(w http.ResponseWriter, r *http.Request) {
	table, ok := c.parseUpload(w, r)
	if !ok {
		return
	}
	cfg := importConfigFromForm(r)
	result, err := c.service.Execute(r.Context(), table, cfg)
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ImportController) previewV2(w http.ResponseWriter, r *http.Request) {
	table, ok := c.parseUpload(w, r)
	if !ok {
		return
	}
	result, err := c.service.PreviewV2(r.Context(), table)
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ImportController) validateMappings(w http.ResponseWriter, r *http.Request) {
	table, set, ok := c.parseUploadWithMappings(w, r)
	if !ok {
		return
	}
	result, err := c.service.ValidateMappings(r.Context(), table, set)
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ImportController) executeV2(w http.ResponseWriter, r *http.Request) {
	table, set, ok := c.parseUploadWithMappings(w, r)
	if !ok {
		return
	}
	result, err := c.service.ExecuteV2(r.Context(), table, set)
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ImportController) executePhase1(w http.ResponseWriter, r *http.Request) {
	table, set, ok := c.parseUploadWithMappings(w, r)
	if !ok {
		return
	}
	result, err := c.service.ExecutePhase1(r.Context(), table, set)
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *ImportController) executePhase2(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(c.maxFileBytes); err != nil {
		// The phase 2 request carries no file; accept a plain form too.
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "IMPORT_INVALID_MAPPINGS", "unable to parse request")
			return
		}
	}

	var req dtos.Phase2Request
	if err := json.Unmarshal([]byte(r.FormValue("request_json")), &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "IMPORT_INVALID_MAPPINGS", fmt.Sprintf("Invalid JSON: %v", err))
		return
	}
	if fields, ok := req.Ok(); !ok {
		writeJSONError(w, http.StatusBadRequest, "IMPORT_INVALID_MAPPINGS", "invalid request", fields)
		return
	}

	result, err := c.service.ExecutePhase2(
		r.Context(), req.SessionID, req.DomainResolutions(), req.DomainTrayResolutions())
	if err != nil {
		c.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseUpload reads the multipart "file" field into a table. On failure it
// has already written the error response.
func (c *ImportController) parseUpload(w http.ResponseWriter, r *http.Request) (*tabular.Table, bool) {
	if err := r.ParseMultipartForm(c.maxFileBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "IMPORT_UNSUPPORTED_FILE", "unable to parse multipart form")
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "IMPORT_UNSUPPORTED_FILE", "missing file upload")
		return nil, false
	}
	defer file.Close()

	table, err := tabular.Parse(header.Filename, file)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) {
			writeJSONError(w, http.StatusBadRequest, "IMPORT_UNSUPPORTED_FILE",
				"Unsupported file format. Use CSV or Excel (.xlsx)")
			return nil, false
		}
		writeJSONError(w, http.StatusBadRequest, "IMPORT_UNSUPPORTED_FILE", err.Error())
		return nil, false
	}
	return table, true
}

func (c *ImportController) parseUploadWithMappings(w http.ResponseWriter, r *http.Request) (*tabular.Table, services.MappingSet, bool) {
	table, ok := c.parseUpload(w, r)
	if !ok {
		return nil, services.MappingSet{}, false
	}

	var req dtos.ExecuteV2Request
	if err := json.Unmarshal([]byte(r.FormValue("mappings_json")), &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "IMPORT_INVALID_MAPPINGS",
			fmt.Sprintf("Invalid JSON in mappings: %v", err))
		return nil, services.MappingSet{}, false
	}
	if fields, ok := req.Ok(); !ok {
		writeJSONError(w, http.StatusBadRequest, "IMPORT_INVALID_MAPPINGS", "invalid mappings", fields)
		return nil, services.MappingSet{}, false
	}
	return table, req.ToMappingSet(), true
}

func importConfigFromForm(r *http.Request) importing.Config {
	cfg := importing.DefaultConfig()
	if v := r.FormValue("fetch_metadata"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.FetchMetadata = parsed
		}
	}
	if v := r.FormValue("auto_create_trays"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.AutoCreateTrays = parsed
		}
	}
	return cfg
}

func (c *ImportController) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var base *serrors.Base
	if errors.As(err, &base) {
		writeJSONError(w, statusForCode(base.Code), base.Code, base.Message)
		return
	}
	if errors.Is(err, composables.ErrNoTenantID) || errors.Is(err, composables.ErrNoUser) {
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	composables.UseLogger(r.Context()).WithError(err).Error("import request failed")
	writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}

func statusForCode(code string) int {
	switch code {
	case "IMPORT_SESSION_NOT_FOUND":
		return http.StatusNotFound
	case "IMPORT_FORBIDDEN":
		return http.StatusForbidden
	case "IMPORT_EMPTY_FILE", "IMPORT_INVALID_MAPPINGS", "IMPORT_NO_VALID_ROWS", "IMPORT_UNSUPPORTED_FILE":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
