package dtos

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/flyroom/flyroom/modules/imports/domain/importing"
	"github.com/flyroom/flyroom/modules/imports/services"
	"github.com/flyroom/flyroom/pkg/constants"
)

// APIError is the JSON error envelope.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type ColumnMappingDTO struct {
	ColumnName  string `json:"column_name" validate:"required"`
	TargetField string `json:"target_field" validate:"required"`
	CustomKey   string `json:"custom_key,omitempty"`
}

type FieldGeneratorDTO struct {
	TargetField string `json:"target_field" validate:"required"`
	Pattern     string `json:"pattern" validate:"required"`
}

// ImportConfigDTO uses pointers for the booleans that default to true so an
// absent key keeps the default.
type ImportConfigDTO struct {
	FetchMetadata           *bool  `json:"fetch_metadata"`
	AutoCreateTrays         *bool  `json:"auto_create_trays"`
	DefaultTrayType         string `json:"default_tray_type" validate:"omitempty,oneof=numeric grid custom"`
	DefaultTrayMaxPositions int    `json:"default_tray_max_positions" validate:"omitempty,gt=0"`
	DeleteAllBeforeImport   bool   `json:"delete_all_before_import"`
}

type TrayResolutionDTO struct {
	TrayName string `json:"tray_name" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=use_existing create_new skip"`
	NewName  string `json:"new_name,omitempty"`
}

// ExecuteV2Request is the mappings_json payload of the v2 endpoints.
type ExecuteV2Request struct {
	ColumnMappings  []ColumnMappingDTO  `json:"column_mappings" validate:"dive"`
	FieldGenerators []FieldGeneratorDTO `json:"field_generators" validate:"omitempty,dive"`
	Config          ImportConfigDTO     `json:"config"`
	TrayResolutions []TrayResolutionDTO `json:"tray_resolutions" validate:"omitempty,dive"`
}

func (r *ExecuteV2Request) Ok() (map[string]string, bool) {
	return validateStruct(r)
}

func (r *ExecuteV2Request) ToMappingSet() services.MappingSet {
	set := services.MappingSet{Config: r.Config.ToConfig()}
	for _, m := range r.ColumnMappings {
		set.ColumnMappings = append(set.ColumnMappings, importing.ColumnMapping{
			ColumnName:  m.ColumnName,
			TargetField: importing.Field(m.TargetField),
			CustomKey:   m.CustomKey,
		})
	}
	for _, g := range r.FieldGenerators {
		set.FieldGenerators = append(set.FieldGenerators, importing.FieldGenerator{
			TargetField: importing.Field(g.TargetField),
			Pattern:     g.Pattern,
		})
	}
	for _, tr := range r.TrayResolutions {
		set.TrayResolutions = append(set.TrayResolutions, importing.TrayResolution{
			TrayName: tr.TrayName,
			Action:   tr.Action,
			NewName:  tr.NewName,
		})
	}
	return set
}

func (c ImportConfigDTO) ToConfig() importing.Config {
	cfg := importing.DefaultConfig()
	if c.FetchMetadata != nil {
		cfg.FetchMetadata = *c.FetchMetadata
	}
	if c.AutoCreateTrays != nil {
		cfg.AutoCreateTrays = *c.AutoCreateTrays
	}
	if c.DefaultTrayType != "" {
		cfg.DefaultTrayType = c.DefaultTrayType
	}
	if c.DefaultTrayMaxPositions > 0 {
		cfg.DefaultTrayMaxPositions = c.DefaultTrayMaxPositions
	}
	cfg.DeleteAllBeforeImport = c.DeleteAllBeforeImport
	return cfg
}

type ResolutionDTO struct {
	RowIndex int `json:"row_index" validate:"required,gt=0"`
	// Action defaults to skip when empty. Unknown actions are rejected
	// per row during phase 2, not here.
	Action      string            `json:"action"`
	FieldValues map[string]string `json:"field_values"`
}

// ToDomain folds the wire shape into the resolution union: the magic
// _flag_note/_flag_tag keys become flags, remaining underscore keys are UI
// state and are dropped.
func (r ResolutionDTO) ToDomain() services.Resolution {
	res := services.Resolution{
		RowIndex: r.RowIndex,
		Action:   services.ResolutionAction(r.Action),
	}
	if r.Action == "" {
		res.Action = services.ResolutionSkip
	}
	for key, value := range r.FieldValues {
		switch {
		case key == "_flag_note":
			res.FlagNote = value
		case key == "_flag_tag":
			res.FlagTag = value
		case strings.HasPrefix(key, "_"):
			continue
		default:
			if res.FieldValues == nil {
				res.FieldValues = make(map[importing.Field]string)
			}
			res.FieldValues[importing.Field(key)] = value
		}
	}
	return res
}

// Phase2Request is the request_json payload of phase 2.
type Phase2Request struct {
	SessionID       string              `json:"session_id" validate:"required"`
	Resolutions     []ResolutionDTO     `json:"resolutions" validate:"omitempty,dive"`
	TrayResolutions []TrayResolutionDTO `json:"tray_resolutions" validate:"omitempty,dive"`
}

func (r *Phase2Request) Ok() (map[string]string, bool) {
	return validateStruct(r)
}

func (r *Phase2Request) DomainResolutions() []services.Resolution {
	resolutions := make([]services.Resolution, 0, len(r.Resolutions))
	for _, res := range r.Resolutions {
		resolutions = append(resolutions, res.ToDomain())
	}
	return resolutions
}

func (r *Phase2Request) DomainTrayResolutions() []importing.TrayResolution {
	trayResolutions := make([]importing.TrayResolution, 0, len(r.TrayResolutions))
	for _, tr := range r.TrayResolutions {
		trayResolutions = append(trayResolutions, importing.TrayResolution{
			TrayName: tr.TrayName,
			Action:   tr.Action,
			NewName:  tr.NewName,
		})
	}
	return trayResolutions
}

func validateStruct(v interface{}) (map[string]string, bool) {
	errs := constants.Validate.Struct(v)
	if errs == nil {
		return nil, true
	}
	errorMessages := map[string]string{}
	for _, err := range errs.(validator.ValidationErrors) {
		errorMessages[err.Field()] = err.Tag()
	}
	return errorMessages, false
}
