package api

import "github.com/nulzo/model-registry-api/internal/store/model"

// CreateProviderRequest is the payload for registering a model provider.
// APIKeyEnvVar names an environment variable; the credential itself is never
// sent to or stored by the registry.
type CreateProviderRequest struct {
	Name         string  `json:"name" binding:"required"`
	DisplayName  string  `json:"display_name" binding:"required"`
	Description  *string `json:"description"`
	APIBaseURL   *string `json:"api_base_url"`
	APIKeyEnvVar *string `json:"api_key_env_var"`
	IsActive     *bool   `json:"is_active"`
}

// Provider builds the entity to persist. is_active defaults to true when
// omitted.
func (r CreateProviderRequest) Provider() *model.ModelProvider {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &model.ModelProvider{
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		APIBaseURL:   r.APIBaseURL,
		APIKeyEnvVar: r.APIKeyEnvVar,
		IsActive:     active,
	}
}

// CreateModelRequest is the payload for registering a model under a
// provider. ProviderID must match the provider named in the request path.
type CreateModelRequest struct {
	ProviderID        string        `json:"provider_id" binding:"required,uuid"`
	Name              string        `json:"name" binding:"required"`
	DisplayName       string        `json:"display_name" binding:"required"`
	Description       *string       `json:"description"`
	ModelType         string        `json:"model_type" binding:"required"`
	ContextWindow     *int          `json:"context_window"`
	IsActive          *bool         `json:"is_active"`
	DefaultParameters model.JSONMap `json:"default_parameters"`
}

func (r CreateModelRequest) Model() *model.Model {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	params := r.DefaultParameters
	if params == nil {
		params = model.JSONMap{}
	}
	return &model.Model{
		ProviderID:        r.ProviderID,
		Name:              r.Name,
		DisplayName:       r.DisplayName,
		Description:       r.Description,
		ModelType:         r.ModelType,
		ContextWindow:     r.ContextWindow,
		IsActive:          active,
		DefaultParameters: params,
	}
}

// ListQuery carries the shared pagination parameters.
type ListQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=1,max=1000"`
}

// ProviderListQuery adds the provider-only active filter.
type ProviderListQuery struct {
	ListQuery
	ActiveOnly bool `form:"active_only,default=false"`
}
