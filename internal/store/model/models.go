package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nulzo/model-registry-api/pkg/optional"
)

// ModelProvider is a registered external vendor of AI models. The record is
// metadata only: the registry never calls the provider's API, and
// APIKeyEnvVar names where a credential lives, never the credential itself.
type ModelProvider struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Description  *string   `db:"description" json:"description"`
	APIBaseURL   *string   `db:"api_base_url" json:"api_base_url"`
	APIKeyEnvVar *string   `db:"api_key_env_var" json:"api_key_env_var"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Model is a specific model offered by a provider. (Name, ProviderID) is
// unique; the same model name may exist under different providers.
type Model struct {
	ID                string    `db:"id" json:"id"`
	ProviderID        string    `db:"provider_id" json:"provider_id"`
	Name              string    `db:"name" json:"name"`
	DisplayName       string    `db:"display_name" json:"display_name"`
	Description       *string   `db:"description" json:"description"`
	ModelType         string    `db:"model_type" json:"model_type"` // e.g. chat, embedding
	ContextWindow     *int      `db:"context_window" json:"context_window"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	DefaultParameters JSONMap   `db:"default_parameters" json:"default_parameters"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ModelProviderWithModels is a read-only projection of a provider plus its
// models at the time of the query. Never persisted.
type ModelProviderWithModels struct {
	ModelProvider
	Models []Model `json:"models"`
}

// ProviderPatch carries the fields of a partial provider update. Absent keys
// leave the stored value untouched; explicit null clears the optional fields.
type ProviderPatch struct {
	Name         optional.Value[string] `json:"name"`
	DisplayName  optional.Value[string] `json:"display_name"`
	Description  optional.Value[string] `json:"description"`
	APIBaseURL   optional.Value[string] `json:"api_base_url"`
	APIKeyEnvVar optional.Value[string] `json:"api_key_env_var"`
	IsActive     optional.Value[bool]   `json:"is_active"`
}

// ModelPatch carries the fields of a partial model update.
type ModelPatch struct {
	Name              optional.Value[string]  `json:"name"`
	DisplayName       optional.Value[string]  `json:"display_name"`
	Description       optional.Value[string]  `json:"description"`
	ModelType         optional.Value[string]  `json:"model_type"`
	ContextWindow     optional.Value[int]     `json:"context_window"`
	IsActive          optional.Value[bool]    `json:"is_active"`
	DefaultParameters optional.Value[JSONMap] `json:"default_parameters"`
}

// JSONMap stores an open-ended parameter document as a JSON text column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		if len(v) == 0 {
			*m = JSONMap{}
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		if v == "" {
			*m = JSONMap{}
			return nil
		}
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", src)
	}
}

// MarshalJSON renders a nil map as {} so the API never emits null for
// default_parameters.
func (m JSONMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(m))
}
