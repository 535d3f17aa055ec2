package v1

import (
	"errors"

	"github.com/nulzo/model-registry-api/internal/registry"
	"github.com/nulzo/model-registry-api/pkg/api"
)

// problemFromDomain translates service outcomes into problem documents.
// Natural-key conflicts surface as 400, matching the create pre-checks.
func problemFromDomain(err error) *api.Problem {
	switch {
	case errors.Is(err, registry.ErrProviderNotFound):
		return api.NotFoundError("Model provider not found")
	case errors.Is(err, registry.ErrModelNotFound):
		return api.NotFoundError("Model not found")
	case errors.Is(err, registry.ErrModelNotOwned):
		return api.NotFoundError("Model not found for this provider")
	case errors.Is(err, registry.ErrProviderNameTaken):
		return api.BadRequestError("Model provider with this name already exists")
	case errors.Is(err, registry.ErrModelNameTaken):
		return api.BadRequestError("Model with this name already exists for this provider")
	}
	return api.InternalError("An unexpected error occurred", err)
}
