package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nulzo/model-registry-api/internal/registry"
	"github.com/nulzo/model-registry-api/internal/server/validator"
	"github.com/nulzo/model-registry-api/internal/store/model"
	"github.com/nulzo/model-registry-api/pkg/api"
)

type ProviderHandler struct {
	service *registry.Service
}

func NewProviderHandler(service *registry.Service) *ProviderHandler {
	return &ProviderHandler{service: service}
}

func providerID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = c.Error(api.BadRequestError("Invalid provider ID"))
		return "", false
	}
	return id, true
}

// List returns all providers.
//
// GET /model-providers?skip=0&limit=100&active_only=false
func (h *ProviderHandler) List(c *gin.Context) {
	var q api.ProviderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	providers, err := h.service.ListProviders(c.Request.Context(), q.Skip, q.Limit, q.ActiveOnly)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to list model providers", err))
		return
	}

	c.JSON(http.StatusOK, providers)
}

// ListWithModels returns provider composites, each with its full model list.
//
// GET /model-providers/with-models
func (h *ProviderHandler) ListWithModels(c *gin.Context) {
	var q api.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	composites, err := h.service.ListProvidersWithModels(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to list model providers with models", err))
		return
	}

	c.JSON(http.StatusOK, composites)
}

// Create registers a new provider. The provider name is the natural key and
// must not already be taken.
//
// POST /model-providers
func (h *ProviderHandler) Create(c *gin.Context) {
	var req api.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	created, err := h.service.CreateProvider(c.Request.Context(), req.Provider())
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get returns a provider by ID.
//
// GET /model-providers/:id
func (h *ProviderHandler) Get(c *gin.Context) {
	id, ok := providerID(c)
	if !ok {
		return
	}

	provider, err := h.service.GetProvider(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, provider)
}

// GetWithModels returns a provider composite by ID.
//
// GET /model-providers/:id/with-models
func (h *ProviderHandler) GetWithModels(c *gin.Context) {
	id, ok := providerID(c)
	if !ok {
		return
	}

	composite, err := h.service.GetProviderWithModels(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, composite)
}

// Update applies a partial update. Absent fields are preserved; explicit
// nulls clear the optional fields.
//
// PUT /model-providers/:id
func (h *ProviderHandler) Update(c *gin.Context) {
	id, ok := providerID(c)
	if !ok {
		return
	}

	var patch model.ProviderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	updated, err := h.service.UpdateProvider(c.Request.Context(), id, patch)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a provider and, by cascade, all of its models. Responds
// with the provider as it existed before removal.
//
// DELETE /model-providers/:id
func (h *ProviderHandler) Delete(c *gin.Context) {
	id, ok := providerID(c)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteProvider(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, deleted)
}
