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

type ModelHandler struct {
	service *registry.Service
}

func NewModelHandler(service *registry.Service) *ModelHandler {
	return &ModelHandler{service: service}
}

func modelID(c *gin.Context) (string, bool) {
	id := c.Param("model_id")
	if _, err := uuid.Parse(id); err != nil {
		_ = c.Error(api.BadRequestError("Invalid model ID"))
		return "", false
	}
	return id, true
}

// List returns all models belonging to a provider.
//
// GET /model-providers/:id/models
func (h *ModelHandler) List(c *gin.Context) {
	pid, ok := providerID(c)
	if !ok {
		return
	}

	var q api.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	models, err := h.service.ListModels(c.Request.Context(), pid, q.Skip, q.Limit)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, models)
}

// Create registers a new model under the provider named in the path. The
// body's provider_id must agree with the path.
//
// POST /model-providers/:id/models
func (h *ModelHandler) Create(c *gin.Context) {
	pid, ok := providerID(c)
	if !ok {
		return
	}

	var req api.CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	// Provider existence is checked before the path/body comparison so a
	// mismatched body against a missing provider still reads as 404.
	if _, err := h.service.GetProvider(c.Request.Context(), pid); err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	if req.ProviderID != pid {
		_ = c.Error(api.BadRequestError("Provider ID in path does not match provider ID in request body"))
		return
	}

	created, err := h.service.CreateModel(c.Request.Context(), req.Model())
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get returns a model by ID, scoped to the provider in the path.
//
// GET /model-providers/:id/models/:model_id
func (h *ModelHandler) Get(c *gin.Context) {
	pid, ok := providerID(c)
	if !ok {
		return
	}
	mid, ok := modelID(c)
	if !ok {
		return
	}

	m, err := h.service.GetModel(c.Request.Context(), pid, mid)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, m)
}

// Update applies a partial update to a model.
//
// PUT /model-providers/:id/models/:model_id
func (h *ModelHandler) Update(c *gin.Context) {
	pid, ok := providerID(c)
	if !ok {
		return
	}
	mid, ok := modelID(c)
	if !ok {
		return
	}

	var patch model.ModelPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	updated, err := h.service.UpdateModel(c.Request.Context(), pid, mid, patch)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a model. Responds with the model as it existed before
// removal.
//
// DELETE /model-providers/:id/models/:model_id
func (h *ModelHandler) Delete(c *gin.Context) {
	pid, ok := providerID(c)
	if !ok {
		return
	}
	mid, ok := modelID(c)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteModel(c.Request.Context(), pid, mid)
	if err != nil {
		_ = c.Error(problemFromDomain(err))
		return
	}

	c.JSON(http.StatusOK, deleted)
}
