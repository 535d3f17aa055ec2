package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/model-registry-api/internal/cache"
	"github.com/nulzo/model-registry-api/internal/store"
	"github.com/nulzo/model-registry-api/internal/store/model"
)

// unboundedLimit disables pagination; sqlite treats LIMIT -1 as "all rows".
// Composite reads fetch a provider's full model list in one go.
const unboundedLimit = -1

// compositeTTL bounds staleness of cached with-models reads. Mutations
// invalidate eagerly; the TTL only covers writes from other instances.
const compositeTTL = 30 * time.Second

// Service mediates all repository access for providers and models and owns
// the one piece of cross-entity logic in the registry: assembling a provider
// together with its models.
type Service struct {
	repo   store.Repository
	cache  cache.Cache
	logger *zap.Logger
}

func NewService(repo store.Repository, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  c,
		logger: logger,
	}
}

func compositeKey(providerID string) string {
	return "registry:provider-with-models:" + providerID
}

func (s *Service) invalidateComposite(ctx context.Context, providerID string) {
	if err := s.cache.Delete(ctx, compositeKey(providerID)); err != nil {
		s.logger.Warn("Failed to invalidate composite cache",
			zap.String("provider_id", providerID),
			zap.Error(err),
		)
	}
}

// --- Providers ---

func (s *Service) GetProvider(ctx context.Context, id string) (*model.ModelProvider, error) {
	p, err := s.repo.Providers().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return p, nil
}

func (s *Service) GetProviderByName(ctx context.Context, name string) (*model.ModelProvider, error) {
	p, err := s.repo.Providers().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider by name: %w", err)
	}
	return p, nil
}

func (s *Service) ListProviders(ctx context.Context, skip, limit int, activeOnly bool) ([]model.ModelProvider, error) {
	if activeOnly {
		return s.repo.Providers().ListActive(ctx, skip, limit)
	}
	return s.repo.Providers().List(ctx, skip, limit)
}

// CreateProvider persists a new provider after verifying its name is free.
// The read is a courtesy: a concurrent create slipping past it is still
// rejected by the name's unique constraint, which comes back as ErrConflict.
func (s *Service) CreateProvider(ctx context.Context, p *model.ModelProvider) (*model.ModelProvider, error) {
	_, err := s.repo.Providers().GetByName(ctx, p.Name)
	if err == nil {
		return nil, ErrProviderNameTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check provider name: %w", err)
	}

	created, err := s.repo.Providers().Create(ctx, p)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrProviderNameTaken
		}
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return created, nil
}

// UpdateProvider applies a partial update. The fetch doubles as the
// existence check: the update path is never entered for an absent id.
func (s *Service) UpdateProvider(ctx context.Context, id string, patch model.ProviderPatch) (*model.ModelProvider, error) {
	existing, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Providers().Update(ctx, existing, patch)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrProviderNameTaken
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("update provider: %w", err)
	}

	s.invalidateComposite(ctx, id)
	return updated, nil
}

// DeleteProvider removes the provider and, through the store's FK cascade,
// every model it owns. Returns the provider as it existed before deletion.
func (s *Service) DeleteProvider(ctx context.Context, id string) (*model.ModelProvider, error) {
	existing, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Providers().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("delete provider: %w", err)
	}

	s.invalidateComposite(ctx, id)
	return existing, nil
}

// GetProviderWithModels assembles the composite read view: the provider's
// full attribute set plus its entire model list in insertion order.
func (s *Service) GetProviderWithModels(ctx context.Context, id string) (*model.ModelProviderWithModels, error) {
	var cached model.ModelProviderWithModels
	if err := s.cache.Get(ctx, compositeKey(id), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Composite cache read failed", zap.Error(err))
	}

	provider, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}

	models, err := s.repo.Models().ListByProvider(ctx, id, 0, unboundedLimit)
	if err != nil {
		return nil, fmt.Errorf("list provider models: %w", err)
	}

	composite := &model.ModelProviderWithModels{
		ModelProvider: *provider,
		Models:        models,
	}

	if err := s.cache.Set(ctx, compositeKey(id), composite, compositeTTL); err != nil {
		s.logger.Warn("Composite cache write failed", zap.Error(err))
	}
	return composite, nil
}

// ListProvidersWithModels paginates providers and assembles one composite
// per provider. One model query per provider; provider counts stay small.
func (s *Service) ListProvidersWithModels(ctx context.Context, skip, limit int) ([]model.ModelProviderWithModels, error) {
	providers, err := s.repo.Providers().List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	result := make([]model.ModelProviderWithModels, 0, len(providers))
	for _, p := range providers {
		models, err := s.repo.Models().ListByProvider(ctx, p.ID, 0, unboundedLimit)
		if err != nil {
			return nil, fmt.Errorf("list models for provider %s: %w", p.ID, err)
		}
		result = append(result, model.ModelProviderWithModels{
			ModelProvider: p,
			Models:        models,
		})
	}
	return result, nil
}

// --- Models ---

// ListModels returns a provider's models after verifying the provider exists.
func (s *Service) ListModels(ctx context.Context, providerID string, skip, limit int) ([]model.Model, error) {
	if _, err := s.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.repo.Models().ListByProvider(ctx, providerID, skip, limit)
}

// CreateModel persists a new model under an existing provider. Uniqueness of
// (name, provider_id) is pre-checked and backstopped by the constraint.
func (s *Service) CreateModel(ctx context.Context, m *model.Model) (*model.Model, error) {
	if _, err := s.GetProvider(ctx, m.ProviderID); err != nil {
		return nil, err
	}

	_, err := s.repo.Models().GetByNameAndProvider(ctx, m.Name, m.ProviderID)
	if err == nil {
		return nil, ErrModelNameTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check model name: %w", err)
	}

	created, err := s.repo.Models().Create(ctx, m)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrModelNameTaken
		}
		return nil, fmt.Errorf("create model: %w", err)
	}

	s.invalidateComposite(ctx, m.ProviderID)
	return created, nil
}

// GetModel retrieves a model scoped to the provider named in the request
// path. A model that exists under a different provider is not exposed.
func (s *Service) GetModel(ctx context.Context, providerID, modelID string) (*model.Model, error) {
	m, err := s.repo.Models().Get(ctx, modelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("get model: %w", err)
	}
	if m.ProviderID != providerID {
		return nil, ErrModelNotOwned
	}
	return m, nil
}

func (s *Service) UpdateModel(ctx context.Context, providerID, modelID string, patch model.ModelPatch) (*model.Model, error) {
	existing, err := s.GetModel(ctx, providerID, modelID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Models().Update(ctx, existing, patch)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrModelNameTaken
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("update model: %w", err)
	}

	s.invalidateComposite(ctx, providerID)
	return updated, nil
}

func (s *Service) DeleteModel(ctx context.Context, providerID, modelID string) (*model.Model, error) {
	existing, err := s.GetModel(ctx, providerID, modelID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Models().Delete(ctx, modelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("delete model: %w", err)
	}

	s.invalidateComposite(ctx, providerID)
	return existing, nil
}
