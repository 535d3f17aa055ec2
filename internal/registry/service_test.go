package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/model-registry-api/internal/cache/memory"
	"github.com/nulzo/model-registry-api/internal/store"
	"github.com/nulzo/model-registry-api/internal/store/model"
	"github.com/nulzo/model-registry-api/internal/store/sqlite"
	"github.com/nulzo/model-registry-api/pkg/optional"
)

func newTestService(t *testing.T) (*Service, store.Repository) {
	t.Helper()
	repo, err := sqlite.NewSQLiteStorage(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewService(repo, memory.New(), zap.NewNop()), repo
}

func createProvider(t *testing.T, s *Service, name string) *model.ModelProvider {
	t.Helper()
	p, err := s.CreateProvider(context.Background(), &model.ModelProvider{
		Name:        name,
		DisplayName: name,
		IsActive:    true,
	})
	require.NoError(t, err)
	return p
}

func createModel(t *testing.T, s *Service, providerID, name string) *model.Model {
	t.Helper()
	m, err := s.CreateModel(context.Background(), &model.Model{
		ProviderID:  providerID,
		Name:        name,
		DisplayName: name,
		ModelType:   "chat",
	})
	require.NoError(t, err)
	return m
}

func TestCreateProvider_NameTaken(t *testing.T) {
	s, _ := newTestService(t)
	createProvider(t, s, "openai")

	_, err := s.CreateProvider(context.Background(), &model.ModelProvider{
		Name:        "openai",
		DisplayName: "Duplicate",
	})
	assert.ErrorIs(t, err, ErrProviderNameTaken)
}

func TestGetProvider_NotFound(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.GetProvider(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestUpdateProvider_NotFound(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.UpdateProvider(context.Background(), uuid.New().String(), model.ProviderPatch{
		DisplayName: optional.Of("nope"),
	})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestDeleteProvider_ReturnsPreImage(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p := createProvider(t, s, "openai")
	m := createModel(t, s, p.ID, "gpt-4")

	deleted, err := s.DeleteProvider(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)
	assert.Equal(t, "openai", deleted.Name)

	_, err = s.GetProvider(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	// cascade reaches the models too
	_, err = s.GetModel(ctx, p.ID, m.ID)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestGetProviderWithModels(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p := createProvider(t, s, "openai")

	// zero models is a valid composite, not an error
	composite, err := s.GetProviderWithModels(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, composite.ID)
	assert.NotNil(t, composite.Models)
	assert.Empty(t, composite.Models)

	_, err = s.GetProviderWithModels(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestGetProviderWithModels_CacheInvalidatedByMutation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p := createProvider(t, s, "openai")

	// prime the cache with the empty composite
	first, err := s.GetProviderWithModels(ctx, p.ID)
	require.NoError(t, err)
	require.Empty(t, first.Models)

	createModel(t, s, p.ID, "gpt-4")

	second, err := s.GetProviderWithModels(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, second.Models, 1)
	assert.Equal(t, "gpt-4", second.Models[0].Name)
}

func TestListProvidersWithModels(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p1 := createProvider(t, s, "openai")
	p2 := createProvider(t, s, "anthropic")
	createModel(t, s, p1.ID, "gpt-4")
	createModel(t, s, p1.ID, "gpt-3.5-turbo")

	composites, err := s.ListProvidersWithModels(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, composites, 2)

	assert.Equal(t, p1.ID, composites[0].ID)
	assert.Len(t, composites[0].Models, 2)
	assert.Equal(t, p2.ID, composites[1].ID)
	assert.Empty(t, composites[1].Models)
}

func TestListProviders_ActiveOnly(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	createProvider(t, s, "active")
	_, err := s.CreateProvider(ctx, &model.ModelProvider{
		Name:        "retired",
		DisplayName: "Retired",
		IsActive:    false,
	})
	require.NoError(t, err)

	all, err := s.ListProviders(ctx, 0, 100, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.ListProviders(ctx, 0, 100, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active", active[0].Name)
}

func TestCreateModel_ProviderMissing(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.CreateModel(context.Background(), &model.Model{
		ProviderID:  uuid.New().String(),
		Name:        "gpt-4",
		DisplayName: "GPT-4",
		ModelType:   "chat",
	})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestCreateModel_NameTakenWithinProvider(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p1 := createProvider(t, s, "openai")
	p2 := createProvider(t, s, "azure-openai")
	createModel(t, s, p1.ID, "gpt-4")

	_, err := s.CreateModel(ctx, &model.Model{
		ProviderID:  p1.ID,
		Name:        "gpt-4",
		DisplayName: "GPT-4 again",
		ModelType:   "chat",
	})
	assert.ErrorIs(t, err, ErrModelNameTaken)

	// scoped key: the same name is free under another provider
	_, err = s.CreateModel(ctx, &model.Model{
		ProviderID:  p2.ID,
		Name:        "gpt-4",
		DisplayName: "GPT-4 (Azure)",
		ModelType:   "chat",
	})
	assert.NoError(t, err)
}

func TestGetModel_ScopedToProvider(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	owner := createProvider(t, s, "openai")
	other := createProvider(t, s, "anthropic")
	m := createModel(t, s, owner.ID, "gpt-4")

	got, err := s.GetModel(ctx, owner.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	// exists, but belongs to a different provider
	_, err = s.GetModel(ctx, other.ID, m.ID)
	assert.ErrorIs(t, err, ErrModelNotOwned)

	_, err = s.GetModel(ctx, owner.ID, uuid.New().String())
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestUpdateModel_ScopedAndPartial(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	owner := createProvider(t, s, "openai")
	other := createProvider(t, s, "anthropic")
	m := createModel(t, s, owner.ID, "gpt-4")

	_, err := s.UpdateModel(ctx, other.ID, m.ID, model.ModelPatch{
		IsActive: optional.Of(false),
	})
	assert.ErrorIs(t, err, ErrModelNotOwned)

	updated, err := s.UpdateModel(ctx, owner.ID, m.ID, model.ModelPatch{
		IsActive: optional.Of(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "gpt-4", updated.Name)
}

func TestDeleteModel_ReturnsPreImage(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p := createProvider(t, s, "openai")
	m := createModel(t, s, p.ID, "gpt-4")

	deleted, err := s.DeleteModel(ctx, p.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)

	_, err = s.GetModel(ctx, p.ID, m.ID)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestListModels_ProviderMissing(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.ListModels(context.Background(), uuid.New().String(), 0, 100)
	assert.ErrorIs(t, err, ErrProviderNotFound)
}
