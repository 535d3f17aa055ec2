package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/model-registry-api/internal/store"
	"github.com/nulzo/model-registry-api/internal/store/model"
	"github.com/nulzo/model-registry-api/pkg/optional"
)

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := NewSQLiteStorage(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func seedProvider(t *testing.T, repo store.Repository, name string) *model.ModelProvider {
	t.Helper()
	p, err := repo.Providers().Create(context.Background(), &model.ModelProvider{
		Name:        name,
		DisplayName: name,
		IsActive:    true,
	})
	require.NoError(t, err)
	return p
}

func seedModel(t *testing.T, repo store.Repository, providerID, name string) *model.Model {
	t.Helper()
	m, err := repo.Models().Create(context.Background(), &model.Model{
		ProviderID:  providerID,
		Name:        name,
		DisplayName: name,
		ModelType:   "chat",
	})
	require.NoError(t, err)
	return m
}

func TestProviderCreate_AssignsIdentityAndTimestamps(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Providers().Create(ctx, &model.ModelProvider{
		Name:         "openai",
		DisplayName:  "OpenAI",
		Description:  strPtr("hosted models"),
		APIBaseURL:   strPtr("https://api.openai.com/v1"),
		APIKeyEnvVar: strPtr("OPENAI_API_KEY"),
		IsActive:     true,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err, "generated id should be a canonical uuid")
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := repo.Providers().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "openai", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, "hosted models", *got.Description)

	byName, err := repo.Providers().GetByName(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestProviderGet_Missing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Providers().Get(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.Providers().GetByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProviderCreate_DuplicateName(t *testing.T) {
	repo := newTestRepo(t)
	seedProvider(t, repo, "openai")

	_, err := repo.Providers().Create(context.Background(), &model.ModelProvider{
		Name:        "openai",
		DisplayName: "Duplicate",
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestProviderList_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		seedProvider(t, repo, n)
	}

	all, err := repo.Providers().List(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 5)
	// insertion order
	for i, n := range names {
		assert.Equal(t, n, all[i].Name)
	}

	page, err := repo.Providers().List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Name)
	assert.Equal(t, "c", page[1].Name)

	tail, err := repo.Providers().List(ctx, 4, 100)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "e", tail[0].Name)
}

func TestProviderListActive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedProvider(t, repo, "active")
	_, err := repo.Providers().Create(ctx, &model.ModelProvider{
		Name:        "retired",
		DisplayName: "Retired",
		IsActive:    false,
	})
	require.NoError(t, err)

	active, err := repo.Providers().ListActive(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active", active[0].Name)
}

func TestProviderUpdate_PartialPatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Providers().Create(ctx, &model.ModelProvider{
		Name:        "openai",
		DisplayName: "OpenAI",
		Description: strPtr("original"),
		APIBaseURL:  strPtr("https://api.openai.com/v1"),
		IsActive:    true,
	})
	require.NoError(t, err)

	// only display_name supplied; description cleared with explicit null
	updated, err := repo.Providers().Update(ctx, created, model.ProviderPatch{
		DisplayName: optional.Of("OpenAI, Inc."),
		Description: optional.Null[string](),
	})
	require.NoError(t, err)

	assert.Equal(t, "OpenAI, Inc.", updated.DisplayName)
	assert.Nil(t, updated.Description)
	// untouched fields preserved
	assert.Equal(t, "openai", updated.Name)
	require.NotNil(t, updated.APIBaseURL)
	assert.Equal(t, "https://api.openai.com/v1", *updated.APIBaseURL)
	assert.True(t, updated.IsActive)
	// update timestamp advances
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err := repo.Providers().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "OpenAI, Inc.", got.DisplayName)
	assert.Nil(t, got.Description)
}

func TestProviderUpdate_NameConflict(t *testing.T) {
	repo := newTestRepo(t)
	seedProvider(t, repo, "a")
	b := seedProvider(t, repo, "b")

	_, err := repo.Providers().Update(context.Background(), b, model.ProviderPatch{
		Name: optional.Of("a"),
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestProviderDelete_CascadesToModels(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := seedProvider(t, repo, "openai")
	m1 := seedModel(t, repo, p.ID, "gpt-4")
	m2 := seedModel(t, repo, p.ID, "gpt-3.5-turbo")

	require.NoError(t, repo.Providers().Delete(ctx, p.ID))

	_, err := repo.Providers().Get(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.Models().Get(ctx, m1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.Models().Get(ctx, m2.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProviderDelete_Missing(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Providers().Delete(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestModelCreate_DefaultParametersRoundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProvider(t, repo, "openai")

	created, err := repo.Models().Create(ctx, &model.Model{
		ProviderID:        p.ID,
		Name:              "gpt-4",
		DisplayName:       "GPT-4",
		ModelType:         "chat",
		ContextWindow:     intPtr(8192),
		IsActive:          true,
		DefaultParameters: model.JSONMap{"temperature": 0.7, "stop": []any{"\n"}},
	})
	require.NoError(t, err)

	got, err := repo.Models().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.7, got.DefaultParameters["temperature"])
	require.NotNil(t, got.ContextWindow)
	assert.Equal(t, 8192, *got.ContextWindow)
}

func TestModelCreate_NilParametersBecomesEmptyDocument(t *testing.T) {
	repo := newTestRepo(t)
	p := seedProvider(t, repo, "openai")

	m := seedModel(t, repo, p.ID, "gpt-4")
	got, err := repo.Models().Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DefaultParameters)
	assert.Empty(t, got.DefaultParameters)
}

func TestModelUniqueness_ScopedToProvider(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p1 := seedProvider(t, repo, "openai")
	p2 := seedProvider(t, repo, "azure-openai")

	seedModel(t, repo, p1.ID, "gpt-4")

	// same name under a different provider is fine
	_, err := repo.Models().Create(ctx, &model.Model{
		ProviderID:  p2.ID,
		Name:        "gpt-4",
		DisplayName: "GPT-4 (Azure)",
		ModelType:   "chat",
	})
	assert.NoError(t, err)

	// duplicate under the same provider is not
	_, err = repo.Models().Create(ctx, &model.Model{
		ProviderID:  p1.ID,
		Name:        "gpt-4",
		DisplayName: "GPT-4 again",
		ModelType:   "chat",
	})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := repo.Models().GetByNameAndProvider(ctx, "gpt-4", p2.ID)
	require.NoError(t, err)
	assert.Equal(t, p2.ID, got.ProviderID)
}

func TestModelListByProvider_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProvider(t, repo, "openai")
	other := seedProvider(t, repo, "anthropic")

	for _, n := range []string{"m1", "m2", "m3"} {
		seedModel(t, repo, p.ID, n)
	}
	seedModel(t, repo, other.ID, "claude-3-opus")

	models, err := repo.Models().ListByProvider(ctx, p.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, "m1", models[0].Name)

	page, err := repo.Models().ListByProvider(ctx, p.ID, 2, 100)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "m3", page[0].Name)

	// LIMIT -1 means unbounded
	all, err := repo.Models().ListByProvider(ctx, p.ID, 0, -1)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestModelUpdate_PatchSemantics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := seedProvider(t, repo, "openai")

	created, err := repo.Models().Create(ctx, &model.Model{
		ProviderID:        p.ID,
		Name:              "gpt-4",
		DisplayName:       "GPT-4",
		ModelType:         "chat",
		ContextWindow:     intPtr(8192),
		IsActive:          true,
		DefaultParameters: model.JSONMap{"temperature": 0.7},
	})
	require.NoError(t, err)

	updated, err := repo.Models().Update(ctx, created, model.ModelPatch{
		ContextWindow:     optional.Of(128000),
		IsActive:          optional.Of(false),
		DefaultParameters: optional.Null[model.JSONMap](),
	})
	require.NoError(t, err)

	require.NotNil(t, updated.ContextWindow)
	assert.Equal(t, 128000, *updated.ContextWindow)
	assert.False(t, updated.IsActive)
	// explicit null resets the document to empty, never to SQL NULL
	assert.NotNil(t, updated.DefaultParameters)
	assert.Empty(t, updated.DefaultParameters)
	// untouched fields preserved
	assert.Equal(t, "gpt-4", updated.Name)
	assert.Equal(t, "chat", updated.ModelType)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := repo.WithTx(ctx, func(txRepo store.Repository) error {
		if _, err := txRepo.Providers().Create(ctx, &model.ModelProvider{
			Name:        "doomed",
			DisplayName: "Doomed",
		}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = repo.Providers().GetByName(ctx, "doomed")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
