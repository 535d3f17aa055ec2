package store

import (
	"context"
	"errors"

	"github.com/nulzo/model-registry-api/internal/store/model"
)

var (
	// ErrNotFound is returned when a row does not exist. Mutating operations
	// return it too, so a delete of a vanished row is an explicit outcome
	// rather than a silent no-op.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when an insert or update violates a natural-key
	// uniqueness constraint. The store's constraint is the authoritative
	// guard: the service layer's pre-check read can race, the constraint
	// cannot.
	ErrConflict = errors.New("store: conflict")
)

// Repository is the main contract for the data layer.
type Repository interface {
	Providers() ProviderRepository
	Models() ModelRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type ProviderRepository interface {
	// Get retrieves a provider by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*model.ModelProvider, error)
	// GetByName retrieves a provider by its unique name (duplicate pre-check).
	GetByName(ctx context.Context, name string) (*model.ModelProvider, error)
	// List returns providers in insertion order with skip/limit pagination.
	List(ctx context.Context, skip, limit int) ([]model.ModelProvider, error)
	// ListActive returns only providers with is_active set.
	ListActive(ctx context.Context, skip, limit int) ([]model.ModelProvider, error)
	// Create persists p with a generated id and server-assigned timestamps.
	Create(ctx context.Context, p *model.ModelProvider) (*model.ModelProvider, error)
	// Update applies the supplied patch fields to existing and refreshes
	// updated_at. Fields absent from the patch are untouched.
	Update(ctx context.Context, existing *model.ModelProvider, patch model.ProviderPatch) (*model.ModelProvider, error)
	// Delete removes the provider; owned models go with it (FK cascade).
	Delete(ctx context.Context, id string) error
}

type ModelRepository interface {
	Get(ctx context.Context, id string) (*model.Model, error)
	// GetByNameAndProvider retrieves a model by its scoped natural key.
	GetByNameAndProvider(ctx context.Context, name, providerID string) (*model.Model, error)
	List(ctx context.Context, skip, limit int) ([]model.Model, error)
	ListActive(ctx context.Context, skip, limit int) ([]model.Model, error)
	// ListByProvider returns a provider's models in insertion order.
	ListByProvider(ctx context.Context, providerID string, skip, limit int) ([]model.Model, error)
	Create(ctx context.Context, m *model.Model) (*model.Model, error)
	Update(ctx context.Context, existing *model.Model, patch model.ModelPatch) (*model.Model, error)
	Delete(ctx context.Context, id string) error
}
