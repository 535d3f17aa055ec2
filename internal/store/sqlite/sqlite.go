package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/nulzo/model-registry-api/internal/store"
	"github.com/nulzo/model-registry-api/internal/store/model"
	"github.com/nulzo/model-registry-api/pkg/optional"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	// Create a repository instance that uses the transaction
	txRepo := &SqliteRepository{
		db:       r.db, // Keep the original DB handle
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Providers() store.ProviderRepository {
	return &providerRepo{db: r.executor}
}

func (r *SqliteRepository) Models() store.ModelRepository {
	return &modelRepo{db: r.executor}
}

// translateErr maps driver errors onto the store sentinels. Unique-constraint
// violations become ErrConflict so a create racing past the service's
// pre-check still surfaces as a clean duplicate-key outcome.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		if se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		}
	}
	return err
}

// mergeString resolves a tri-state patch field for a nullable text column.
func mergeString(v optional.Value[string], cur *string) *string {
	if !v.Set {
		return cur
	}
	if v.Null {
		return nil
	}
	s := v.V
	return &s
}

func mergeInt(v optional.Value[int], cur *int) *int {
	if !v.Set {
		return cur
	}
	if v.Null {
		return nil
	}
	n := v.V
	return &n
}

type providerRepo struct {
	db DB
}

func (r *providerRepo) Get(ctx context.Context, id string) (*model.ModelProvider, error) {
	var p model.ModelProvider
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM model_providers WHERE id = ?`, id); err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

func (r *providerRepo) GetByName(ctx context.Context, name string) (*model.ModelProvider, error) {
	var p model.ModelProvider
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM model_providers WHERE name = ?`, name); err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

func (r *providerRepo) List(ctx context.Context, skip, limit int) ([]model.ModelProvider, error) {
	providers := []model.ModelProvider{}
	err := r.db.SelectContext(ctx, &providers,
		`SELECT * FROM model_providers ORDER BY rowid LIMIT ? OFFSET ?`, limit, skip)
	return providers, translateErr(err)
}

func (r *providerRepo) ListActive(ctx context.Context, skip, limit int) ([]model.ModelProvider, error) {
	providers := []model.ModelProvider{}
	err := r.db.SelectContext(ctx, &providers,
		`SELECT * FROM model_providers WHERE is_active = 1 ORDER BY rowid LIMIT ? OFFSET ?`, limit, skip)
	return providers, translateErr(err)
}

func (r *providerRepo) Create(ctx context.Context, p *model.ModelProvider) (*model.ModelProvider, error) {
	now := time.Now().UTC()
	created := *p
	created.ID = uuid.New().String()
	created.CreatedAt = now
	created.UpdatedAt = now

	query := `
	INSERT INTO model_providers (id, name, display_name, description, api_base_url, api_key_env_var, is_active, created_at, updated_at)
	VALUES (:id, :name, :display_name, :description, :api_base_url, :api_key_env_var, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, created); err != nil {
		return nil, translateErr(err)
	}
	return &created, nil
}

func (r *providerRepo) Update(ctx context.Context, existing *model.ModelProvider, patch model.ProviderPatch) (*model.ModelProvider, error) {
	updated := *existing
	if patch.Name.Present() {
		updated.Name = patch.Name.V
	}
	if patch.DisplayName.Present() {
		updated.DisplayName = patch.DisplayName.V
	}
	updated.Description = mergeString(patch.Description, existing.Description)
	updated.APIBaseURL = mergeString(patch.APIBaseURL, existing.APIBaseURL)
	updated.APIKeyEnvVar = mergeString(patch.APIKeyEnvVar, existing.APIKeyEnvVar)
	if patch.IsActive.Present() {
		updated.IsActive = patch.IsActive.V
	}
	updated.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE model_providers SET
		name = :name, display_name = :display_name, description = :description,
		api_base_url = :api_base_url, api_key_env_var = :api_key_env_var,
		is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, updated)
	if err != nil {
		return nil, translateErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, store.ErrNotFound
	}
	return &updated, nil
}

func (r *providerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM model_providers WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type modelRepo struct {
	db DB
}

func (r *modelRepo) Get(ctx context.Context, id string) (*model.Model, error) {
	var m model.Model
	if err := r.db.GetContext(ctx, &m, `SELECT * FROM models WHERE id = ?`, id); err != nil {
		return nil, translateErr(err)
	}
	return &m, nil
}

func (r *modelRepo) GetByNameAndProvider(ctx context.Context, name, providerID string) (*model.Model, error) {
	var m model.Model
	query := `SELECT * FROM models WHERE name = ? AND provider_id = ?`
	if err := r.db.GetContext(ctx, &m, query, name, providerID); err != nil {
		return nil, translateErr(err)
	}
	return &m, nil
}

func (r *modelRepo) List(ctx context.Context, skip, limit int) ([]model.Model, error) {
	models := []model.Model{}
	err := r.db.SelectContext(ctx, &models,
		`SELECT * FROM models ORDER BY rowid LIMIT ? OFFSET ?`, limit, skip)
	return models, translateErr(err)
}

func (r *modelRepo) ListActive(ctx context.Context, skip, limit int) ([]model.Model, error) {
	models := []model.Model{}
	err := r.db.SelectContext(ctx, &models,
		`SELECT * FROM models WHERE is_active = 1 ORDER BY rowid LIMIT ? OFFSET ?`, limit, skip)
	return models, translateErr(err)
}

func (r *modelRepo) ListByProvider(ctx context.Context, providerID string, skip, limit int) ([]model.Model, error) {
	models := []model.Model{}
	err := r.db.SelectContext(ctx, &models,
		`SELECT * FROM models WHERE provider_id = ? ORDER BY rowid LIMIT ? OFFSET ?`, providerID, limit, skip)
	return models, translateErr(err)
}

func (r *modelRepo) Create(ctx context.Context, m *model.Model) (*model.Model, error) {
	now := time.Now().UTC()
	created := *m
	created.ID = uuid.New().String()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.DefaultParameters == nil {
		created.DefaultParameters = model.JSONMap{}
	}

	query := `
	INSERT INTO models (
		id, provider_id, name, display_name, description, model_type,
		context_window, is_active, default_parameters, created_at, updated_at
	) VALUES (
		:id, :provider_id, :name, :display_name, :description, :model_type,
		:context_window, :is_active, :default_parameters, :created_at, :updated_at
	)`
	if _, err := r.db.NamedExecContext(ctx, query, created); err != nil {
		return nil, translateErr(err)
	}
	return &created, nil
}

func (r *modelRepo) Update(ctx context.Context, existing *model.Model, patch model.ModelPatch) (*model.Model, error) {
	updated := *existing
	if patch.Name.Present() {
		updated.Name = patch.Name.V
	}
	if patch.DisplayName.Present() {
		updated.DisplayName = patch.DisplayName.V
	}
	updated.Description = mergeString(patch.Description, existing.Description)
	if patch.ModelType.Present() {
		updated.ModelType = patch.ModelType.V
	}
	updated.ContextWindow = mergeInt(patch.ContextWindow, existing.ContextWindow)
	if patch.IsActive.Present() {
		updated.IsActive = patch.IsActive.V
	}
	if patch.DefaultParameters.Set {
		if patch.DefaultParameters.Null {
			updated.DefaultParameters = model.JSONMap{}
		} else {
			updated.DefaultParameters = patch.DefaultParameters.V
		}
	}
	updated.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE models SET
		name = :name, display_name = :display_name, description = :description,
		model_type = :model_type, context_window = :context_window,
		is_active = :is_active, default_parameters = :default_parameters,
		updated_at = :updated_at
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, updated)
	if err != nil {
		return nil, translateErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, store.ErrNotFound
	}
	return &updated, nil
}

func (r *modelRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
