package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/repos"
)

// SnapshotProvider is the per-entity-type capability behind the change/merge
// protocol: load current field state, apply a create or partial update, and
// produce the blank create input. Field documents use json keys.
type SnapshotProvider interface {
	// Load returns the entity's current fields, or nil when it does not exist.
	Load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (map[string]interface{}, error)
	// ApplyCreate inserts a new entity from a field document and returns its id.
	ApplyCreate(ctx context.Context, tx *gorm.DB, fields map[string]interface{}) (uuid.UUID, error)
	// ApplyUpdate applies a partial field document against the live row.
	ApplyUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	// DefaultCreateInput returns every field at its schema default.
	DefaultCreateInput() map[string]interface{}
}

// Remover is implemented by providers whose rows the taxonomy layer may
// soft-delete when a subtree is removed.
type Remover interface {
	SoftDelete(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

// EntityBinding couples a provider with the closure store for tree-shaped
// entities. Tree is nil for flat entities.
type EntityBinding struct {
	Provider SnapshotProvider
	Tree     repos.ClosureRepo
}

// EntityRegistry is the explicit entity-name dispatch table. Bindings are
// registered once at wiring time; lookups never reflect.
type EntityRegistry struct {
	bindings map[string]EntityBinding
}

func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{bindings: map[string]EntityBinding{}}
}

func (r *EntityRegistry) Register(name string, provider SnapshotProvider) {
	r.bindings[name] = EntityBinding{Provider: provider}
}

func (r *EntityRegistry) RegisterTree(name string, provider SnapshotProvider, tree repos.ClosureRepo) {
	r.bindings[name] = EntityBinding{Provider: provider, Tree: tree}
}

func (r *EntityRegistry) Binding(name string) (EntityBinding, error) {
	binding, ok := r.bindings[name]
	if !ok {
		return EntityBinding{}, &apperr.UnknownEntityError{EntityName: name}
	}
	return binding, nil
}

func (r *EntityRegistry) Provider(name string) (SnapshotProvider, error) {
	binding, err := r.Binding(name)
	if err != nil {
		return nil, err
	}
	return binding.Provider, nil
}
