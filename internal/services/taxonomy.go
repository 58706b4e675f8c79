package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/repos"
)

// TaxonomyService exposes tree operations uniformly over every registered
// tree-shaped entity. Structural edges live in the entity's closure table;
// entity rows are soft-deleted when their subtree leaves the tree.
type TaxonomyService interface {
	Move(ctx context.Context, entityName string, sourceID, destinationID uuid.UUID) error
	RemoveSubtree(ctx context.Context, entityName string, id uuid.UUID) error
	RemoveDescendants(ctx context.Context, entityName string, id uuid.UUID) error
	Descendants(ctx context.Context, entityName string, id uuid.UUID) ([]repos.TreeDescendant, error)
	Contains(ctx context.Context, entityName string, ancestorID, descendantID uuid.UUID) (bool, error)
}

type taxonomyService struct {
	db       *gorm.DB
	log      *logger.Logger
	registry *EntityRegistry
}

func NewTaxonomyService(db *gorm.DB, baseLog *logger.Logger, registry *EntityRegistry) TaxonomyService {
	return &taxonomyService{
		db:       db,
		log:      baseLog.With("service", "TaxonomyService"),
		registry: registry,
	}
}

func (s *taxonomyService) treeBinding(entityName string) (EntityBinding, error) {
	binding, err := s.registry.Binding(entityName)
	if err != nil {
		return EntityBinding{}, err
	}
	if binding.Tree == nil {
		return EntityBinding{}, &apperr.ValidationError{EntityName: entityName, Reason: "not a tree-shaped entity"}
	}
	return binding, nil
}

func (s *taxonomyService) Move(ctx context.Context, entityName string, sourceID, destinationID uuid.UUID) error {
	binding, err := s.treeBinding(entityName)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := binding.Tree.MoveSubtree(ctx, tx, sourceID, destinationID); err != nil {
			return err
		}
		// Keep the adjacency hint in step with the closure table.
		return binding.Provider.ApplyUpdate(ctx, tx, sourceID, map[string]interface{}{
			"parentId": destinationID.String(),
		})
	})
}

func (s *taxonomyService) RemoveSubtree(ctx context.Context, entityName string, id uuid.UUID) error {
	binding, err := s.treeBinding(entityName)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		descendants, err := binding.Tree.FindDescendants(ctx, tx, id)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(descendants)+1)
		ids = append(ids, id)
		for _, d := range descendants {
			ids = append(ids, d.ID)
		}
		if err := binding.Tree.RemoveSubtree(ctx, tx, id); err != nil {
			return err
		}
		if remover, ok := binding.Provider.(Remover); ok {
			return remover.SoftDelete(ctx, tx, ids)
		}
		return nil
	})
}

func (s *taxonomyService) RemoveDescendants(ctx context.Context, entityName string, id uuid.UUID) error {
	binding, err := s.treeBinding(entityName)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		descendants, err := binding.Tree.FindDescendants(ctx, tx, id)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(descendants))
		for _, d := range descendants {
			ids = append(ids, d.ID)
		}
		if err := binding.Tree.RemoveDescendants(ctx, tx, id); err != nil {
			return err
		}
		if remover, ok := binding.Provider.(Remover); ok {
			return remover.SoftDelete(ctx, tx, ids)
		}
		return nil
	})
}

func (s *taxonomyService) Descendants(ctx context.Context, entityName string, id uuid.UUID) ([]repos.TreeDescendant, error) {
	binding, err := s.treeBinding(entityName)
	if err != nil {
		return nil, err
	}
	return binding.Tree.FindDescendants(ctx, nil, id)
}

func (s *taxonomyService) Contains(ctx context.Context, entityName string, ancestorID, descendantID uuid.UUID) (bool, error) {
	binding, err := s.treeBinding(entityName)
	if err != nil {
		return false, err
	}
	return binding.Tree.ContainsDescendant(ctx, nil, ancestorID, descendantID)
}
