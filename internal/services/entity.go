package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/requestdata"
	"github.com/loomery/catalog-backend/internal/types"
)

// MutationResult reports where an entity mutation landed: applied live
// (EntityID set, Edit nil) or captured into a change as a pending edit.
type MutationResult struct {
	EntityName string            `json:"entity_name"`
	EntityID   *uuid.UUID        `json:"entity_id"`
	Edit       *types.ChangeEdit `json:"edit,omitempty"`
}

// EntityService is the mutation entry point for all registered entity types.
// With a change id the mutation is captured as a ChangeEdit instead of
// touching live state; without one it applies immediately, including closure
// maintenance for tree-shaped entities.
type EntityService interface {
	Create(ctx context.Context, entityName string, fields map[string]interface{}, changeID *uuid.UUID) (*MutationResult, error)
	Update(ctx context.Context, entityName string, id uuid.UUID, fields map[string]interface{}, changeID *uuid.UUID) (*MutationResult, error)
}

type entityService struct {
	db        *gorm.DB
	log       *logger.Logger
	registry  *EntityRegistry
	changeSvc ChangeService
}

func NewEntityService(db *gorm.DB, baseLog *logger.Logger, registry *EntityRegistry, changeSvc ChangeService) EntityService {
	return &entityService{
		db:        db,
		log:       baseLog.With("service", "EntityService"),
		registry:  registry,
		changeSvc: changeSvc,
	}
}

func (s *entityService) Create(ctx context.Context, entityName string, fields map[string]interface{}, changeID *uuid.UUID) (*MutationResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	binding, err := s.registry.Binding(entityName)
	if err != nil {
		return nil, err
	}

	if changeID != nil {
		edit, err := s.changeSvc.AddOrMergeEdit(ctx, AddEditInput{
			ChangeID:   *changeID,
			EntityName: entityName,
			Fields:     fields,
		})
		if err != nil {
			return nil, err
		}
		return &MutationResult{EntityName: entityName, Edit: edit}, nil
	}

	var newID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := binding.Provider.ApplyCreate(ctx, tx, fields)
		if err != nil {
			return err
		}
		newID = id
		if binding.Tree == nil {
			return nil
		}
		parentID, _, err := fieldUUIDPtr(entityName, fields, "parentId")
		if err != nil {
			return err
		}
		if parentID != nil {
			return binding.Tree.InsertLeafNode(ctx, tx, newID, *parentID)
		}
		return binding.Tree.InsertRootNode(ctx, tx, newID)
	})
	if err != nil {
		return nil, err
	}
	return &MutationResult{EntityName: entityName, EntityID: &newID}, nil
}

func (s *entityService) Update(ctx context.Context, entityName string, id uuid.UUID, fields map[string]interface{}, changeID *uuid.UUID) (*MutationResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	binding, err := s.registry.Binding(entityName)
	if err != nil {
		return nil, err
	}
	if binding.Tree != nil {
		// An existing node cannot be detached from its tree: the closure table
		// would still hold the old edges while the hint claims a root.
		if parentID, present, err := fieldUUIDPtr(entityName, fields, "parentId"); err != nil {
			return nil, err
		} else if present && parentID == nil {
			return nil, &apperr.ValidationError{EntityName: entityName, Field: "parentId", Reason: "cannot be cleared on an existing node"}
		}
	}

	if changeID != nil {
		edit, err := s.changeSvc.AddOrMergeEdit(ctx, AddEditInput{
			ChangeID:   *changeID,
			EntityName: entityName,
			EntityID:   &id,
			Fields:     fields,
		})
		if err != nil {
			return nil, err
		}
		return &MutationResult{EntityName: entityName, EntityID: &id, Edit: edit}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := binding.Provider.ApplyUpdate(ctx, tx, id, fields); err != nil {
			return err
		}
		if binding.Tree == nil {
			return nil
		}
		parentID, present, err := fieldUUIDPtr(entityName, fields, "parentId")
		if err != nil {
			return err
		}
		if present && parentID != nil {
			return binding.Tree.MoveSubtree(ctx, tx, id, *parentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &MutationResult{EntityName: entityName, EntityID: &id}, nil
}
