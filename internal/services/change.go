package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/repos"
	"github.com/loomery/catalog-backend/internal/requestdata"
	"github.com/loomery/catalog-backend/internal/types"
)

type CreateChangeInput struct {
	Title       string
	Description string
	Sources     datatypes.JSON
	Metadata    datatypes.JSON
}

type AddEditInput struct {
	ChangeID    uuid.UUID
	EntityName  string
	EntityID    *uuid.UUID
	Fields      map[string]interface{}
	Description string
	Suggestions datatypes.JSON
}

// ChangeService owns the Change lifecycle short of merging: creation, edit
// capture, the status state machine, and deletion.
type ChangeService interface {
	Create(ctx context.Context, in CreateChangeInput) (*types.Change, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Change, error)
	List(ctx context.Context, status *types.ChangeStatus) ([]*types.Change, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddOrMergeEdit(ctx context.Context, in AddEditInput) (*types.ChangeEdit, error)
	DiscardEdit(ctx context.Context, changeID uuid.UUID, editID int) error
	Transition(ctx context.Context, changeID uuid.UUID, target types.ChangeStatus) (*types.Change, error)
}

// Legal status transitions. MERGED is reachable only through MergeService.
var allowedTransitions = map[types.ChangeStatus][]types.ChangeStatus{
	types.ChangeStatusDraft:    {types.ChangeStatusProposed},
	types.ChangeStatusProposed: {types.ChangeStatusApproved, types.ChangeStatusRejected},
}

func transitionAllowed(from, to types.ChangeStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type changeService struct {
	db         *gorm.DB
	log        *logger.Logger
	changeRepo repos.ChangeRepo
	registry   *EntityRegistry
}

func NewChangeService(db *gorm.DB, baseLog *logger.Logger, changeRepo repos.ChangeRepo, registry *EntityRegistry) ChangeService {
	return &changeService{
		db:         db,
		log:        baseLog.With("service", "ChangeService"),
		changeRepo: changeRepo,
		registry:   registry,
	}
}

func (s *changeService) Create(ctx context.Context, in CreateChangeInput) (*types.Change, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	if in.Title == "" {
		return nil, &apperr.ValidationError{EntityName: "change", Field: "title", Reason: "required"}
	}

	change := &types.Change{
		Status:      types.ChangeStatusDraft,
		Title:       in.Title,
		Description: in.Description,
		UserID:      rd.UserID,
		Sources:     in.Sources,
		Metadata:    in.Metadata,
	}
	return s.changeRepo.Create(ctx, nil, change)
}

func (s *changeService) Get(ctx context.Context, id uuid.UUID) (*types.Change, error) {
	return s.changeRepo.GetByID(ctx, nil, id)
}

func (s *changeService) List(ctx context.Context, status *types.ChangeStatus) ([]*types.Change, error) {
	return s.changeRepo.List(ctx, nil, status)
}

func (s *changeService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		change, err := s.changeRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if change.Status == types.ChangeStatusMerged {
			return &apperr.ChangeNotEditableError{ChangeID: id, Status: string(change.Status)}
		}
		return s.changeRepo.Delete(ctx, tx, id)
	})
}

// AddOrMergeEdit attaches a proposed edit to an open change. A second edit to
// the same entity within the same change folds into the existing record with
// per-field last-write-wins, never a duplicate row. For existing entities the
// current state is captured as `original` the first time.
func (s *changeService) AddOrMergeEdit(ctx context.Context, in AddEditInput) (*types.ChangeEdit, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	provider, err := s.registry.Provider(in.EntityName)
	if err != nil {
		return nil, err
	}

	var result *types.ChangeEdit
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		change, err := s.changeRepo.GetByID(ctx, tx, in.ChangeID)
		if err != nil {
			return err
		}
		if !change.Status.Editable() {
			return &apperr.ChangeNotEditableError{ChangeID: in.ChangeID, Status: string(change.Status)}
		}

		var original datatypes.JSON
		if in.EntityID != nil {
			existing, err := s.changeRepo.FindEdit(ctx, tx, in.EntityName, *in.EntityID, in.ChangeID)
			if err != nil {
				return err
			}
			if existing != nil {
				merged, err := mergeShallow(existing.Changes, in.Fields)
				if err != nil {
					return err
				}
				if err := s.changeRepo.UpdateEditChanges(ctx, tx, in.ChangeID, existing.EditID, merged); err != nil {
					return err
				}
				existing.Changes = merged
				result = existing
				return nil
			}

			snapshot, err := provider.Load(ctx, tx, *in.EntityID)
			if err != nil {
				return err
			}
			if snapshot == nil {
				return apperr.NotFound(in.EntityName, in.EntityID.String())
			}
			original, err = encodeDoc(snapshot)
			if err != nil {
				return err
			}
		}

		changes, err := encodeDoc(in.Fields)
		if err != nil {
			return err
		}
		edit := &types.ChangeEdit{
			ChangeID:    in.ChangeID,
			EntityName:  in.EntityName,
			EntityID:    in.EntityID,
			Original:    original,
			Changes:     changes,
			Suggestions: in.Suggestions,
			UserID:      rd.UserID,
			Description: in.Description,
		}
		created, err := s.changeRepo.CreateEdit(ctx, tx, edit)
		if err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *changeService) DiscardEdit(ctx context.Context, changeID uuid.UUID, editID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		change, err := s.changeRepo.GetByID(ctx, tx, changeID)
		if err != nil {
			return err
		}
		if !change.Status.Editable() {
			return &apperr.ChangeNotEditableError{ChangeID: changeID, Status: string(change.Status)}
		}
		return s.changeRepo.DeleteEdit(ctx, tx, changeID, editID)
	})
}

func (s *changeService) Transition(ctx context.Context, changeID uuid.UUID, target types.ChangeStatus) (*types.Change, error) {
	change, err := s.changeRepo.GetByID(ctx, nil, changeID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(change.Status, target) {
		return nil, &apperr.InvalidTransitionError{
			ChangeID: changeID,
			From:     string(change.Status),
			To:       string(target),
		}
	}
	if err := s.changeRepo.UpdateStatus(ctx, nil, changeID, change.Status, target); err != nil {
		return nil, err
	}
	change.Status = target
	return change, nil
}
