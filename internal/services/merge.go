package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/repos"
	"github.com/loomery/catalog-backend/internal/requestdata"
	"github.com/loomery/catalog-backend/internal/types"
)

// MergeService applies an approved change: every edit in one transaction, in
// ascending edit id order, with one History row per edit. Updates hit the
// live row with last-applied-wins semantics; concurrent external writes since
// the edit was captured are overwritten, not treated as conflicts. Any
// failure rolls the whole merge back and the change stays APPROVED.
type MergeService interface {
	Merge(ctx context.Context, changeID uuid.UUID) (*types.Change, error)
}

type mergeService struct {
	db          *gorm.DB
	log         *logger.Logger
	changeRepo  repos.ChangeRepo
	historyRepo repos.HistoryRepo
	registry    *EntityRegistry
}

func NewMergeService(db *gorm.DB, baseLog *logger.Logger, changeRepo repos.ChangeRepo, historyRepo repos.HistoryRepo, registry *EntityRegistry) MergeService {
	return &mergeService{
		db:          db,
		log:         baseLog.With("service", "MergeService"),
		changeRepo:  changeRepo,
		historyRepo: historyRepo,
		registry:    registry,
	}
}

func (s *mergeService) Merge(ctx context.Context, changeID uuid.UUID) (*types.Change, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		change, err := s.changeRepo.GetByID(ctx, tx, changeID)
		if err != nil {
			return err
		}
		if change.Status != types.ChangeStatusApproved {
			return &apperr.InvalidTransitionError{
				ChangeID: changeID,
				From:     string(change.Status),
				To:       string(types.ChangeStatusMerged),
			}
		}

		// Edits arrive preloaded in ascending edit_id order.
		for _, edit := range change.Edits {
			if err := s.applyEdit(ctx, tx, rd.UserID, edit); err != nil {
				s.log.Warn("merge failed, rolling back",
					"change_id", changeID, "edit_id", edit.EditID, "entity", edit.EntityName, "error", err)
				return err
			}
		}

		return s.changeRepo.UpdateStatus(ctx, tx, changeID, types.ChangeStatusApproved, types.ChangeStatusMerged)
	})
	if err != nil {
		return nil, err
	}

	merged, err := s.changeRepo.GetByID(ctx, nil, changeID)
	if err != nil {
		return nil, err
	}
	s.log.Info("change merged", "change_id", changeID, "edits", len(merged.Edits))
	return merged, nil
}

func (s *mergeService) applyEdit(ctx context.Context, tx *gorm.DB, actingUser uuid.UUID, edit *types.ChangeEdit) error {
	binding, err := s.registry.Binding(edit.EntityName)
	if err != nil {
		return err
	}
	changes, err := decodeDoc(edit.Changes)
	if err != nil {
		return err
	}

	var entityID uuid.UUID
	if edit.EntityID == nil {
		newID, err := binding.Provider.ApplyCreate(ctx, tx, changes)
		if err != nil {
			return err
		}
		entityID = newID
		if binding.Tree != nil {
			parentID, _, err := fieldUUIDPtr(edit.EntityName, changes, "parentId")
			if err != nil {
				return err
			}
			if parentID != nil {
				err = binding.Tree.InsertLeafNode(ctx, tx, entityID, *parentID)
			} else {
				err = binding.Tree.InsertRootNode(ctx, tx, entityID)
			}
			if err != nil {
				return err
			}
		}
	} else {
		entityID = *edit.EntityID
		if err := binding.Provider.ApplyUpdate(ctx, tx, entityID, changes); err != nil {
			return err
		}
		if binding.Tree != nil {
			parentID, present, err := fieldUUIDPtr(edit.EntityName, changes, "parentId")
			if err != nil {
				return err
			}
			if present {
				if parentID == nil {
					return &apperr.ValidationError{EntityName: edit.EntityName, Field: "parentId", Reason: "cannot be cleared on an existing node"}
				}
				if err := binding.Tree.MoveSubtree(ctx, tx, entityID, *parentID); err != nil {
					return err
				}
			}
		}
	}

	_, err = s.historyRepo.Append(ctx, tx, &types.History{
		EntityName: edit.EntityName,
		EntityID:   entityID,
		UserID:     actingUser,
		Original:   edit.Original,
		Changes:    edit.Changes,
	})
	return err
}
