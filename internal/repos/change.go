package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/types"
)

type ChangeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, change *types.Change) (*types.Change, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Change, error)
	List(ctx context.Context, tx *gorm.DB, status *types.ChangeStatus) ([]*types.Change, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.ChangeStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	CreateEdit(ctx context.Context, tx *gorm.DB, edit *types.ChangeEdit) (*types.ChangeEdit, error)
	UpdateEditChanges(ctx context.Context, tx *gorm.DB, changeID uuid.UUID, editID int, changes datatypes.JSON) error
	DeleteEdit(ctx context.Context, tx *gorm.DB, changeID uuid.UUID, editID int) error
	GetEdit(ctx context.Context, tx *gorm.DB, changeID uuid.UUID, editID int) (*types.ChangeEdit, error)
	FindEdit(ctx context.Context, tx *gorm.DB, entityName string, entityID uuid.UUID, changeID uuid.UUID) (*types.ChangeEdit, error)
}

type changeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChangeRepo(db *gorm.DB, baseLog *logger.Logger) ChangeRepo {
	return &changeRepo{db: db, log: baseLog.With("repo", "ChangeRepo")}
}

func (r *changeRepo) Create(ctx context.Context, tx *gorm.DB, change *types.Change) (*types.Change, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(change).Error; err != nil {
		return nil, err
	}
	return change, nil
}

func (r *changeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Change, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var change types.Change
	err := transaction.WithContext(ctx).
		Preload("Edits", func(db *gorm.DB) *gorm.DB {
			return db.Order("edit_id ASC")
		}).
		Where("id = ?", id).
		First(&change).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("change", id.String())
		}
		return nil, err
	}
	return &change, nil
}

func (r *changeRepo) List(ctx context.Context, tx *gorm.DB, status *types.ChangeStatus) ([]*types.Change, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Change
	q := transaction.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatus is a compare-and-swap: the row only moves when it still holds
// the status the caller read. A racing transition loses the swap instead of
// overwriting a terminal state.
func (r *changeRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.ChangeStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Change{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := r.GetByID(ctx, transaction, id)
		if err != nil {
			return err
		}
		return &apperr.InvalidTransitionError{
			ChangeID: id,
			From:     string(current.Status),
			To:       string(to),
		}
	}
	return nil
}

func (r *changeRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("change_id = ?", id).
		Delete(&types.ChangeEdit{}).Error; err != nil {
		return err
	}
	res := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Change{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("change", id.String())
	}
	return nil
}

// CreateEdit assigns the next ascending edit id within the change. Callers
// run this inside a transaction when racing edits on one change matters.
func (r *changeRepo) CreateEdit(ctx context.Context, tx *gorm.DB, edit *types.ChangeEdit) (*types.ChangeEdit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if edit.EditID == 0 {
		var maxEditID int
		err := transaction.WithContext(ctx).
			Model(&types.ChangeEdit{}).
			Where("change_id = ?", edit.ChangeID).
			Select("COALESCE(MAX(edit_id), 0)").
			Scan(&maxEditID).Error
		if err != nil {
			return nil, err
		}
		edit.EditID = maxEditID + 1
	}

	if err := transaction.WithContext(ctx).Create(edit).Error; err != nil {
		return nil, err
	}
	return edit, nil
}

func (r *changeRepo) UpdateEditChanges(ctx context.Context, tx *gorm.DB, changeID uuid.UUID, editID int, changes datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.ChangeEdit{}).
		Where("change_id = ? AND edit_id = ?", changeID, editID).
		Update("changes", changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("change edit", changeID.String())
	}
	return nil
}

func (r *changeRepo) DeleteEdit(ctx context.Context, tx *gorm.DB, changeID uuid.UUID, editID int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("change_id = ? AND edit_id = ?", changeID, editID).
		Delete(&types.ChangeEdit{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("change edit", changeID.String())
	}
	return nil
}

func (r *changeRepo) GetEdit(ctx context.Context, tx *gorm.DB, changeID uuid.UUID, editID int) (*types.ChangeEdit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var edit types.ChangeEdit
	err := transaction.WithContext(ctx).
		Where("change_id = ? AND edit_id = ?", changeID, editID).
		First(&edit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("change edit", changeID.String())
		}
		return nil, err
	}
	return &edit, nil
}

// FindEdit returns the pending edit for an existing entity within a change,
// or nil when the change holds none. Pending creates carry no entity id and
// are not addressable here.
func (r *changeRepo) FindEdit(ctx context.Context, tx *gorm.DB, entityName string, entityID uuid.UUID, changeID uuid.UUID) (*types.ChangeEdit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var edit types.ChangeEdit
	err := transaction.WithContext(ctx).
		Where("change_id = ? AND entity_name = ? AND entity_id = ?", changeID, entityName, entityID).
		First(&edit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edit, nil
}
