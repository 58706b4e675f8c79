package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/types"
)

type ProcessRepo interface {
	Create(ctx context.Context, tx *gorm.DB, process *types.Process) (*types.Process, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Process, error)
	UpdateColumns(ctx context.Context, tx *gorm.DB, id uuid.UUID, columns map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type processRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessRepo(db *gorm.DB, baseLog *logger.Logger) ProcessRepo {
	return &processRepo{db: db, log: baseLog.With("repo", "ProcessRepo")}
}

func (r *processRepo) Create(ctx context.Context, tx *gorm.DB, process *types.Process) (*types.Process, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(process).Error; err != nil {
		return nil, err
	}
	return process, nil
}

func (r *processRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Process, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var process types.Process
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&process).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &process, nil
}

func (r *processRepo) UpdateColumns(ctx context.Context, tx *gorm.DB, id uuid.UUID, columns map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(columns) == 0 {
		return nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.Process{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("process", id.String())
	}
	return nil
}

func (r *processRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Process{}).Error
}
