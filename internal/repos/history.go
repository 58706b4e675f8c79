package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/types"
)

// HistoryRepo is append-only. There is no update or delete on purpose.
type HistoryRepo interface {
	Append(ctx context.Context, tx *gorm.DB, record *types.History) (*types.History, error)
	GetByEntity(ctx context.Context, tx *gorm.DB, entityName string, entityID uuid.UUID) ([]*types.History, error)
}

type historyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHistoryRepo(db *gorm.DB, baseLog *logger.Logger) HistoryRepo {
	return &historyRepo{db: db, log: baseLog.With("repo", "HistoryRepo")}
}

func (r *historyRepo) Append(ctx context.Context, tx *gorm.DB, record *types.History) (*types.History, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *historyRepo) GetByEntity(ctx context.Context, tx *gorm.DB, entityName string, entityID uuid.UUID) ([]*types.History, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.History
	if err := transaction.WithContext(ctx).
		Where("entity_name = ? AND entity_id = ?", entityName, entityID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
