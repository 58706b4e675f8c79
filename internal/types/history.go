package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// History is the append-only audit trail. One row is written per ChangeEdit at
// merge time, in the merge transaction. Rows are never updated or deleted.
type History struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EntityName string         `gorm:"column:entity_name;not null;index:idx_history_entity" json:"entity_name"`
	EntityID   uuid.UUID      `gorm:"type:uuid;column:entity_id;not null;index:idx_history_entity" json:"entity_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;column:user_id;not null" json:"user_id"`
	Original   datatypes.JSON `gorm:"column:original;type:jsonb" json:"original"`
	Changes    datatypes.JSON `gorm:"column:changes;type:jsonb" json:"changes"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (History) TableName() string { return "history" }

func (h *History) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
