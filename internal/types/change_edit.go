package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChangeEdit is one proposed create or update inside a Change. EntityID is nil
// for a pending create. EditID ascends per change and fixes merge order.
// The partial unique index holds the one-edit-per-entity-per-change invariant
// against racing writers; pending creates (NULL entity_id) are exempt.
type ChangeEdit struct {
	ChangeID    uuid.UUID      `gorm:"type:uuid;column:change_id;primaryKey;index:udx_change_edit_entity,unique,priority:1" json:"change_id"`
	EditID      int            `gorm:"column:edit_id;primaryKey;autoIncrement:false" json:"edit_id"`
	EntityName  string         `gorm:"column:entity_name;not null;index:idx_change_edit_target;index:udx_change_edit_entity,unique,priority:2" json:"entity_name"`
	EntityID    *uuid.UUID     `gorm:"type:uuid;column:entity_id;index:idx_change_edit_target;index:udx_change_edit_entity,unique,priority:3,where:entity_id IS NOT NULL" json:"entity_id"`
	Original    datatypes.JSON `gorm:"column:original;type:jsonb" json:"original"`
	Changes     datatypes.JSON `gorm:"column:changes;type:jsonb" json:"changes"`
	Suggestions datatypes.JSON `gorm:"column:suggestions;type:jsonb" json:"suggestions"`
	UserID      uuid.UUID      `gorm:"type:uuid;column:user_id;not null" json:"user_id"`
	Description string         `gorm:"column:description" json:"description"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (ChangeEdit) TableName() string { return "change_edit" }
