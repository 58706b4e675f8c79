package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChangeStatus string

const (
	ChangeStatusDraft    ChangeStatus = "DRAFT"
	ChangeStatusProposed ChangeStatus = "PROPOSED"
	ChangeStatusApproved ChangeStatus = "APPROVED"
	ChangeStatusRejected ChangeStatus = "REJECTED"
	ChangeStatusMerged   ChangeStatus = "MERGED"
)

// Editable reports whether edits may still be attached or discarded.
func (s ChangeStatus) Editable() bool {
	return s == ChangeStatusDraft || s == ChangeStatusProposed
}

// Change is a reviewable bundle of proposed entity edits.
type Change struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Status      ChangeStatus   `gorm:"column:status;not null;index" json:"status"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	UserID      uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Sources     datatypes.JSON `gorm:"column:sources;type:jsonb" json:"sources"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Edits       []*ChangeEdit  `gorm:"foreignKey:ChangeID;references:ID" json:"edits,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Change) TableName() string { return "change" }

func (c *Change) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ChangeStatusDraft
	}
	return nil
}
