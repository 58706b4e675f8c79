package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Process is a production process step. Flat entity, no closure table; it
// participates in the change/merge protocol like any other registered entity.
type Process struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Kind        string         `gorm:"column:kind" json:"kind"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Process) TableName() string { return "process" }

func (p *Process) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
