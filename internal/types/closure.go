package types

import (
	"github.com/google/uuid"
)

// Closure tables hold one row per (ancestor, descendant) pair reachable in the
// tree, with depth = path length. Every node carries a depth-0 self-edge. The
// composite primary key doubles as the write-write conflict surface under
// concurrent subtree mutation.

type CategoryClosure struct {
	Ancestor   uuid.UUID `gorm:"type:uuid;column:ancestor;primaryKey" json:"ancestor"`
	Descendant uuid.UUID `gorm:"type:uuid;column:descendant;primaryKey;index:idx_category_closure_descendant" json:"descendant"`
	Depth      int       `gorm:"column:depth;not null" json:"depth"`
}

func (CategoryClosure) TableName() string { return "category_closure" }

type MaterialClosure struct {
	Ancestor   uuid.UUID `gorm:"type:uuid;column:ancestor;primaryKey" json:"ancestor"`
	Descendant uuid.UUID `gorm:"type:uuid;column:descendant;primaryKey;index:idx_material_closure_descendant" json:"descendant"`
	Depth      int       `gorm:"column:depth;not null" json:"depth"`
}

func (MaterialClosure) TableName() string { return "material_closure" }
