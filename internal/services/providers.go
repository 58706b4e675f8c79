package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/repos"
	"github.com/loomery/catalog-backend/internal/types"
)

// Entity names as registered in the dispatch table. These are wire-visible.
const (
	EntityCategory = "category"
	EntityMaterial = "material"
	EntityProcess  = "process"
)

func fieldString(entityName string, fields map[string]interface{}, key string) (string, bool, error) {
	v, ok := fields[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, &apperr.ValidationError{EntityName: entityName, Field: key, Reason: "expected a string"}
	}
	return s, true, nil
}

func fieldUUIDPtr(entityName string, fields map[string]interface{}, key string) (*uuid.UUID, bool, error) {
	v, ok := fields[key]
	if !ok {
		return nil, false, nil
	}
	if v == nil {
		return nil, true, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, false, &apperr.ValidationError{EntityName: entityName, Field: key, Reason: "expected a uuid string or null"}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, false, &apperr.ValidationError{EntityName: entityName, Field: key, Reason: "not a valid uuid"}
	}
	return &id, true, nil
}

func rejectUnknownFields(entityName string, fields map[string]interface{}, allowed ...string) error {
	allowedSet := map[string]bool{"id": true}
	for _, k := range allowed {
		allowedSet[k] = true
	}
	for k := range fields {
		if !allowedSet[k] {
			return &apperr.ValidationError{EntityName: entityName, Field: k, Reason: "unknown field"}
		}
	}
	return nil
}

func uuidPtrString(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

// categoryProvider exposes product categories to the change/merge protocol.
type categoryProvider struct {
	log  *logger.Logger
	repo repos.CategoryRepo
}

func NewCategoryProvider(baseLog *logger.Logger, repo repos.CategoryRepo) SnapshotProvider {
	return &categoryProvider{log: baseLog.With("provider", "CategoryProvider"), repo: repo}
}

func (p *categoryProvider) Load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (map[string]interface{}, error) {
	row, err := p.repo.GetByID(ctx, tx, id)
	if err != nil || row == nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":          row.ID.String(),
		"name":        row.Name,
		"description": row.Description,
		"parentId":    uuidPtrString(row.ParentID),
	}, nil
}

func (p *categoryProvider) DefaultCreateInput() map[string]interface{} {
	return map[string]interface{}{
		"name":        "",
		"description": "",
		"parentId":    nil,
	}
}

func (p *categoryProvider) ApplyCreate(ctx context.Context, tx *gorm.DB, fields map[string]interface{}) (uuid.UUID, error) {
	if err := rejectUnknownFields(EntityCategory, fields, "name", "description", "parentId"); err != nil {
		return uuid.Nil, err
	}
	row := &types.Category{}
	if name, ok, err := fieldString(EntityCategory, fields, "name"); err != nil {
		return uuid.Nil, err
	} else if ok {
		row.Name = name
	}
	if desc, ok, err := fieldString(EntityCategory, fields, "description"); err != nil {
		return uuid.Nil, err
	} else if ok {
		row.Description = desc
	}
	parentID, _, err := fieldUUIDPtr(EntityCategory, fields, "parentId")
	if err != nil {
		return uuid.Nil, err
	}
	row.ParentID = parentID
	if _, err := p.repo.Create(ctx, tx, row); err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (p *categoryProvider) ApplyUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if err := rejectUnknownFields(EntityCategory, fields, "name", "description", "parentId"); err != nil {
		return err
	}
	columns := map[string]interface{}{}
	if name, ok, err := fieldString(EntityCategory, fields, "name"); err != nil {
		return err
	} else if ok {
		columns["name"] = name
	}
	if desc, ok, err := fieldString(EntityCategory, fields, "description"); err != nil {
		return err
	} else if ok {
		columns["description"] = desc
	}
	if parentID, ok, err := fieldUUIDPtr(EntityCategory, fields, "parentId"); err != nil {
		return err
	} else if ok {
		columns["parent_id"] = parentID
	}
	if len(columns) == 0 {
		// Still require the row to exist so an empty update on a missing
		// entity fails like any other.
		row, err := p.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return apperr.NotFound(EntityCategory, id.String())
		}
		return nil
	}
	return p.repo.UpdateColumns(ctx, tx, id, columns)
}

func (p *categoryProvider) SoftDelete(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return p.repo.SoftDeleteByIDs(ctx, tx, ids)
}

// materialProvider exposes the material taxonomy to the change/merge protocol.
type materialProvider struct {
	log  *logger.Logger
	repo repos.MaterialRepo
}

func NewMaterialProvider(baseLog *logger.Logger, repo repos.MaterialRepo) SnapshotProvider {
	return &materialProvider{log: baseLog.With("provider", "MaterialProvider"), repo: repo}
}

func (p *materialProvider) Load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (map[string]interface{}, error) {
	row, err := p.repo.GetByID(ctx, tx, id)
	if err != nil || row == nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":          row.ID.String(),
		"name":        row.Name,
		"description": row.Description,
		"parentId":    uuidPtrString(row.ParentID),
	}, nil
}

func (p *materialProvider) DefaultCreateInput() map[string]interface{} {
	return map[string]interface{}{
		"name":        "",
		"description": "",
		"parentId":    nil,
	}
}

func (p *materialProvider) ApplyCreate(ctx context.Context, tx *gorm.DB, fields map[string]interface{}) (uuid.UUID, error) {
	if err := rejectUnknownFields(EntityMaterial, fields, "name", "description", "parentId"); err != nil {
		return uuid.Nil, err
	}
	row := &types.Material{}
	if name, ok, err := fieldString(EntityMaterial, fields, "name"); err != nil {
		return uuid.Nil, err
	} else if ok {
		row.Name = name
	}
	if desc, ok, err := fieldString(EntityMaterial, fields, "description"); err != nil {
		return uuid.Nil, err
	} else if ok {
		row.Description = desc
	}
	parentID, _, err := fieldUUIDPtr(EntityMaterial, fields, "parentId")
	if err != nil {
		return uuid.Nil, err
	}
	row.ParentID = parentID
	if _, err := p.repo.Create(ctx, tx, row); err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (p *materialProvider) ApplyUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if err := rejectUnknownFields(EntityMaterial, fields, "name", "description", "parentId"); err != nil {
		return err
	}
	columns := map[string]interface{}{}
	if name, ok, err := fieldString(EntityMaterial, fields, "name"); err != nil {
		return err
	} else if ok {
		columns["name"] = name
	}
	if desc, ok, err := fieldString(EntityMaterial, fields, "description"); err != nil {
		return err
	} else if ok {
		columns["description"] = desc
	}
	if parentID, ok, err := fieldUUIDPtr(EntityMaterial, fields, "parentId"); err != nil {
		return err
	} else if ok {
		columns["parent_id"] = parentID
	}
	if len(columns) == 0 {
		row, err := p.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return apperr.NotFound(EntityMaterial, id.String())
		}
		return nil
	}
	return p.repo.UpdateColumns(ctx, tx, id, columns)
}

func (p *materialProvider) SoftDelete(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return p.repo.SoftDeleteByIDs(ctx, tx, ids)
}

// processProvider exposes production processes. Flat entity, no tree wiring.
type processProvider struct {
	log  *logger.Logger
	repo repos.ProcessRepo
}

func NewProcessProvider(baseLog *logger.Logger, repo repos.ProcessRepo) SnapshotProvider {
	return &processProvider{log: baseLog.With("provider", "ProcessProvider"), repo: repo}
}

func (p *processProvider) Load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (map[string]interface{}, error) {
	row, err := p.repo.GetByID(ctx, tx, id)
	if err != nil || row == nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":          row.ID.String(),
		"name":        row.Name,
		"description": row.Description,
		"kind":        row.Kind,
	}, nil
}

func (p *processProvider) DefaultCreateInput() map[string]interface{} {
	return map[string]interface{}{
		"name":        "",
		"description": "",
		"kind":        "",
	}
}

func (p *processProvider) ApplyCreate(ctx context.Context, tx *gorm.DB, fields map[string]interface{}) (uuid.UUID, error) {
	if err := rejectUnknownFields(EntityProcess, fields, "name", "description", "kind"); err != nil {
		return uuid.Nil, err
	}
	row := &types.Process{}
	if name, ok, err := fieldString(EntityProcess, fields, "name"); err != nil {
		return uuid.Nil, err
	} else if ok {
		row.Name = name
	}
	if desc, ok, err := fieldString(EntityProcess, fields, "description"); err != nil {
		return uuid.Nil, err
	} else if ok {
		row.Description = desc
	}
	if kind, ok, err := fieldString(EntityProcess, fields, "kind"); err != nil {
		return uuid.Nil, err
	} else if ok {
		row.Kind = kind
	}
	if _, err := p.repo.Create(ctx, tx, row); err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (p *processProvider) ApplyUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if err := rejectUnknownFields(EntityProcess, fields, "name", "description", "kind"); err != nil {
		return err
	}
	columns := map[string]interface{}{}
	if name, ok, err := fieldString(EntityProcess, fields, "name"); err != nil {
		return err
	} else if ok {
		columns["name"] = name
	}
	if desc, ok, err := fieldString(EntityProcess, fields, "description"); err != nil {
		return err
	} else if ok {
		columns["description"] = desc
	}
	if kind, ok, err := fieldString(EntityProcess, fields, "kind"); err != nil {
		return err
	} else if ok {
		columns["kind"] = kind
	}
	if len(columns) == 0 {
		row, err := p.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return apperr.NotFound(EntityProcess, id.String())
		}
		return nil
	}
	return p.repo.UpdateColumns(ctx, tx, id, columns)
}

func (p *processProvider) SoftDelete(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return p.repo.SoftDeleteByIDs(ctx, tx, ids)
}
