package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/repos"
)

// DirectEdit is the preview of an entity as it would look after a pending
// change is applied. Exactly one of CreateInput/UpdateInput is set: ID nil
// with CreateInput for the create form, ID set with UpdateInput otherwise.
type DirectEdit struct {
	EntityName  string                 `json:"entity_name"`
	ID          *uuid.UUID             `json:"id"`
	CreateInput map[string]interface{} `json:"create_input,omitempty"`
	UpdateInput map[string]interface{} `json:"update_input,omitempty"`
}

type DirectEditService interface {
	Resolve(ctx context.Context, entityName string, entityID *uuid.UUID, changeID *uuid.UUID) (*DirectEdit, error)
}

type directEditService struct {
	log        *logger.Logger
	changeRepo repos.ChangeRepo
	registry   *EntityRegistry
}

func NewDirectEditService(baseLog *logger.Logger, changeRepo repos.ChangeRepo, registry *EntityRegistry) DirectEditService {
	return &directEditService{
		log:        baseLog.With("service", "DirectEditService"),
		changeRepo: changeRepo,
		registry:   registry,
	}
}

func (s *directEditService) Resolve(ctx context.Context, entityName string, entityID *uuid.UUID, changeID *uuid.UUID) (*DirectEdit, error) {
	provider, err := s.registry.Provider(entityName)
	if err != nil {
		return nil, err
	}

	if entityID == nil {
		return &DirectEdit{
			EntityName:  entityName,
			CreateInput: provider.DefaultCreateInput(),
		}, nil
	}

	snapshot, err := provider.Load(ctx, nil, *entityID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, apperr.NotFound(entityName, entityID.String())
	}

	if changeID != nil {
		edit, err := s.changeRepo.FindEdit(ctx, nil, entityName, *entityID, *changeID)
		if err != nil {
			return nil, err
		}
		if edit != nil {
			changes, err := decodeDoc(edit.Changes)
			if err != nil {
				return nil, err
			}
			snapshot = mergeDeep(snapshot, changes)
		}
	}

	snapshot["id"] = entityID.String()
	return &DirectEdit{
		EntityName:  entityName,
		ID:          entityID,
		UpdateInput: snapshot,
	}, nil
}
