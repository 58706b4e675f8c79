package app

import (
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/services"
)

type Services struct {
	Registry   *services.EntityRegistry
	Change     services.ChangeService
	Merge      services.MergeService
	DirectEdit services.DirectEditService
	Entity     services.EntityService
	Taxonomy   services.TaxonomyService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos) Services {
	log.Info("Wiring services...")

	// Entity registration happens exactly once, here. Tree-shaped entities
	// carry their closure store; flat entities register bare.
	registry := services.NewEntityRegistry()
	registry.RegisterTree(services.EntityCategory, services.NewCategoryProvider(log, reposet.Category), reposet.CategoryClosure)
	registry.RegisterTree(services.EntityMaterial, services.NewMaterialProvider(log, reposet.Material), reposet.MaterialClosure)
	registry.Register(services.EntityProcess, services.NewProcessProvider(log, reposet.Process))

	changeService := services.NewChangeService(db, log, reposet.Change, registry)
	mergeService := services.NewMergeService(db, log, reposet.Change, reposet.History, registry)
	directEditService := services.NewDirectEditService(log, reposet.Change, registry)
	entityService := services.NewEntityService(db, log, registry, changeService)
	taxonomyService := services.NewTaxonomyService(db, log, registry)

	return Services{
		Registry:   registry,
		Change:     changeService,
		Merge:      mergeService,
		DirectEdit: directEditService,
		Entity:     entityService,
		Taxonomy:   taxonomyService,
	}
}
