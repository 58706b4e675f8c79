package app

import (
	"github.com/loomery/catalog-backend/internal/handlers"
	"github.com/loomery/catalog-backend/internal/logger"
)

type Handlers struct {
	Change   *handlers.ChangeHandler
	Entity   *handlers.EntityHandler
	Taxonomy *handlers.TaxonomyHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Change:   handlers.NewChangeHandler(log, serviceset.Change, serviceset.Merge),
		Entity:   handlers.NewEntityHandler(log, serviceset.Entity, serviceset.DirectEdit),
		Taxonomy: handlers.NewTaxonomyHandler(log, serviceset.Taxonomy),
	}
}
