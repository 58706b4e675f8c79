package app

import (
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/repos"
	"github.com/loomery/catalog-backend/internal/types"
)

type Repos struct {
	Change          repos.ChangeRepo
	History         repos.HistoryRepo
	Category        repos.CategoryRepo
	Material        repos.MaterialRepo
	Process         repos.ProcessRepo
	CategoryClosure repos.ClosureRepo
	MaterialClosure repos.ClosureRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Change:          repos.NewChangeRepo(db, log),
		History:         repos.NewHistoryRepo(db, log),
		Category:        repos.NewCategoryRepo(db, log),
		Material:        repos.NewMaterialRepo(db, log),
		Process:         repos.NewProcessRepo(db, log),
		CategoryClosure: repos.NewClosureRepo(db, log, types.CategoryClosure{}.TableName()),
		MaterialClosure: repos.NewClosureRepo(db, log, types.MaterialClosure{}.TableName()),
	}
}
