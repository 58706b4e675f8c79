package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/repos"
	"github.com/loomery/catalog-backend/internal/requestdata"
	"github.com/loomery/catalog-backend/internal/types"
)

type testEnv struct {
	db          *gorm.DB
	ctx         context.Context
	userID      uuid.UUID
	registry    *EntityRegistry
	changeRepo  repos.ChangeRepo
	historyRepo repos.HistoryRepo
	processRepo repos.ProcessRepo
	change      ChangeService
	merge       MergeService
	directEdit  DirectEditService
	entity      EntityService
	taxonomy    TaxonomyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.Category{},
		&types.Material{},
		&types.Process{},
		&types.CategoryClosure{},
		&types.MaterialClosure{},
		&types.Change{},
		&types.ChangeEdit{},
		&types.History{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}

	changeRepo := repos.NewChangeRepo(db, log)
	historyRepo := repos.NewHistoryRepo(db, log)
	categoryRepo := repos.NewCategoryRepo(db, log)
	materialRepo := repos.NewMaterialRepo(db, log)
	processRepo := repos.NewProcessRepo(db, log)
	categoryClosure := repos.NewClosureRepo(db, log, types.CategoryClosure{}.TableName())
	materialClosure := repos.NewClosureRepo(db, log, types.MaterialClosure{}.TableName())

	registry := NewEntityRegistry()
	registry.RegisterTree(EntityCategory, NewCategoryProvider(log, categoryRepo), categoryClosure)
	registry.RegisterTree(EntityMaterial, NewMaterialProvider(log, materialRepo), materialClosure)
	registry.Register(EntityProcess, NewProcessProvider(log, processRepo))

	changeSvc := NewChangeService(db, log, changeRepo, registry)

	userID := uuid.New()
	return &testEnv{
		db:          db,
		ctx:         requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID}),
		userID:      userID,
		registry:    registry,
		changeRepo:  changeRepo,
		historyRepo: historyRepo,
		processRepo: processRepo,
		change:      changeSvc,
		merge:       NewMergeService(db, log, changeRepo, historyRepo, registry),
		directEdit:  NewDirectEditService(log, changeRepo, registry),
		entity:      NewEntityService(db, log, registry, changeSvc),
		taxonomy:    NewTaxonomyService(db, log, registry),
	}
}

func (env *testEnv) newChange(t *testing.T, title string) *types.Change {
	t.Helper()
	change, err := env.change.Create(env.ctx, CreateChangeInput{Title: title})
	if err != nil {
		t.Fatalf("create change: %v", err)
	}
	return change
}

func (env *testEnv) approve(t *testing.T, changeID uuid.UUID) {
	t.Helper()
	if _, err := env.change.Transition(env.ctx, changeID, types.ChangeStatusProposed); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := env.change.Transition(env.ctx, changeID, types.ChangeStatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (env *testEnv) createProcess(t *testing.T, name string) uuid.UUID {
	t.Helper()
	result, err := env.entity.Create(env.ctx, EntityProcess, map[string]interface{}{"name": name}, nil)
	if err != nil {
		t.Fatalf("create process: %v", err)
	}
	return *result.EntityID
}
