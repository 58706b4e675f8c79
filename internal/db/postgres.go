package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/types"
	"github.com/loomery/catalog-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "catalog", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Category{},
		&types.Material{},
		&types.Process{},
		&types.CategoryClosure{},
		&types.MaterialClosure{},
		&types.Change{},
		&types.ChangeEdit{},
		&types.History{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		ddl  string
	}{
		{
			name: "fk_change_edit_change_id",
			ddl: `ALTER TABLE "change_edit"
				ADD CONSTRAINT "fk_change_edit_change_id"
				FOREIGN KEY ("change_id") REFERENCES "change"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_category_closure_ancestor",
			ddl: `ALTER TABLE "category_closure"
				ADD CONSTRAINT "fk_category_closure_ancestor"
				FOREIGN KEY ("ancestor") REFERENCES "category"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_category_closure_descendant",
			ddl: `ALTER TABLE "category_closure"
				ADD CONSTRAINT "fk_category_closure_descendant"
				FOREIGN KEY ("descendant") REFERENCES "category"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_material_closure_ancestor",
			ddl: `ALTER TABLE "material_closure"
				ADD CONSTRAINT "fk_material_closure_ancestor"
				FOREIGN KEY ("ancestor") REFERENCES "material"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_material_closure_descendant",
			ddl: `ALTER TABLE "material_closure"
				ADD CONSTRAINT "fk_material_closure_descendant"
				FOREIGN KEY ("descendant") REFERENCES "material"("id")
				ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		var exists bool
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error; err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			s.log.Error("Failed to add constraint", "constraint", c.name, "error", err)
			return err
		}
	}
	return nil
}
