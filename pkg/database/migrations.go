package database

import (
	"log"

	"SupportChat/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func tables() []any {
	return []any{
		&models.Conversation{}, &models.Message{}, &models.Feedback{}, &models.Analytics{}, &models.Operator{},
	}
}

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "1_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(tables()...)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(tables()...)
			},
		},
		{
			ID: "2_dashboard_views",
			Migrate: func(tx *gorm.DB) error {
				return CreateViews(tx)
			},
			Rollback: func(tx *gorm.DB) error {
				return DropViews(tx)
			},
		},
	})

	migrator.InitSchema(func(tx *gorm.DB) error {
		// Runs when no previous migration is recorded and creates the
		// latest schema directly.
		log.Println("[db] clean database detected, running full schema initialization")

		if err := tx.AutoMigrate(tables()...); err != nil {
			return err
		}
		return CreateViews(tx)
	})

	return migrator
}

// Migrate brings the schema, including the dashboard views, up to date.
func Migrate(db *gorm.DB) error {
	return GetMigrator(db).Migrate()
}
