package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: journey tables.
		{
			ID: "001_journey_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Session{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&Character{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&TimelineEvent{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&CostLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("sessions", "characters", "timeline_events", "cost_log")
			},
		},
	})

	return m.Migrate()
}
