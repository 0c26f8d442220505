package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ksred/klear-datagen/internal/database/migrations"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPath is used when no database path is configured
const DefaultPath = "klear-datagen.db"

// NewDatabase opens the SQLite database at path, creating it if needed, and
// brings the schema up to date.
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the migrations and auto-migrates the remaining schemas
func Migrate(db *gorm.DB) error {
	if err := migrations.AddScenarioRecords(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.AutoMigrate(&DatasetDocument{}); err != nil {
		return err
	}

	return nil
}
