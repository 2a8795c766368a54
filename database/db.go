package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
)

// ConnectDB opens the postgres connection and brings the schema up to date.
func ConnectDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to the database successfully")
	return db, nil
}

// migrate creates tables, foreign keys and the composite unique indexes that
// back the (author, title) and (title, genre) invariants.
func migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Title{}, "Genres", &models.TitleGenre{}); err != nil {
		return fmt.Errorf("failed to set up title_genres join table: %w", err)
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.TitleGenre{},
		&models.Review{},
		&models.Comment{},
	)
}
