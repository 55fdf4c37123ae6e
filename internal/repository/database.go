package repository

import (
	"fmt"
	"os"

	"github.com/Alex-T-Coder/lgcy-app/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	// TranslateError lets callers detect unique-constraint races via
	// gorm.ErrDuplicatedKey (thread pair creation relies on this).
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Message{},
		&models.Notification{},
		&models.Timeline{},
		&models.TimelineFollower{},
		&models.Post{},
		&models.PostShareUser{},
		&models.PostShareTimeline{},
		&models.Comment{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
