package services

import (
	"log/slog"
	"os"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	err = db.AutoMigrate(
		&models.Profile{},
		&models.HandleReservation{},
		&models.Link{},
		&models.ClickStat{},
		&models.ViewStat{},
		&models.StatBucket{},
		&models.AuditLog{},
	)
	if err != nil {
		panic("failed to migrate database: " + err.Error())
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func createTestProfile(db *gorm.DB, identity, email string) *models.Profile {
	profile := &models.Profile{
		Identity:     identity,
		Email:        email,
		PasswordHash: "x",
		APIKey:       identity + "-key",
	}
	if err := db.Create(profile).Error; err != nil {
		panic("failed to create test profile: " + err.Error())
	}
	return profile
}
