package db

import (
	"github.com/devevents/devevents/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase(conn *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.AccessToken{},
		&models.Category{},
		&models.Event{},
	}

	migrator := conn.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := conn.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedCategories inserts the fixed category reference data. Categories are
// immutable, so existing rows are left untouched.
func SeedCategories(conn *gorm.DB) error {
	names := []string{"Drinks", "Culture", "Film", "Food", "Music", "Travel"}

	for _, name := range names {
		category := models.Category{Name: name}

		if err := conn.Where("name = ?", name).FirstOrCreate(&category).Error; err != nil {
			return err
		}
	}

	return nil
}
