package database

import (
	"fmt"

	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReceiptCounterID is the single row holding the receipt sequence.
const ReceiptCounterID = 1

// Migrate creates the schema and seeds default settings plus the receipt
// counter. It is safe to run on every start.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.CleaningLog{},
		&models.MenuCategory{},
		&models.Menu{},
		&models.Package{},
		&models.Session{},
		&models.Order{},
		&models.OrderItem{},
		&models.Member{},
		&models.MemberPoint{},
		&models.Receipt{},
		&models.ReceiptCounter{},
		&models.Payment{},
		&models.Setting{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	for key, value := range models.DefaultSettings {
		setting := models.Setting{Key: key, Value: value}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}

	counter := models.ReceiptCounter{ID: ReceiptCounterID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
		return fmt.Errorf("failed to seed receipt counter: %w", err)
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
