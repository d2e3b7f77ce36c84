package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

// Rates are the percentages applied by the bill calculation.
type Rates struct {
	VATPercent           decimal.Decimal
	ServiceChargePercent decimal.Decimal
}

// PointRates convert between loyalty points and baht.
type PointRates struct {
	BahtPerPoint  decimal.Decimal
	PointsPerBaht decimal.Decimal
}

// GetSetting reads a decimal setting, falling back to models.DefaultSettings
// when the key has no row. Settings are read live on every call.
func GetSetting(db *gorm.DB, key string) (decimal.Decimal, error) {
	raw, ok := models.DefaultSettings[key]

	var setting models.Setting
	err := db.Where(&models.Setting{Key: key}).Take(&setting).Error
	switch {
	case err == nil:
		raw = setting.Value
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: setting %s", ErrNotFound, key)
		}
	default:
		return decimal.Zero, fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("setting %s has non-numeric value %q: %w", key, raw, err)
	}
	return value, nil
}

// SetSetting upserts a setting value.
func SetSetting(db *gorm.DB, key string, value decimal.Decimal) error {
	setting := models.Setting{Key: key, Value: value.String()}
	if err := db.Save(&setting).Error; err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// LoadRates reads the current VAT and service charge percentages.
func LoadRates(db *gorm.DB) (Rates, error) {
	vat, err := GetSetting(db, models.SettingVATPercent)
	if err != nil {
		return Rates{}, err
	}
	service, err := GetSetting(db, models.SettingServiceChargePercent)
	if err != nil {
		return Rates{}, err
	}
	return Rates{VATPercent: vat, ServiceChargePercent: service}, nil
}

// LoadPointRates reads the loyalty conversion settings.
func LoadPointRates(db *gorm.DB) (PointRates, error) {
	bpp, err := GetSetting(db, models.SettingBahtPerPoint)
	if err != nil {
		return PointRates{}, err
	}
	ppb, err := GetSetting(db, models.SettingPointsPerBaht)
	if err != nil {
		return PointRates{}, err
	}
	return PointRates{BahtPerPoint: bpp, PointsPerBaht: ppb}, nil
}
