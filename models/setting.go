package models

import "time"

// Setting keys
const (
	SettingVATPercent           = "vat_percent"
	SettingServiceChargePercent = "service_charge_percent"
	SettingBahtPerPoint         = "baht_per_point"
	SettingPointsPerBaht        = "points_per_baht"
)

// DefaultSettings are used when a key has no row.
var DefaultSettings = map[string]string{
	SettingVATPercent:           "7",
	SettingServiceChargePercent: "10",
	SettingBahtPerPoint:         "1",
	SettingPointsPerBaht:        "0.01",
}

type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"type:varchar(255);not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
