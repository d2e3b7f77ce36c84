package models

import "time"

// Table status values
const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableReserved  = "reserved"
	TableCleaning  = "cleaning"
)

type Table struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TableNumber      string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"table_number"`
	Capacity         int       `gorm:"not null;default:4" json:"capacity"`
	Zone             string    `gorm:"type:varchar(50)" json:"zone"`
	Status           string    `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	OutOfService     bool      `gorm:"not null;default:false" json:"out_of_service"`
	OutOfServiceNote string    `gorm:"type:varchar(255)" json:"out_of_service_note,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}
