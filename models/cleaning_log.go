package models

import (
	"time"
)

type CleaningLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CleanerID *uint     `json:"cleaner_id,omitempty"`
	TableID   uint      `gorm:"not null;index" json:"table_id"`
	Table     Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
