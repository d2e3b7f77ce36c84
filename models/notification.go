package models

import (
	"time"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID *string   `gorm:"type:varchar(36);index" json:"session_id,omitempty"`
	Kind      string    `gorm:"type:varchar(30);not null" json:"kind"`
	Title     *string   `gorm:"type:varchar(100)" json:"title,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
