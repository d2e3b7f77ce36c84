package models

import "time"

// Order status values
const (
	OrderPending    = "pending"
	OrderAccepted   = "accepted"
	OrderInProgress = "in_progress"
	OrderServed     = "served"
	OrderCancelled  = "cancelled"
)

type Order struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	SessionID  string      `gorm:"type:varchar(36);not null;index" json:"session_id"`
	Status     string      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Notes      string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy  *uint       `json:"created_by,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedAt  time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null" json:"updated_at"`
}
