package models

import "time"

// Ledger entry types
const (
	PointsEarned   = "earned"
	PointsRedeemed = "redeemed"
	PointsAdjusted = "adjusted"
)

type Member struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone       string    `gorm:"type:varchar(30);uniqueIndex" json:"phone"`
	Email       string    `gorm:"type:varchar(100)" json:"email,omitempty"`
	TotalPoints int       `gorm:"not null;default:0" json:"total_points"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// MemberPoint is an append-only ledger row. BalanceAfter is the member balance
// right after this row was applied.
type MemberPoint struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MemberID     uint      `gorm:"not null;index" json:"member_id"`
	ReceiptID    *uint     `gorm:"index" json:"receipt_id,omitempty"`
	Type         string    `gorm:"type:varchar(20);not null" json:"type"`
	Points       int       `gorm:"not null" json:"points"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	Description  string    `gorm:"type:varchar(255)" json:"description,omitempty"`
	CreatedBy    *uint     `json:"created_by,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
