package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the immutable snapshot of a settled session. Only PointsEarned is
// written after creation.
type Receipt struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ReceiptNumber string `gorm:"type:varchar(32);not null;uniqueIndex" json:"receipt_number"`

	SessionID string   `gorm:"type:varchar(36);not null;uniqueIndex" json:"session_id"`
	Session   *Session `gorm:"foreignKey:SessionID;references:ID" json:"session,omitempty"`
	CashierID uint     `gorm:"not null;index" json:"cashier_id"`
	Cashier   *User    `gorm:"foreignKey:CashierID;references:ID" json:"cashier,omitempty"`
	MemberID  *uint    `gorm:"index" json:"member_id,omitempty"`
	Member    *Member  `gorm:"foreignKey:MemberID;references:ID" json:"member,omitempty"`

	AdultCount int `gorm:"not null" json:"adult_count"`
	ChildCount int `gorm:"not null" json:"child_count"`

	// Rates in effect at settlement
	VATPercent           decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vat_percent"`
	ServiceChargePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"service_charge_percent"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ServiceCharge  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"service_charge"`
	VAT            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"vat"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	DiscountReason string          `gorm:"type:varchar(255)" json:"discount_reason,omitempty"`
	PointsUsed     int             `gorm:"not null;default:0" json:"points_used"`
	PointsValue    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"points_value"`
	PointsEarned   int             `gorm:"not null;default:0" json:"points_earned"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"grand_total"`

	Payments []Payment `gorm:"foreignKey:ReceiptID" json:"payments"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// ReceiptCounter holds the running receipt sequence. A single row is seeded
// at migration and incremented in place.
type ReceiptCounter struct {
	ID    uint  `gorm:"primaryKey" json:"id"`
	Value int64 `gorm:"not null;default:0" json:"value"`
}
