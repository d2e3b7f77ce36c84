package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentMethodCash = "CASH"

// Payment is one tender line of a receipt
type Payment struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	ReceiptID uint            `json:"receipt_id" gorm:"not null;index"`
	Method    string          `json:"method" gorm:"type:varchar(30);not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Reference string          `json:"reference,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
