package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is applied to menus created without an explicit threshold.
const DefaultLowStockThreshold = 10

// Menu is an orderable item. A nil StockQuantity means the item is untracked
// (unlimited), which is the common case for buffet fare.
type Menu struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	CategoryID        *uint           `gorm:"index" json:"category_id,omitempty"`
	Category          *MenuCategory   `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Name              string          `gorm:"type:varchar(255); not null" json:"name"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2); not null;default:0" json:"price"`
	Description       string          `gorm:"type:text" json:"description"`
	ImageURL          *string         `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	StockQuantity     *int            `json:"stock_quantity"`
	LowStockThreshold int             `gorm:"not null;default:10" json:"low_stock_threshold"`
	IsOutOfStock      bool            `gorm:"not null;default:false" json:"is_out_of_stock"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

// IsTracked reports whether the menu has a finite stock count.
func (m *Menu) IsTracked() bool {
	return m.StockQuantity != nil
}
