package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package is a pricing and duration tier. A package is entitled to its own
// menus plus every menu of its ancestors through ParentPackageID.
type Package struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(100);not null" json:"name"`
	AdultPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"adult_price"`
	ChildPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"child_price"`
	DurationMinutes int             `gorm:"not null" json:"duration_minutes"`
	ParentPackageID *uint           `gorm:"index" json:"parent_package_id,omitempty"`
	Parent          *Package        `gorm:"foreignKey:ParentPackageID" json:"parent,omitempty"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	Menus           []Menu          `gorm:"many2many:package_menus;" json:"menus,omitempty"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

// Duration returns the allotted dining window of the package.
func (p *Package) Duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}
