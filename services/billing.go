package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Bill is the charge breakdown of a session. Values are exact; rounding to two
// places happens when a receipt is persisted.
type Bill struct {
	AdultCount           int             `json:"adult_count"`
	ChildCount           int             `json:"child_count"`
	AdultPrice           decimal.Decimal `json:"adult_price"`
	ChildPrice           decimal.Decimal `json:"child_price"`
	VATPercent           decimal.Decimal `json:"vat_percent"`
	ServiceChargePercent decimal.Decimal `json:"service_charge_percent"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	ServiceCharge        decimal.Decimal `json:"service_charge"`
	VAT                  decimal.Decimal `json:"vat"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
}

// CalculateBill prices a party under a package. VAT applies to the subtotal
// plus the service charge.
func CalculateBill(adults, children int, pkg models.Package, rates Rates) Bill {
	subtotal := pkg.AdultPrice.Mul(decimal.NewFromInt(int64(adults))).
		Add(pkg.ChildPrice.Mul(decimal.NewFromInt(int64(children))))
	serviceCharge := subtotal.Mul(rates.ServiceChargePercent).Div(hundred)
	vat := subtotal.Add(serviceCharge).Mul(rates.VATPercent).Div(hundred)

	return Bill{
		AdultCount:           adults,
		ChildCount:           children,
		AdultPrice:           pkg.AdultPrice,
		ChildPrice:           pkg.ChildPrice,
		VATPercent:           rates.VATPercent,
		ServiceChargePercent: rates.ServiceChargePercent,
		Subtotal:             subtotal,
		ServiceCharge:        serviceCharge,
		VAT:                  vat,
		GrandTotal:           subtotal.Add(serviceCharge).Add(vat),
	}
}

// BillingService computes bills for stored sessions using live settings.
type BillingService struct {
	db *gorm.DB
}

func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

// CalculateSessionBill loads the session with its package and current rates.
func (s *BillingService) CalculateSessionBill(ctx context.Context, sessionID string) (*Bill, error) {
	return calculateSessionBill(s.db.WithContext(ctx), sessionID)
}

func calculateSessionBill(db *gorm.DB, sessionID string) (*Bill, error) {
	var session models.Session
	if err := db.Preload("Package").First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, notFound(err, "session", sessionID)
	}
	rates, err := LoadRates(db)
	if err != nil {
		return nil, err
	}
	bill := CalculateBill(session.AdultCount, session.ChildCount, session.Package, rates)
	return &bill, nil
}
