package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tiannys/buffet-restaurant/database"
	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

// PaymentLine is one tender supplied by the cashier.
type PaymentLine struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// SettleInput carries the cashier's settlement choices.
type SettleInput struct {
	MemberID       *uint           `json:"member_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountReason string          `json:"discount_reason"`
	PointsUsed     int             `json:"points_used"`
	Payments       []PaymentLine   `json:"payments"`
}

func (in SettleInput) validate() error {
	if in.DiscountAmount.IsNegative() {
		return validationf("discount amount must not be negative")
	}
	if in.PointsUsed < 0 {
		return validationf("points used must not be negative")
	}
	if in.PointsUsed > 0 && in.MemberID == nil {
		return validationf("points can only be redeemed for a member")
	}
	for i, p := range in.Payments {
		if p.Method == "" {
			return validationf("payment %d has no method", i+1)
		}
		if p.Amount.IsNegative() {
			return validationf("payment %d has a negative amount", i+1)
		}
	}
	return nil
}

// SettlementService commits receipts, payments and loyalty points as one unit.
type SettlementService struct {
	db       *gorm.DB
	notifier Notifier

	Now func() time.Time
}

func NewSettlementService(db *gorm.DB, notifier Notifier) *SettlementService {
	return &SettlementService{db: db, notifier: notifier, Now: time.Now}
}

// Settle creates the receipt of an active session without ending it.
func (s *SettlementService) Settle(ctx context.Context, sessionID string, cashierID uint, in SettleInput) (*models.Receipt, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	session, err := lockSession(tx, sessionID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.First(&session.Package, session.PackageID).Error; err != nil {
		tx.Rollback()
		return nil, notFound(err, "package", session.PackageID)
	}

	receipt, err := s.settleInTx(tx, session, cashierID, in)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	full, err := loadReceipt(s.db.WithContext(ctx), receipt.ID)
	if err != nil {
		return nil, err
	}
	s.published(ctx, full)
	return full, nil
}

// settleInTx runs the settlement sequence on tx. The session must be locked
// by the caller and have its Package loaded.
func (s *SettlementService) settleInTx(tx *gorm.DB, session *models.Session, cashierID uint, in SettleInput) (*models.Receipt, error) {
	if session.Status != models.SessionActive {
		return nil, ErrSessionNotActive
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var existing int64
	if err := tx.Model(&models.Receipt{}).Where("session_id = ?", session.ID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing receipt: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadySettled
	}

	var cashier models.User
	if err := tx.First(&cashier, cashierID).Error; err != nil {
		return nil, notFound(err, "cashier", cashierID)
	}

	rates, err := LoadRates(tx)
	if err != nil {
		return nil, err
	}
	bill := CalculateBill(session.AdultCount, session.ChildCount, session.Package, rates)

	var pointRates PointRates
	if in.MemberID != nil {
		var member models.Member
		if err := tx.First(&member, *in.MemberID).Error; err != nil {
			return nil, notFound(err, "member", *in.MemberID)
		}
		if pointRates, err = LoadPointRates(tx); err != nil {
			return nil, err
		}
	}

	pointsValue := decimal.Zero
	var redemption *models.MemberPoint
	if in.PointsUsed > 0 {
		pointsValue = decimal.NewFromInt(int64(in.PointsUsed)).Mul(pointRates.BahtPerPoint)
		redemption, err = redeemPoints(tx, *in.MemberID, in.PointsUsed, "Redeemed at settlement")
		if err != nil {
			return nil, err
		}
	}

	grandTotal := bill.GrandTotal.Sub(in.DiscountAmount).Sub(pointsValue).Round(2)

	number, err := nextReceiptNumber(tx, s.Now())
	if err != nil {
		return nil, err
	}

	receipt := models.Receipt{
		ReceiptNumber:        number,
		SessionID:            session.ID,
		CashierID:            cashierID,
		MemberID:             in.MemberID,
		AdultCount:           session.AdultCount,
		ChildCount:           session.ChildCount,
		VATPercent:           rates.VATPercent,
		ServiceChargePercent: rates.ServiceChargePercent,
		Subtotal:             bill.Subtotal.Round(2),
		ServiceCharge:        bill.ServiceCharge.Round(2),
		VAT:                  bill.VAT.Round(2),
		DiscountAmount:       in.DiscountAmount.Round(2),
		DiscountReason:       in.DiscountReason,
		PointsUsed:           in.PointsUsed,
		PointsValue:          pointsValue.Round(2),
		GrandTotal:           grandTotal,
	}
	if err := tx.Create(&receipt).Error; err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}

	if redemption != nil {
		if err := tx.Model(redemption).Update("receipt_id", receipt.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to link redemption to receipt: %w", err)
		}
	}

	lines := in.Payments
	if len(lines) == 0 {
		lines = []PaymentLine{{Method: models.PaymentMethodCash, Amount: grandTotal}}
	}
	for _, line := range lines {
		payment := models.Payment{
			ReceiptID: receipt.ID,
			Method:    line.Method,
			Amount:    line.Amount.Round(2),
			Reference: line.Reference,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}
	}

	if in.MemberID != nil {
		earned := int(grandTotal.Mul(pointRates.PointsPerBaht).Floor().IntPart())
		if earned > 0 {
			if _, err := earnPoints(tx, *in.MemberID, earned, &receipt.ID, "Earned on receipt "+number); err != nil {
				return nil, err
			}
			if err := tx.Model(&receipt).Update("points_earned", earned).Error; err != nil {
				return nil, fmt.Errorf("failed to record earned points: %w", err)
			}
		}
	}

	return &receipt, nil
}

// nextReceiptNumber increments the shared counter inside tx. The row stays
// locked until the transaction ends, so concurrent settlements serialize on it.
func nextReceiptNumber(tx *gorm.DB, now time.Time) (string, error) {
	res := tx.Model(&models.ReceiptCounter{}).
		Where("id = ?", database.ReceiptCounterID).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("failed to advance receipt counter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tx.Create(&models.ReceiptCounter{ID: database.ReceiptCounterID, Value: 1}).Error; err != nil {
			return "", fmt.Errorf("failed to create receipt counter: %w", err)
		}
	}

	var counter models.ReceiptCounter
	if err := tx.First(&counter, database.ReceiptCounterID).Error; err != nil {
		return "", fmt.Errorf("failed to read receipt counter: %w", err)
	}
	return FormatReceiptNumber(now, counter.Value), nil
}

// FormatReceiptNumber renders RCP + yyyyMMdd + six digit sequence.
func FormatReceiptNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("RCP%s%06d", day.Format("20060102"), seq)
}

// GetReceipt returns a receipt with all relations loaded.
func (s *SettlementService) GetReceipt(ctx context.Context, id uint) (*models.Receipt, error) {
	return loadReceipt(s.db.WithContext(ctx), id)
}

// GetReceiptBySession returns the receipt of a session.
func (s *SettlementService) GetReceiptBySession(ctx context.Context, sessionID string) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&receipt).Error; err != nil {
		return nil, notFound(err, "receipt for session", sessionID)
	}
	return loadReceipt(s.db.WithContext(ctx), receipt.ID)
}

func loadReceipt(db *gorm.DB, id uint) (*models.Receipt, error) {
	var receipt models.Receipt
	err := db.Preload("Session.Table").
		Preload("Session.Package").
		Preload("Member").
		Preload("Cashier").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&receipt, id).Error
	if err != nil {
		return nil, notFound(err, "receipt", id)
	}
	return &receipt, nil
}

func (s *SettlementService) published(ctx context.Context, receipt *models.Receipt) {
	var tableID uint
	if receipt.Session != nil {
		tableID = receipt.Session.TableID
	}
	publish(ctx, s.notifier, Event{
		Type:      EventSessionSettled,
		SessionID: receipt.SessionID,
		TableID:   tableID,
		Data: map[string]interface{}{
			"receipt_id":     receipt.ID,
			"receipt_number": receipt.ReceiptNumber,
			"grand_total":    receipt.GrandTotal,
		},
		OccurredAt: s.Now(),
	})
}
