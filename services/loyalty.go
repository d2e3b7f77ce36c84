package services

import (
	"context"
	"fmt"

	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

// LoyaltyService keeps member balances and the points ledger in step: every
// balance change writes one ledger row carrying the resulting balance.
type LoyaltyService struct {
	db *gorm.DB
}

func NewLoyaltyService(db *gorm.DB) *LoyaltyService {
	return &LoyaltyService{db: db}
}

// pointsChange describes one ledger write.
type pointsChange struct {
	memberID    uint
	delta       int
	kind        string
	receiptID   *uint
	description string
	createdBy   *uint
}

// applyPoints must run inside a transaction.
func applyPoints(tx *gorm.DB, c pointsChange) (*models.MemberPoint, error) {
	q := tx.Model(&models.Member{}).Where("id = ?", c.memberID)
	if c.delta < 0 {
		q = q.Where("total_points >= ?", -c.delta)
	}
	res := q.Update("total_points", gorm.Expr("total_points + ?", c.delta))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update member points: %w", res.Error)
	}

	var member models.Member
	if err := tx.First(&member, c.memberID).Error; err != nil {
		return nil, notFound(err, "member", c.memberID)
	}
	if res.RowsAffected == 0 {
		return nil, &PointsError{MemberID: c.memberID, Requested: -c.delta, Available: member.TotalPoints}
	}

	entry := models.MemberPoint{
		MemberID:     c.memberID,
		ReceiptID:    c.receiptID,
		Type:         c.kind,
		Points:       c.delta,
		BalanceAfter: member.TotalPoints,
		Description:  c.description,
		CreatedBy:    c.createdBy,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to write points ledger: %w", err)
	}
	return &entry, nil
}

func earnPoints(tx *gorm.DB, memberID uint, points int, receiptID *uint, description string) (*models.MemberPoint, error) {
	if points <= 0 {
		return nil, validationf("earned points must be positive, got %d", points)
	}
	return applyPoints(tx, pointsChange{memberID: memberID, delta: points, kind: models.PointsEarned, receiptID: receiptID, description: description})
}

func redeemPoints(tx *gorm.DB, memberID uint, points int, description string) (*models.MemberPoint, error) {
	if points <= 0 {
		return nil, validationf("redeemed points must be positive, got %d", points)
	}
	return applyPoints(tx, pointsChange{memberID: memberID, delta: -points, kind: models.PointsRedeemed, description: description})
}

// Earn credits points to a member.
func (s *LoyaltyService) Earn(ctx context.Context, memberID uint, points int, description string) (*models.MemberPoint, error) {
	var entry *models.MemberPoint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = earnPoints(tx, memberID, points, nil, description)
		return err
	})
	return entry, err
}

// Redeem debits points, failing with a *PointsError when the balance is short.
func (s *LoyaltyService) Redeem(ctx context.Context, memberID uint, points int, description string) (*models.MemberPoint, error) {
	var entry *models.MemberPoint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = redeemPoints(tx, memberID, points, description)
		return err
	})
	return entry, err
}

// Adjust applies a manual correction. Negative deltas cannot take the balance
// below zero.
func (s *LoyaltyService) Adjust(ctx context.Context, memberID uint, delta int, reason string, operatorID *uint) (*models.MemberPoint, error) {
	if delta == 0 {
		return nil, validationf("adjustment must not be zero")
	}
	if reason == "" {
		return nil, validationf("adjustment reason is required")
	}
	var entry *models.MemberPoint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = applyPoints(tx, pointsChange{
			memberID:    memberID,
			delta:       delta,
			kind:        models.PointsAdjusted,
			description: reason,
			createdBy:   operatorID,
		})
		return err
	})
	return entry, err
}

// GetMember returns the member with its current balance.
func (s *LoyaltyService) GetMember(ctx context.Context, memberID uint) (*models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, memberID).Error; err != nil {
		return nil, notFound(err, "member", memberID)
	}
	return &member, nil
}

// History lists a member's ledger, newest first.
func (s *LoyaltyService) History(ctx context.Context, memberID uint) ([]models.MemberPoint, error) {
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	entries := []models.MemberPoint{}
	if err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load points history: %w", err)
	}
	return entries, nil
}
