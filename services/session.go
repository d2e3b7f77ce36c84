package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StartSessionInput opens a session on a table.
type StartSessionInput struct {
	TableID    uint  `json:"table_id" binding:"required"`
	PackageID  uint  `json:"package_id" binding:"required"`
	AdultCount int   `json:"adult_count"`
	ChildCount int   `json:"child_count"`
	OperatorID *uint `json:"-"`
}

// EndSessionInput ends a session. With a cashier the session is settled in
// the same transaction; without one it completes with no receipt.
type EndSessionInput struct {
	CashierID  *uint
	Settlement SettleInput
}

// EndResult is the completed session and, when settled, its receipt.
type EndResult struct {
	Session *models.Session `json:"session"`
	Receipt *models.Receipt `json:"receipt,omitempty"`
}

// TimeRemaining is the countdown view of a session.
type TimeRemaining struct {
	SessionID        string       `json:"session_id"`
	RemainingMinutes int          `json:"remaining_minutes"`
	OvertimeMinutes  int          `json:"overtime_minutes"`
	IsPaused         bool         `json:"is_paused"`
	EndTime          time.Time    `json:"end_time"`
	WarningLevel     WarningLevel `json:"warning_level"`
}

// CustomerView is what a customer sees after scanning the table QR code.
type CustomerView struct {
	SessionID        string         `json:"session_id"`
	TableNumber      string         `json:"table_number"`
	PackageName      string         `json:"package_name"`
	RemainingMinutes int            `json:"remaining_minutes"`
	IsPaused         bool           `json:"is_paused"`
	Menus            []models.Menu  `json:"menus"`
	Orders           []models.Order `json:"orders"`
}

// SessionService is the session state machine.
type SessionService struct {
	db         *gorm.DB
	resolver   MenuResolver
	settlement *SettlementService
	notifier   Notifier

	// PublicBaseURL prefixes the QR payload.
	PublicBaseURL string
	Now           func() time.Time
}

func NewSessionService(db *gorm.DB, resolver MenuResolver, settlement *SettlementService, notifier Notifier, publicBaseURL string) *SessionService {
	return &SessionService{
		db:            db,
		resolver:      resolver,
		settlement:    settlement,
		notifier:      notifier,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		Now:           time.Now,
	}
}

// QRPayload is the customer URL encoded in the table QR code.
func (s *SessionService) QRPayload(sessionID string) string {
	return s.PublicBaseURL + "/customer/sessions/" + sessionID
}

// Start opens a session. The table must be available and in service at
// commit time.
func (s *SessionService) Start(ctx context.Context, in StartSessionInput) (*models.Session, error) {
	if in.AdultCount < 0 || in.ChildCount < 0 {
		return nil, validationf("guest counts must not be negative")
	}
	if in.AdultCount+in.ChildCount == 0 {
		return nil, validationf("a session needs at least one guest")
	}

	now := s.Now()
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var pkg models.Package
	if err := tx.First(&pkg, in.PackageID).Error; err != nil {
		tx.Rollback()
		return nil, notFound(err, "package", in.PackageID)
	}
	if !pkg.IsActive {
		tx.Rollback()
		return nil, fmt.Errorf("%w: package %s is not offered", ErrInvalidState, pkg.Name)
	}

	if err := transitionTable(tx, in.TableID, models.TableOccupied); err != nil {
		tx.Rollback()
		return nil, err
	}

	id := uuid.New().String()
	session := models.Session{
		ID:         id,
		TableID:    in.TableID,
		PackageID:  pkg.ID,
		AdultCount: in.AdultCount,
		ChildCount: in.ChildCount,
		StartTime:  now,
		EndTime:    now.Add(pkg.Duration()),
		Status:     models.SessionActive,
		QRPayload:  s.QRPayload(id),
		CreatedBy:  in.OperatorID,
	}
	if err := tx.Create(&session).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit session start: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": id,
		"table_id":   in.TableID,
		"package":    pkg.Name,
	}).Info("Session started")

	full, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventSessionStarted, full)
	return full, nil
}

// Get returns a session with table, package and orders loaded.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Preload("Table").
		Preload("Package").
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Orders.OrderItems.Menu").
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "session", id)
	}
	return &session, nil
}

// List returns sessions, newest first, optionally filtered by status.
func (s *SessionService) List(ctx context.Context, status string) ([]models.Session, error) {
	sessions := []models.Session{}
	q := s.db.WithContext(ctx).Preload("Table").Preload("Package").Order("start_time DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Pause freezes the countdown.
func (s *SessionService) Pause(ctx context.Context, id string) (*models.Session, error) {
	err := s.mutate(ctx, id, func(tx *gorm.DB, session *models.Session) error {
		if session.IsPaused() {
			return ErrAlreadyPaused
		}
		now := s.Now()
		return tx.Model(session).Update("paused_at", &now).Error
	})
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

// Resume restarts the countdown. EndTime moves forward by the exact pause
// length; the pause counter only accumulates whole minutes.
func (s *SessionService) Resume(ctx context.Context, id string) (*models.Session, error) {
	err := s.mutate(ctx, id, func(tx *gorm.DB, session *models.Session) error {
		if !session.IsPaused() {
			return ErrNotPaused
		}
		paused := s.Now().Sub(*session.PausedAt)
		if paused < 0 {
			paused = 0
		}
		return tx.Model(session).Updates(map[string]interface{}{
			"paused_at":               nil,
			"paused_duration_minutes": session.PausedDurationMinutes + int(paused/time.Minute),
			"end_time":                session.EndTime.Add(paused),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

// UpdateGuestCount overwrites the party size. Billing reads the live counts.
func (s *SessionService) UpdateGuestCount(ctx context.Context, id string, adults, children int) (*models.Session, error) {
	if adults < 0 || children < 0 {
		return nil, validationf("guest counts must not be negative")
	}
	err := s.mutate(ctx, id, func(tx *gorm.DB, session *models.Session) error {
		return tx.Model(session).Updates(map[string]interface{}{
			"adult_count": adults,
			"child_count": children,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

// UpdatePackage switches package. The new window runs from the original
// start time, not from now.
func (s *SessionService) UpdatePackage(ctx context.Context, id string, packageID uint) (*models.Session, error) {
	err := s.mutate(ctx, id, func(tx *gorm.DB, session *models.Session) error {
		var pkg models.Package
		if err := tx.First(&pkg, packageID).Error; err != nil {
			return notFound(err, "package", packageID)
		}
		if !pkg.IsActive {
			return fmt.Errorf("%w: package %s is not offered", ErrInvalidState, pkg.Name)
		}
		return tx.Model(session).Updates(map[string]interface{}{
			"package_id": pkg.ID,
			"end_time":   session.StartTime.Add(pkg.Duration()),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

// TransferTable moves the party. The destination must be available when the
// transaction commits; the old table goes to cleaning.
func (s *SessionService) TransferTable(ctx context.Context, id string, newTableID uint) (*models.Session, error) {
	var oldTableID uint
	err := s.mutate(ctx, id, func(tx *gorm.DB, session *models.Session) error {
		if session.TableID == newTableID {
			return validationf("session is already at table %d", newTableID)
		}
		oldTableID = session.TableID
		if err := transitionTable(tx, newTableID, models.TableOccupied); err != nil {
			return err
		}
		if err := transitionTable(tx, session.TableID, models.TableCleaning); err != nil {
			return err
		}
		return tx.Model(session).Update("table_id", newTableID).Error
	})
	if err != nil {
		return nil, err
	}

	session, err := s.changed(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, Event{Type: EventTableUpdated, TableID: oldTableID, Data: map[string]string{"status": models.TableCleaning}, OccurredAt: s.Now()})
	publish(ctx, s.notifier, Event{Type: EventTableUpdated, TableID: newTableID, Data: map[string]string{"status": models.TableOccupied}, OccurredAt: s.Now()})
	return session, nil
}

// End completes the session, settling it first when a cashier is given, and
// sends the table to cleaning. Everything commits together.
func (s *SessionService) End(ctx context.Context, id string, in EndSessionInput) (*EndResult, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	session, err := lockSession(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if session.Status != models.SessionActive {
		tx.Rollback()
		return nil, ErrSessionNotActive
	}

	var receipt *models.Receipt
	if in.CashierID != nil {
		if s.settlement == nil {
			tx.Rollback()
			return nil, fmt.Errorf("settlement is not configured")
		}
		if err := tx.First(&session.Package, session.PackageID).Error; err != nil {
			tx.Rollback()
			return nil, notFound(err, "package", session.PackageID)
		}
		receipt, err = s.settlement.settleInTx(tx, session, *in.CashierID, in.Settlement)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := s.Now()
	if err := tx.Model(&models.Session{}).Where("id = ?", session.ID).Updates(map[string]interface{}{
		"status":          models.SessionCompleted,
		"actual_end_time": &now,
		"paused_at":       nil,
	}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	if err := transitionTable(tx, session.TableID, models.TableCleaning); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit session end: %w", err)
	}

	result := &EndResult{}
	if result.Session, err = s.Get(ctx, id); err != nil {
		return nil, err
	}
	if receipt != nil {
		if result.Receipt, err = loadReceipt(s.db.WithContext(ctx), receipt.ID); err != nil {
			return nil, err
		}
		s.settlement.published(ctx, result.Receipt)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"session_id": id,
		"settled":    receipt != nil,
	}).Info("Session ended")
	s.publish(ctx, EventSessionEnded, result.Session)
	return result, nil
}

// Cancel terminates an active session without a receipt.
func (s *SessionService) Cancel(ctx context.Context, id string, reason string) (*models.Session, error) {
	err := s.mutate(ctx, id, func(tx *gorm.DB, session *models.Session) error {
		now := s.Now()
		if err := tx.Model(session).Updates(map[string]interface{}{
			"status":          models.SessionCancelled,
			"actual_end_time": &now,
			"paused_at":       nil,
			"cancel_reason":   reason,
		}).Error; err != nil {
			return err
		}
		return transitionTable(tx, session.TableID, models.TableCleaning)
	})
	if err != nil {
		return nil, err
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventSessionEnded, session)
	return session, nil
}

// GetTimeRemaining reports whole minutes left, clamped at zero, with overtime
// reported separately. Finished sessions report nothing left.
func (s *SessionService) GetTimeRemaining(ctx context.Context, id string) (*TimeRemaining, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "session", id)
	}
	return timeRemaining(&session, s.Now()), nil
}

func timeRemaining(session *models.Session, now time.Time) *TimeRemaining {
	tr := &TimeRemaining{
		SessionID:    session.ID,
		IsPaused:     session.IsPaused(),
		EndTime:      session.EndTime,
		WarningLevel: WarningNone,
	}
	if session.Status != models.SessionActive {
		return tr
	}
	tr.RemainingMinutes = session.RemainingMinutes(now)
	tr.OvertimeMinutes = session.OvertimeMinutes(now)
	tr.WarningLevel = ClassifyWarning(session, now)
	return tr
}

// GetSessionForCustomer is the public projection. Only active sessions are
// visible; anything else is reported as not found.
func (s *SessionService) GetSessionForCustomer(ctx context.Context, id string) (*CustomerView, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}

	menus, err := LoadMenus(ctx, s.db, s.resolver, session.PackageID)
	if err != nil {
		return nil, err
	}

	orders := session.Orders
	if orders == nil {
		orders = []models.Order{}
	}
	return &CustomerView{
		SessionID:        session.ID,
		TableNumber:      session.Table.TableNumber,
		PackageName:      session.Package.Name,
		RemainingMinutes: session.RemainingMinutes(s.Now()),
		IsPaused:         session.IsPaused(),
		Menus:            menus,
		Orders:           orders,
	}, nil
}

// mutate locks an active session and applies fn in one transaction.
func (s *SessionService) mutate(ctx context.Context, id string, fn func(tx *gorm.DB, session *models.Session) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := lockSession(tx, id)
		if err != nil {
			return err
		}
		if session.Status != models.SessionActive {
			return ErrSessionNotActive
		}
		return fn(tx, session)
	})
}

func lockSession(tx *gorm.DB, id string) (*models.Session, error) {
	var session models.Session
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "session", id)
	}
	return &session, nil
}

func (s *SessionService) changed(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventSessionUpdated, session)
	return session, nil
}

func (s *SessionService) publish(ctx context.Context, kind string, session *models.Session) {
	publish(ctx, s.notifier, Event{
		Type:      kind,
		SessionID: session.ID,
		TableID:   session.TableID,
		Data: map[string]interface{}{
			"status":            session.Status,
			"table_number":      session.Table.TableNumber,
			"remaining_minutes": session.RemainingMinutes(s.Now()),
			"is_paused":         session.IsPaused(),
		},
		OccurredAt: s.Now(),
	})
}
