package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session status values
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Session is one party's timed occupancy of a table under a package. The ID is
// a random UUID because customers use it as a bearer token (QR code).
type Session struct {
	ID                    string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID               uint       `gorm:"not null;index" json:"table_id"`
	Table                 Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table"`
	PackageID             uint       `gorm:"not null;index" json:"package_id"`
	Package               Package    `gorm:"foreignKey:PackageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"package"`
	AdultCount            int        `gorm:"not null;default:0" json:"adult_count"`
	ChildCount            int        `gorm:"not null;default:0" json:"child_count"`
	StartTime             time.Time  `gorm:"not null" json:"start_time"`
	EndTime               time.Time  `gorm:"not null" json:"end_time"`
	Status                string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	PausedAt              *time.Time `json:"paused_at,omitempty"`
	PausedDurationMinutes int        `gorm:"not null;default:0" json:"paused_duration_minutes"`
	LastWarningSent       *time.Time `json:"last_warning_sent,omitempty"`
	LastWarningLevel      string     `gorm:"type:varchar(20)" json:"last_warning_level,omitempty"`
	ActualEndTime         *time.Time `json:"actual_end_time,omitempty"`
	QRPayload             string     `gorm:"type:varchar(255)" json:"qr_payload"`
	CreatedBy             *uint      `json:"created_by,omitempty"`
	CancelReason          string     `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	Orders                []Order    `gorm:"foreignKey:SessionID" json:"orders,omitempty"`
	CreatedAt             time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"not null" json:"updated_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

// IsPaused reports whether the countdown is frozen.
func (s *Session) IsPaused() bool {
	return s.PausedAt != nil
}

// IsTerminal reports whether the session can no longer change.
func (s *Session) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionCancelled
}

// Remaining returns the signed time left at now. While paused the view is
// frozen at the pause moment.
func (s *Session) Remaining(now time.Time) time.Duration {
	ref := now
	if s.PausedAt != nil {
		ref = *s.PausedAt
	}
	return s.EndTime.Sub(ref)
}

// RemainingMinutes floors the remaining time to whole minutes and clamps at zero.
func (s *Session) RemainingMinutes(now time.Time) int {
	d := s.Remaining(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// SignedRemainingMinutes is the floored remaining time, negative once overtime.
func (s *Session) SignedRemainingMinutes(now time.Time) int {
	return int(math.Floor(s.Remaining(now).Minutes()))
}

// OvertimeMinutes returns how many whole minutes the session has run past its end.
func (s *Session) OvertimeMinutes(now time.Time) int {
	d := s.Remaining(now)
	if d >= 0 {
		return 0
	}
	return int(-d / time.Minute)
}
