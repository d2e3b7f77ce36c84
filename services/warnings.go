package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tiannys/buffet-restaurant/models"
)

type WarningLevel string

const (
	WarningNone     WarningLevel = "none"
	WarningMedium   WarningLevel = "medium"
	WarningCritical WarningLevel = "critical"
	WarningOvertime WarningLevel = "overtime"
)

// Thresholds in whole remaining minutes.
const (
	MediumWarningMinutes   = 15
	CriticalWarningMinutes = 5
)

// Minimum gap between two warnings for the same session, per level.
var warningRepeatAfter = map[WarningLevel]time.Duration{
	WarningMedium:   10 * time.Minute,
	WarningCritical: 5 * time.Minute,
	WarningOvertime: 5 * time.Minute,
}

var warningRank = map[WarningLevel]int{
	WarningNone:     0,
	WarningMedium:   1,
	WarningCritical: 2,
	WarningOvertime: 3,
}

// warningDue reports whether level should fire now. A level worse than the
// last one sent fires at once; otherwise the repeat gap applies.
func warningDue(session *models.Session, level WarningLevel, now time.Time) bool {
	if session.LastWarningSent == nil {
		return true
	}
	if warningRank[level] > warningRank[WarningLevel(session.LastWarningLevel)] {
		return true
	}
	return now.Sub(*session.LastWarningSent) >= warningRepeatAfter[level]
}

// ClassifyWarning grades a session by its floored remaining minutes. Paused
// and finished sessions never warn.
func ClassifyWarning(s *models.Session, now time.Time) WarningLevel {
	if s.Status != models.SessionActive || s.IsPaused() {
		return WarningNone
	}
	minutes := s.SignedRemainingMinutes(now)
	switch {
	case minutes <= 0:
		return WarningOvertime
	case minutes <= CriticalWarningMinutes:
		return WarningCritical
	case minutes <= MediumWarningMinutes:
		return WarningMedium
	default:
		return WarningNone
	}
}

// SessionWarning is a session due for a staff warning.
type SessionWarning struct {
	SessionID        string       `json:"session_id"`
	TableID          uint         `json:"table_id"`
	TableNumber      string       `json:"table_number"`
	Level            WarningLevel `json:"level"`
	RemainingMinutes int          `json:"remaining_minutes"`
	OvertimeMinutes  int          `json:"overtime_minutes"`
}

// GetSessionsNeedingWarning returns active, unpaused sessions whose level is
// not none and that are due: either escalated past the last level sent or
// past the repeat gap.
func (s *SessionService) GetSessionsNeedingWarning(ctx context.Context) ([]SessionWarning, error) {
	var sessions []models.Session
	if err := s.db.WithContext(ctx).
		Preload("Table").
		Where("status = ? AND paused_at IS NULL", models.SessionActive).
		Order("end_time ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to load active sessions: %w", err)
	}

	now := s.Now()
	warnings := []SessionWarning{}
	for i := range sessions {
		session := &sessions[i]
		level := ClassifyWarning(session, now)
		if level == WarningNone {
			continue
		}
		if !warningDue(session, level, now) {
			continue
		}
		warnings = append(warnings, SessionWarning{
			SessionID:        session.ID,
			TableID:          session.TableID,
			TableNumber:      session.Table.TableNumber,
			Level:            level,
			RemainingMinutes: session.RemainingMinutes(now),
			OvertimeMinutes:  session.OvertimeMinutes(now),
		})
	}
	return warnings, nil
}

// MarkWarningAsSent records that a warning was delivered now, along with the
// level the session is at.
func (s *SessionService) MarkWarningAsSent(ctx context.Context, id string) error {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return notFound(err, "session", id)
	}

	now := s.Now()
	res := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_warning_sent":  &now,
		"last_warning_level": string(ClassifyWarning(&session, now)),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to mark warning as sent: %w", res.Error)
	}
	return nil
}
