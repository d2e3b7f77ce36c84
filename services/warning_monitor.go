package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/gorm"
)

// WarningMonitor polls for sessions running out of time, records a
// notification for each, pushes it to staff and marks it sent.
type WarningMonitor struct {
	DB       *gorm.DB
	Sessions *SessionService
	Notifier Notifier
	StopChan chan struct{}
	Interval time.Duration
}

func NewWarningMonitor(db *gorm.DB, sessions *SessionService, notifier Notifier) *WarningMonitor {
	return &WarningMonitor{
		DB:       db,
		Sessions: sessions,
		Notifier: notifier,
		StopChan: make(chan struct{}),
		Interval: 1 * time.Minute,
	}
}

func (wm *WarningMonitor) Start() {
	go func() {
		ticker := time.NewTicker(wm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := wm.RunOnce(context.Background()); err != nil {
					utils.ErrorLogger.Printf("Warning check failed: %v", err)
				}
			case <-wm.StopChan:
				return
			}
		}
	}()
}

func (wm *WarningMonitor) Stop() {
	close(wm.StopChan)
}

// RunOnce dispatches every due warning and returns how many were sent.
func (wm *WarningMonitor) RunOnce(ctx context.Context) (int, error) {
	warnings, err := wm.Sessions.GetSessionsNeedingWarning(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, w := range warnings {
		if err := wm.dispatch(ctx, w); err != nil {
			utils.ErrorLogger.Printf("Error dispatching %s warning for session %s: %v", w.Level, w.SessionID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		utils.InfoLogger.Printf("Dispatched %d session warnings", sent)
	}
	return sent, nil
}

func (wm *WarningMonitor) dispatch(ctx context.Context, w SessionWarning) error {
	title := fmt.Sprintf("Table %s: %s", w.TableNumber, w.Level)
	message := fmt.Sprintf("Table %s has %d minutes remaining", w.TableNumber, w.RemainingMinutes)
	if w.Level == WarningOvertime {
		message = fmt.Sprintf("Table %s is %d minutes over time", w.TableNumber, w.OvertimeMinutes)
	}

	sessionID := w.SessionID
	notification := models.Notification{
		SessionID: &sessionID,
		Kind:      string(w.Level),
		Title:     &title,
		Message:   message,
	}
	if err := wm.DB.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	publish(ctx, wm.Notifier, Event{
		Type:      EventSessionWarning,
		SessionID: w.SessionID,
		TableID:   w.TableID,
		Data:      w,
	})

	return wm.Sessions.MarkWarningAsSent(ctx, w.SessionID)
}

// RecentNotifications lists the latest stored notifications.
func (wm *WarningMonitor) RecentNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	notifications := []models.Notification{}
	if err := wm.DB.WithContext(ctx).Order("id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return notifications, nil
}
