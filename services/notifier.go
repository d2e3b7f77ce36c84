package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tiannys/buffet-restaurant/utils"
)

// Event types
const (
	EventSessionStarted = "session.started"
	EventSessionUpdated = "session.updated"
	EventSessionEnded   = "session.ended"
	EventSessionSettled = "session.settled"
	EventSessionWarning = "session.warning"
	EventTableUpdated   = "table.updated"
	EventOrderPlaced    = "order.placed"
	EventOrderUpdated   = "order.updated"
)

// Event is published after a change has been committed.
type Event struct {
	Type       string      `json:"type"`
	SessionID  string      `json:"session_id,omitempty"`
	TableID    uint        `json:"table_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Notifier delivers events to staff displays or other systems.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// MultiNotifier fans an event out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// publish never fails the caller; the change is already committed.
func publish(ctx context.Context, n Notifier, e Event) {
	if n == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	if err := n.Notify(ctx, e); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"event":      e.Type,
			"session_id": e.SessionID,
		}).Errorf("Failed to publish event: %v", err)
	}
}
