// Package notify stores user-facing alerts emitted by the insight engines.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitdash/internal/metrics"
	"fitdash/internal/store"
)

// AlertStore persists alerts
type AlertStore interface {
	CreateAlert(ctx context.Context, a *store.Alert) error
	LastAlertAt(ctx context.Context, userID int64, alertType string) (time.Time, bool, error)
}

// Sink delivers alerts fire-and-forget: failures are logged and counted,
// never returned to the caller. Alerts other than achievements are dropped
// while a previous alert of the same type for the same user is younger than
// the cooldown.
type Sink struct {
	store    AlertStore
	cooldown time.Duration
	log      *slog.Logger

	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

// NewSink creates a sink. A zero cooldown disables suppression.
func NewSink(st AlertStore, cooldown time.Duration, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		store:    st,
		cooldown: cooldown,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// EmitAlert stores the alert
func (s *Sink) EmitAlert(ctx context.Context, alert store.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()

	if s.cooldown > 0 && alert.Type != store.AlertAchievement {
		last, ok, err := s.store.LastAlertAt(ctx, alert.UserID, alert.Type)
		if err != nil {
			s.log.Warn("failed to check alert cooldown", "user_id", alert.UserID, "type", alert.Type, "error", err)
		} else if ok && now.Sub(last) < s.cooldown {
			metrics.AlertsSuppressedTotal.WithLabelValues(alert.Type).Inc()
			s.log.Debug("alert suppressed by cooldown", "user_id", alert.UserID, "type", alert.Type, "last", last)
			return
		}
	}

	if alert.ID == "" {
		alert.ID = s.newID()
	}
	if alert.Priority == "" {
		alert.Priority = store.PriorityNormal
	}
	alert.CreatedAt = now

	if err := s.store.CreateAlert(ctx, &alert); err != nil {
		metrics.AlertDeliveryErrorsTotal.Inc()
		s.log.Error("failed to store alert", "user_id", alert.UserID, "type", alert.Type, "error", err)
		return
	}

	metrics.AlertsEmittedTotal.WithLabelValues(alert.Type, alert.Priority).Inc()
	s.log.Info("alert emitted", "user_id", alert.UserID, "type", alert.Type, "priority", alert.Priority, "id", alert.ID)
}
