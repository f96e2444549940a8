// Package eventsink implements the scheduling core's EventSink port: a
// durable, append-only log of lifecycle events. The in-memory fake used by
// tests is repository.MemoryEventSink.
package eventsink

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/utils"
)

// gormEventSink persists lifecycle events as an append-only log, grounded on
// the teacher's notification_service.go fire-and-forget style: a write
// failure is logged and returned wrapped; the orchestrator only logs that
// error, so an event emission failure never unwinds a completed booking.
type gormEventSink struct {
	db *gorm.DB
}

// NewGormEventSink constructs a Postgres-backed EventSink.
func NewGormEventSink(db *gorm.DB) repository.EventSink {
	return &gormEventSink{db: db}
}

func (s *gormEventSink) Emit(ctx context.Context, event models.LifecycleEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		utils.LogError(err, fmt.Sprintf("failed to persist lifecycle event %s", event.Type), logrus.Fields{
			"event_id": event.EventID,
		})
		return fmt.Errorf("failed to persist lifecycle event: %w", err)
	}
	utils.LogInfo(fmt.Sprintf("lifecycle event recorded: %s", event.Type), logrus.Fields{
		"event_id":       event.EventID,
		"appointment_id": event.AppointmentID,
		"job_id":         event.JobID,
		"success":        event.Success,
	})
	return nil
}
