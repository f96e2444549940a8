package models

import "time"

// LifecycleEventType names a durable fact about something that happened to
// an appointment or job. The event log is append-only: one row per
// transition, never updated.
type LifecycleEventType string

const (
	EventAppointmentCreated     LifecycleEventType = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed   LifecycleEventType = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled   LifecycleEventType = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled LifecycleEventType = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCompleted   LifecycleEventType = "APPOINTMENT_COMPLETED"
	EventAppointmentNoShow      LifecycleEventType = "APPOINTMENT_NO_SHOW"
	EventBookingJobFailed       LifecycleEventType = "BOOKING_JOB_FAILED"
	EventVideoProvisionFailed   LifecycleEventType = "VIDEO_PROVISION_FAILED"
)

// LifecycleEvent is a durable, append-only record of a transition. Payload
// carries an opaque JSON blob of whatever detail the emitting component
// thought relevant (old/new slot, cancellation reason, retry count...).
type LifecycleEvent struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	EventID       string    `json:"event_id" gorm:"uniqueIndex;size:64"`
	Type          LifecycleEventType `json:"type" gorm:"type:varchar(64);not null;index"`
	AppointmentID *uint     `json:"appointment_id" gorm:"index"`
	JobID         string    `json:"job_id" gorm:"type:varchar(64);index"`
	Success       bool      `json:"success"`
	Payload       string    `json:"payload" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
}

func (LifecycleEvent) TableName() string {
	return "lifecycle_events"
}
