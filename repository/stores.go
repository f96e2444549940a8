// Package repository implements the scheduling core's storage ports
// (AppointmentStore, ClinicianStore) against Postgres via GORM, and also
// ships in-memory fakes of the same interfaces so slotengine, matcher,
// consistency and orchestrator tests never need a real database.
package repository

import (
	"context"
	"time"

	"telehealth-scheduling-core/models"
)

// AppointmentStore is the narrow persistence port the consistency layer and
// orchestrator depend on. Implementations must make FindOverlapping and
// Insert safe to call concurrently; the caller is responsible for any
// cross-process locking (see the lock package).
type AppointmentStore interface {
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	// FindOverlapping returns appointments for clinicianID that hold
	// calendar space (Pending/Confirmed/InProgress) and overlap
	// [start, end) once expanded by bufferMin on both sides.
	FindOverlapping(ctx context.Context, clinicianID uint, start, end time.Time, bufferMin int) ([]models.Appointment, error)
	Insert(ctx context.Context, appt *models.Appointment) error
	Update(ctx context.Context, appt *models.Appointment) error
	ListByPatient(ctx context.Context, patientID uint, limit int) ([]models.Appointment, error)
	ListByClinicianRange(ctx context.Context, clinicianID uint, start, end time.Time) ([]models.Appointment, error)
	// CountPriorAppointments counts completed appointments between this
	// patient and clinician, used by the matcher's prior-relationship score.
	CountPriorAppointments(ctx context.Context, patientID, clinicianID uint) (int, error)
}

// ClinicianStore is the narrow persistence port for clinician and
// availability data.
type ClinicianStore interface {
	Create(ctx context.Context, clinician *models.Clinician) error
	FindByID(ctx context.Context, id uint) (*models.Clinician, error)
	ListBySpecialty(ctx context.Context, specialtyID uint) ([]models.Clinician, error)
	ListBySpecialtyName(ctx context.Context, specialtyName string) ([]models.Clinician, error)
	ListAll(ctx context.Context) ([]models.Clinician, error)
	ActiveTemplates(ctx context.Context, clinicianID uint, apptType models.AppointmentType) ([]models.AvailabilityTemplate, error)
	Overrides(ctx context.Context, clinicianID uint, start, end time.Time) ([]models.AvailabilityOverride, error)
}

// EventSink is the append-only lifecycle event log port. Writes are
// fire-and-forget from the caller's perspective: a failure is logged but
// never blocks or rolls back the booking operation that triggered it.
type EventSink interface {
	Emit(ctx context.Context, event models.LifecycleEvent) error
}

// VideoProvisioner is the optional external collaborator that allocates a
// video session for telehealth appointment types. Its failures never
// block booking; callers annotate the appointment and continue.
type VideoProvisioner interface {
	Provision(ctx context.Context, appt models.Appointment) (sessionID string, err error)
}
