package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/utils"
)

// gormAppointmentStore implements AppointmentStore against Postgres,
// following the transaction-and-recover style of the teacher's
// appointment_repository.go (BookTimeSlot, DetectConflicts).
type gormAppointmentStore struct {
	db *gorm.DB
}

// NewGormAppointmentStore constructs a Postgres-backed AppointmentStore.
func NewGormAppointmentStore(db *gorm.DB) AppointmentStore {
	return &gormAppointmentStore{db: db}
}

func (r *gormAppointmentStore) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.db.WithContext(ctx).Preload("Clinician").First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("appointment %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

// FindOverlapping mirrors the teacher's detectConflictsInTx overlap
// predicate, generalized to an explicit buffer expansion and restricted to
// statuses that still hold calendar space.
func (r *gormAppointmentStore) FindOverlapping(ctx context.Context, clinicianID uint, start, end time.Time, bufferMin int) ([]models.Appointment, error) {
	buffer := time.Duration(bufferMin) * time.Minute
	expandedStart := start.Add(-buffer)
	expandedEnd := end.Add(buffer)

	var appts []models.Appointment
	err := r.db.WithContext(ctx).
		Where("clinician_id = ?", clinicianID).
		Where("status IN ?", []models.AppointmentStatus{
			models.StatusPending, models.StatusConfirmed, models.StatusInProgress,
		}).
		Where("appointment_time < ? AND end_time > ?", expandedEnd, expandedStart).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to detect conflicts: %w", err)
	}
	return appts, nil
}

// Insert creates the row inside a transaction with the teacher's
// BookTimeSlot rollback-and-recover shape. It runs no conflict check of its
// own: the consistency layer checks for overlaps with FindOverlapping and
// calls Insert while holding a cross-process lock, so a concurrent booking
// attempt can't slip in between the check and the write.
func (r *gormAppointmentStore) Insert(ctx context.Context, appt *models.Appointment) error {
	if appt == nil {
		return errors.New("appointment cannot be nil")
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			utils.LogError(fmt.Errorf("%v", rec), "panic in appointment insert transaction", nil)
		}
	}()

	if err := tx.Create(appt).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *gormAppointmentStore) Update(ctx context.Context, appt *models.Appointment) error {
	if appt == nil {
		return errors.New("appointment cannot be nil")
	}
	if err := r.db.WithContext(ctx).Save(appt).Error; err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

func (r *gormAppointmentStore) ListByPatient(ctx context.Context, patientID uint, limit int) ([]models.Appointment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var appts []models.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("appointment_time DESC").
		Limit(limit).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *gormAppointmentStore) ListByClinicianRange(ctx context.Context, clinicianID uint, start, end time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.WithContext(ctx).
		Where("clinician_id = ?", clinicianID).
		Where("appointment_time >= ? AND appointment_time < ?", start, end).
		Order("appointment_time ASC").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list clinician appointments: %w", err)
	}
	return appts, nil
}

func (r *gormAppointmentStore) CountPriorAppointments(ctx context.Context, patientID, clinicianID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("patient_id = ? AND clinician_id = ? AND status = ?", patientID, clinicianID, models.StatusCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count prior appointments: %w", err)
	}
	return int(count), nil
}
