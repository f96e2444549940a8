package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"telehealth-scheduling-core/models"
)

// gormClinicianStore implements ClinicianStore, grounded on the teacher's
// doctor_repository.go (Preload("Specialty") pattern) and
// time_slot_repository.go's schedule lookups.
type gormClinicianStore struct {
	db *gorm.DB
}

// NewGormClinicianStore constructs a Postgres-backed ClinicianStore.
func NewGormClinicianStore(db *gorm.DB) ClinicianStore {
	return &gormClinicianStore{db: db}
}

func (r *gormClinicianStore) Create(ctx context.Context, clinician *models.Clinician) error {
	if err := r.db.WithContext(ctx).Create(clinician).Error; err != nil {
		return fmt.Errorf("failed to create clinician: %w", err)
	}
	return nil
}

func (r *gormClinicianStore) ListAll(ctx context.Context) ([]models.Clinician, error) {
	var clinicians []models.Clinician
	if err := r.db.WithContext(ctx).Preload("Specialty").Find(&clinicians).Error; err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	return clinicians, nil
}

func (r *gormClinicianStore) FindByID(ctx context.Context, id uint) (*models.Clinician, error) {
	var clinician models.Clinician
	if err := r.db.WithContext(ctx).Preload("Specialty").First(&clinician, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("clinician %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return &clinician, nil
}

func (r *gormClinicianStore) ListBySpecialty(ctx context.Context, specialtyID uint) ([]models.Clinician, error) {
	var clinicians []models.Clinician
	err := r.db.WithContext(ctx).
		Where("specialty_id = ? AND is_available = ?", specialtyID, true).
		Preload("Specialty").
		Find(&clinicians).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	return clinicians, nil
}

func (r *gormClinicianStore) ListBySpecialtyName(ctx context.Context, specialtyName string) ([]models.Clinician, error) {
	var clinicians []models.Clinician
	err := r.db.WithContext(ctx).
		Joins("JOIN specialties ON specialties.id = clinicians.specialty_id").
		Where("specialties.name = ? AND clinicians.is_available = ?", specialtyName, true).
		Preload("Specialty").
		Find(&clinicians).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list clinicians by specialty name: %w", err)
	}
	return clinicians, nil
}

func (r *gormClinicianStore) ActiveTemplates(ctx context.Context, clinicianID uint, apptType models.AppointmentType) ([]models.AvailabilityTemplate, error) {
	var templates []models.AvailabilityTemplate
	err := r.db.WithContext(ctx).
		Where("clinician_id = ? AND appointment_type = ? AND is_active = ?", clinicianID, apptType, true).
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load availability templates: %w", err)
	}
	return templates, nil
}

func (r *gormClinicianStore) Overrides(ctx context.Context, clinicianID uint, start, end time.Time) ([]models.AvailabilityOverride, error) {
	var overrides []models.AvailabilityOverride
	err := r.db.WithContext(ctx).
		Where("clinician_id = ? AND date >= ? AND date < ?", clinicianID, start, end).
		Find(&overrides).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load availability overrides: %w", err)
	}
	return overrides, nil
}
