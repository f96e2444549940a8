package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telehealth-scheduling-core/models"
)

func TestGormClinicianStore_CreateAndFindByID(t *testing.T) {
	db := setupAppointmentTestDB(t)
	store := NewGormClinicianStore(db)

	specialty := models.Specialty{Name: "Dermatology"}
	require.NoError(t, db.Create(&specialty).Error)

	clinician := &models.Clinician{Name: "Dr. Okafor", SpecialtyID: specialty.ID, HomeTimezone: "UTC"}
	require.NoError(t, store.Create(context.Background(), clinician))
	assert.NotZero(t, clinician.ID)

	found, err := store.FindByID(context.Background(), clinician.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Okafor", found.Name)
	assert.Equal(t, "Dermatology", found.Specialty.Name)
}

func TestGormClinicianStore_ListBySpecialtyName_FiltersUnavailable(t *testing.T) {
	db := setupAppointmentTestDB(t)
	store := NewGormClinicianStore(db)

	specialty := models.Specialty{Name: "Cardiology"}
	require.NoError(t, db.Create(&specialty).Error)

	require.NoError(t, db.Create(&models.Clinician{Name: "Dr. Available", SpecialtyID: specialty.ID, HomeTimezone: "UTC", IsAvailable: true}).Error)
	unavailable := models.Clinician{Name: "Dr. Unavailable", SpecialtyID: specialty.ID, HomeTimezone: "UTC", IsAvailable: false}
	require.NoError(t, db.Create(&unavailable).Error)
	// is_available carries default:true, so GORM inserts a zero-valued false as true
	require.NoError(t, db.Model(&unavailable).Update("is_available", false).Error)

	clinicians, err := store.ListBySpecialtyName(context.Background(), "Cardiology")
	require.NoError(t, err)
	require.Len(t, clinicians, 1)
	assert.Equal(t, "Dr. Available", clinicians[0].Name)
}

func TestGormClinicianStore_ActiveTemplatesAndOverrides(t *testing.T) {
	db := setupAppointmentTestDB(t)
	store := NewGormClinicianStore(db)

	specialty := models.Specialty{Name: "Pediatrics"}
	require.NoError(t, db.Create(&specialty).Error)
	clinician := models.Clinician{Name: "Dr. Mensah", SpecialtyID: specialty.ID, HomeTimezone: "UTC"}
	require.NoError(t, db.Create(&clinician).Error)

	active := models.AvailabilityTemplate{
		ClinicianID: clinician.ID, AppointmentType: models.TypeInitialConsultation,
		SlotDurationMin: 30, IsActive: true, Monday: models.WorkingHours{StartTime: "09:00", EndTime: "12:00"},
	}
	inactive := models.AvailabilityTemplate{
		ClinicianID: clinician.ID, AppointmentType: models.TypeInitialConsultation,
		SlotDurationMin: 30, IsActive: false,
	}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&inactive).Error)
	// is_active carries default:true, so GORM inserts a zero-valued false as true
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	templates, err := store.ActiveTemplates(context.Background(), clinician.ID, models.TypeInitialConsultation)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, active.ID, templates[0].ID)

	override := models.AvailabilityOverride{ClinicianID: clinician.ID, Date: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), IsAvailable: false}
	require.NoError(t, db.Create(&override).Error)

	overrides, err := store.Overrides(context.Background(), clinician.ID,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overrides, 1)
}
