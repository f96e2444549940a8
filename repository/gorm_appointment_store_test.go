package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"telehealth-scheduling-core/models"
)

func setupAppointmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Specialty{},
		&models.Clinician{},
		&models.AvailabilityTemplate{},
		&models.AvailabilityOverride{},
		&models.Appointment{},
	))
	return db
}

func TestGormAppointmentStore_InsertAndFindByID(t *testing.T) {
	db := setupAppointmentTestDB(t)
	store := NewGormAppointmentStore(db)

	appt := &models.Appointment{
		PatientID: 1, ClinicianID: 2,
		AppointmentTime: time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
		Status:          models.StatusPending,
		Type:            models.TypeInitialConsultation,
	}
	require.NoError(t, store.Insert(context.Background(), appt))
	assert.NotZero(t, appt.ID)

	found, err := store.FindByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.PatientID, found.PatientID)
}

func TestGormAppointmentStore_FindOverlapping_RespectsBufferAndStatus(t *testing.T) {
	db := setupAppointmentTestDB(t)
	store := NewGormAppointmentStore(db)

	confirmed := &models.Appointment{
		PatientID: 1, ClinicianID: 5,
		AppointmentTime: time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
		Status:          models.StatusConfirmed,
		Type:            models.TypeInitialConsultation,
	}
	cancelled := &models.Appointment{
		PatientID: 1, ClinicianID: 5,
		AppointmentTime: time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 8, 3, 10, 30, 0, 0, time.UTC),
		Status:          models.StatusCancelled,
		Type:            models.TypeInitialConsultation,
	}
	require.NoError(t, store.Insert(context.Background(), confirmed))
	require.NoError(t, store.Insert(context.Background(), cancelled))

	// a request for 09:35-10:05 is clear of the confirmed appointment on a
	// zero buffer but collides once a 10-minute buffer is applied
	overlapping, err := store.FindOverlapping(context.Background(), 5,
		time.Date(2026, 8, 3, 9, 35, 0, 0, time.UTC), time.Date(2026, 8, 3, 10, 5, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Empty(t, overlapping)

	overlapping, err = store.FindOverlapping(context.Background(), 5,
		time.Date(2026, 8, 3, 9, 35, 0, 0, time.UTC), time.Date(2026, 8, 3, 10, 5, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, models.StatusConfirmed, overlapping[0].Status)
}

func TestGormAppointmentStore_CountPriorAppointments_OnlyCountsCompleted(t *testing.T) {
	db := setupAppointmentTestDB(t)
	store := NewGormAppointmentStore(db)

	require.NoError(t, store.Insert(context.Background(), &models.Appointment{
		PatientID: 1, ClinicianID: 2, Status: models.StatusCompleted, Type: models.TypeInitialConsultation,
		AppointmentTime: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Insert(context.Background(), &models.Appointment{
		PatientID: 1, ClinicianID: 2, Status: models.StatusCancelled, Type: models.TypeInitialConsultation,
		AppointmentTime: time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 7, 2, 9, 30, 0, 0, time.UTC),
	}))

	count, err := store.CountPriorAppointments(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGormAppointmentStore_ListByPatient_OrdersMostRecentFirst(t *testing.T) {
	db := setupAppointmentTestDB(t)
	store := NewGormAppointmentStore(db)

	older := &models.Appointment{PatientID: 3, ClinicianID: 1, Status: models.StatusCompleted, Type: models.TypeInitialConsultation,
		AppointmentTime: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)}
	newer := &models.Appointment{PatientID: 3, ClinicianID: 1, Status: models.StatusCompleted, Type: models.TypeInitialConsultation,
		AppointmentTime: time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)}
	require.NoError(t, store.Insert(context.Background(), older))
	require.NoError(t, store.Insert(context.Background(), newer))

	list, err := store.ListByPatient(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
}
