package slotengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telehealth-scheduling-core/clock"
	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/scheduling"
)

func mondayTemplate(clinicianID uint) models.AvailabilityTemplate {
	return models.AvailabilityTemplate{
		ClinicianID:     clinicianID,
		AppointmentType: models.TypeInitialConsultation,
		SlotDurationMin: 30,
		BufferMin:       0,
		MaxConcurrent:   1,
		Monday:          models.WorkingHours{StartTime: "09:00", EndTime: "10:00"},
		IsActive:        true,
	}
}

func newTestEngine(t *testing.T, now time.Time, clinician models.Clinician, templates []models.AvailabilityTemplate, appts []models.Appointment) (*Engine, repository.AppointmentStore) {
	t.Helper()
	clinicians := repository.NewMemoryClinicianStore()
	clinicians.Clinician[clinician.ID] = clinician
	clinicians.Templates[clinician.ID] = templates

	apptStore := repository.NewMemoryAppointmentStore()
	for i := range appts {
		require.NoError(t, apptStore.Insert(context.Background(), &appts[i]))
	}

	fixed := clock.NewFixed(now)
	return New(clinicians, apptStore, fixed, time.Minute, 30), apptStore
}

func TestEngine_Slots_GeneratesWithinTemplateWindow(t *testing.T) {
	// Monday 2026-08-03
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinician := models.Clinician{ID: 1, HomeTimezone: "UTC", IsAvailable: true}
	engine, _ := newTestEngine(t, monday, clinician, []models.AvailabilityTemplate{mondayTemplate(1)}, nil)

	slots, err := engine.Slots(context.Background(), 1, models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, slots, 2) // 09:00-09:30, 09:30-10:00
	assert.Equal(t, 9, slots[0].Start.Hour())
	assert.Equal(t, 0, slots[0].Start.Minute())
	assert.Equal(t, 9, slots[1].Start.Hour())
	assert.Equal(t, 30, slots[1].Start.Minute())
	// the window is 09:00-10:00: the first quarter ends at 09:15, so only
	// the 09:00 slot falls inside it.
	assert.Equal(t, models.PriorityPreferred, slots[0].Priority)
	assert.Equal(t, models.PriorityAvailable, slots[1].Priority)
}

func TestEngine_Slots_LimitedWhenBothNeighboursOccupied(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinician := models.Clinician{ID: 1, HomeTimezone: "UTC", IsAvailable: true}
	tmpl := models.AvailabilityTemplate{
		ClinicianID:     1,
		AppointmentType: models.TypeInitialConsultation,
		SlotDurationMin: 30,
		BufferMin:       0,
		MaxConcurrent:   1,
		Monday:          models.WorkingHours{StartTime: "09:00", EndTime: "11:00"},
		IsActive:        true,
	}
	// four candidate slots: 09:00, 09:30, 10:00, 10:30. Occupying the first
	// and third squeezes the second between two occupied neighbours without
	// conflicting with it directly.
	existing := []models.Appointment{
		{ClinicianID: 1, AppointmentTime: time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC), Status: models.StatusConfirmed, Type: models.TypeInitialConsultation},
		{ClinicianID: 1, AppointmentTime: time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 8, 3, 10, 30, 0, 0, time.UTC), Status: models.StatusConfirmed, Type: models.TypeInitialConsultation},
	}
	engine, _ := newTestEngine(t, monday, clinician, []models.AvailabilityTemplate{tmpl}, existing)

	slots, err := engine.Slots(context.Background(), 1, models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, slots, 2)

	// sorted by priority within the date: Available (10:30, the trailing
	// edge slot with only one occupied neighbour) before Limited (09:30,
	// squeezed on both sides).
	assert.Equal(t, models.PriorityAvailable, slots[0].Priority)
	assert.Equal(t, 30, slots[0].Start.Minute())
	assert.Equal(t, 10, slots[0].Start.Hour())

	assert.Equal(t, models.PriorityLimited, slots[1].Priority)
	assert.Equal(t, 30, slots[1].Start.Minute())
	assert.Equal(t, 9, slots[1].Start.Hour())
}

func TestEngine_Slots_FiltersExistingConflicts(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinician := models.Clinician{ID: 1, HomeTimezone: "UTC", IsAvailable: true}
	conflict := models.Appointment{
		ClinicianID:     1,
		AppointmentTime: time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
		Status:          models.StatusConfirmed,
		Type:            models.TypeInitialConsultation,
	}
	engine, _ := newTestEngine(t, monday, clinician, []models.AvailabilityTemplate{mondayTemplate(1)}, []models.Appointment{conflict})

	slots, err := engine.Slots(context.Background(), 1, models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 30, slots[0].Start.Minute())
}

func TestEngine_Slots_NoTemplateReturnsErrNoTemplate(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinician := models.Clinician{ID: 1, HomeTimezone: "UTC", IsAvailable: true}
	engine, _ := newTestEngine(t, monday, clinician, nil, nil)

	_, err := engine.Slots(context.Background(), 1, models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, scheduling.ErrNoTemplate)
}

func TestEngine_Slots_RespectsAvailabilityOverride(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinician := models.Clinician{ID: 1, HomeTimezone: "UTC", IsAvailable: true}
	engine, _ := newTestEngine(t, monday, clinician, []models.AvailabilityTemplate{mondayTemplate(1)}, nil)

	clinicians := repository.NewMemoryClinicianStore()
	clinicians.Clinician[1] = clinician
	clinicians.Templates[1] = []models.AvailabilityTemplate{mondayTemplate(1)}
	clinicians.Overrides[1] = []models.AvailabilityOverride{{ClinicianID: 1, Date: monday, IsAvailable: false}}
	apptStore := repository.NewMemoryAppointmentStore()
	fixed := clock.NewFixed(monday)
	engine = New(clinicians, apptStore, fixed, time.Minute, 30)

	slots, err := engine.Slots(context.Background(), 1, models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestEngine_Slots_MaxConcurrentTolerateOverlap(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinician := models.Clinician{ID: 1, HomeTimezone: "UTC", IsAvailable: true}
	tmpl := mondayTemplate(1)
	tmpl.MaxConcurrent = 2

	existing := models.Appointment{
		ClinicianID:     1,
		AppointmentTime: time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC),
		Status:          models.StatusConfirmed,
		Type:            models.TypeInitialConsultation,
	}
	engine, _ := newTestEngine(t, monday, clinician, []models.AvailabilityTemplate{tmpl}, []models.Appointment{existing})

	slots, err := engine.Slots(context.Background(), 1, models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	// with MaxConcurrent=2 the 09:00 slot still has room alongside the 1 existing booking
	assert.Len(t, slots, 2)
}
