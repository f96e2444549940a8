package matcher

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
	"telehealth-scheduling-core/slotengine"
)

func setup(t *testing.T, now time.Time) (*repository.MemoryClinicianStore, *repository.MemoryAppointmentStore, *slotengine.Engine) {
	t.Helper()
	clinicians := repository.NewMemoryClinicianStore()
	appts := repository.NewMemoryAppointmentStore()
	engine := slotengine.New(clinicians, appts, clock.NewFixed(now), time.Minute, 30)
	return clinicians, appts, engine
}

func template(clinicianID uint) models.AvailabilityTemplate {
	return models.AvailabilityTemplate{
		ClinicianID:     clinicianID,
		AppointmentType: models.TypeInitialConsultation,
		SlotDurationMin: 30,
		MaxConcurrent:   1,
		Monday:          models.WorkingHours{StartTime: "09:00", EndTime: "12:00"},
		IsActive:        true,
	}
}

func TestMatcher_Match_PrefersPriorRelationshipAndQuality(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinicians, appts, engine := setup(t, monday)

	specialty := models.Specialty{ID: 1, Name: "Cardiology"}
	clinicians.Clinician[1] = models.Clinician{ID: 1, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 3.0}
	clinicians.Clinician[2] = models.Clinician{ID: 2, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 5.0}
	clinicians.Templates[1] = []models.AvailabilityTemplate{template(1)}
	clinicians.Templates[2] = []models.AvailabilityTemplate{template(2)}

	// patient 10 has a completed history with clinician 1, none with clinician 2
	require.NoError(t, appts.Insert(context.Background(), &models.Appointment{
		PatientID: 10, ClinicianID: 1, Status: models.StatusCompleted, Type: models.TypeInitialConsultation,
		AppointmentTime: monday.Add(-72 * time.Hour), EndTime: monday.Add(-72 * time.Hour).Add(30 * time.Minute),
	}))

	m := New(clinicians, appts, engine, true, 30)
	candidates, err := m.Match(context.Background(), 10, "Cardiology", models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1), true)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	// prior relationship (weight 0.50) outweighs the quality-rating gap (weight 0.10)
	assert.Equal(t, uint(1), candidates[0].Clinician.ID)
	assert.Contains(t, candidates[0].Reasons, "previous patient — 1 prior visit(s)")
}

func TestMatcher_Match_HistoryPrioritizationDisabledIgnoresPriorVisits(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinicians, appts, engine := setup(t, monday)

	specialty := models.Specialty{ID: 1, Name: "Cardiology"}
	clinicians.Clinician[1] = models.Clinician{ID: 1, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 3.0}
	clinicians.Clinician[2] = models.Clinician{ID: 2, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 5.0}
	clinicians.Templates[1] = []models.AvailabilityTemplate{template(1)}
	clinicians.Templates[2] = []models.AvailabilityTemplate{template(2)}

	require.NoError(t, appts.Insert(context.Background(), &models.Appointment{
		PatientID: 10, ClinicianID: 1, Status: models.StatusCompleted, Type: models.TypeInitialConsultation,
		AppointmentTime: monday.Add(-72 * time.Hour), EndTime: monday.Add(-72 * time.Hour).Add(30 * time.Minute),
	}))

	m := New(clinicians, appts, engine, true, 30)
	candidates, err := m.Match(context.Background(), 10, "Cardiology", models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1), false)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	// with history prioritization off, only the quality-rating factor differs,
	// and clinician 2's higher rating gives it the higher score
	assert.Equal(t, uint(2), candidates[0].Clinician.ID)
	for _, reason := range candidates[0].Reasons {
		assert.NotContains(t, reason, "prior visit")
	}
}

func TestMatcher_Match_SubstringSpecialtyScoresLowerThanExact(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinicians, appts, engine := setup(t, monday)

	exact := models.Specialty{ID: 1, Name: "cardiology"}
	substring := models.Specialty{ID: 2, Name: "pediatric cardiology"}
	clinicians.Clinician[1] = models.Clinician{ID: 1, SpecialtyID: 1, Specialty: exact, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 4.0}
	clinicians.Clinician[2] = models.Clinician{ID: 2, SpecialtyID: 2, Specialty: substring, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 4.0}
	clinicians.Templates[1] = []models.AvailabilityTemplate{template(1)}
	clinicians.Templates[2] = []models.AvailabilityTemplate{template(2)}

	m := New(clinicians, appts, engine, true, 30)
	candidates, err := m.Match(context.Background(), 10, "Cardiology", models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1), true)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, uint(1), candidates[0].Clinician.ID)
	assert.Greater(t, candidates[0].Score, candidates[1].Score)
}

func TestMatcher_Match_FiltersUnverifiedWhenRequired(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinicians, appts, engine := setup(t, monday)

	specialty := models.Specialty{ID: 1, Name: "Cardiology"}
	clinicians.Clinician[1] = models.Clinician{ID: 1, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: false}
	clinicians.Templates[1] = []models.AvailabilityTemplate{template(1)}

	m := New(clinicians, appts, engine, true, 30)
	_, err := m.Match(context.Background(), 10, "Cardiology", models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1), true)
	assert.ErrorIs(t, err, scheduling.ErrNoClinicianAvailable)
}

func TestMatcher_Match_DeterministicTieBreakByClinicianID(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinicians, appts, engine := setup(t, monday)

	specialty := models.Specialty{ID: 1, Name: "Cardiology"}
	clinicians.Clinician[2] = models.Clinician{ID: 2, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true}
	clinicians.Clinician[1] = models.Clinician{ID: 1, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true}
	clinicians.Templates[1] = []models.AvailabilityTemplate{template(1)}
	clinicians.Templates[2] = []models.AvailabilityTemplate{template(2)}

	m := New(clinicians, appts, engine, true, 30)
	candidates, err := m.Match(context.Background(), 10, "Cardiology", models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1), true)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, uint(1), candidates[0].Clinician.ID)
	assert.Equal(t, uint(2), candidates[1].Clinician.ID)
}

func TestMatcher_Match_TieBreaksByRatingBeforeClinicianID(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	clinicians, appts, engine := setup(t, monday)

	specialty := models.Specialty{ID: 1, Name: "Cardiology"}
	// equal on every factor but rating; clinician 2 has the higher ID but
	// the higher rating, which lifts its score, so it ranks ahead of clinician 1.
	clinicians.Clinician[1] = models.Clinician{ID: 1, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 3.0}
	clinicians.Clinician[2] = models.Clinician{ID: 2, SpecialtyID: 1, Specialty: specialty, HomeTimezone: "UTC", IsAvailable: true, IsVerified: true, QualityRating: 4.5}
	clinicians.Templates[1] = []models.AvailabilityTemplate{template(1)}
	clinicians.Templates[2] = []models.AvailabilityTemplate{template(2)}

	m := New(clinicians, appts, engine, true, 30)
	candidates, err := m.Match(context.Background(), 10, "Cardiology", models.TypeInitialConsultation, monday, monday.AddDate(0, 0, 1), true)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, uint(2), candidates[0].Clinician.ID)
	assert.Equal(t, uint(1), candidates[1].Clinician.ID)
}
