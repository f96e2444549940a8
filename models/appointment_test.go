package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointment_Transition_ValidPath(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	appt := &Appointment{Status: StatusPending}

	require.NoError(t, appt.Transition(StatusConfirmed, now))
	assert.Equal(t, StatusConfirmed, appt.Status)
	require.NotNil(t, appt.ConfirmedAt)
	assert.True(t, appt.ConfirmedAt.Equal(now))

	require.NoError(t, appt.Transition(StatusInProgress, now.Add(time.Hour)))
	require.NoError(t, appt.Transition(StatusCompleted, now.Add(2*time.Hour)))
	assert.True(t, appt.Status.IsTerminal())
}

func TestAppointment_Transition_RejectsInvalidEdge(t *testing.T) {
	appt := &Appointment{Status: StatusCompleted}
	err := appt.Transition(StatusConfirmed, time.Now())
	assert.Error(t, err)
	assert.Equal(t, StatusCompleted, appt.Status)
}

func TestAppointment_Transition_CancellationStampsTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	appt := &Appointment{Status: StatusConfirmed}
	require.NoError(t, appt.Transition(StatusCancelled, now))
	require.NotNil(t, appt.CancelledAt)
	assert.True(t, appt.CancelledAt.Equal(now))
}

func TestAppointmentStatus_HoldsCalendarSpace(t *testing.T) {
	holds := []AppointmentStatus{StatusPending, StatusConfirmed, StatusInProgress}
	for _, s := range holds {
		assert.True(t, s.HoldsCalendarSpace(), "%s should hold calendar space", s)
	}

	frees := []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled}
	for _, s := range frees {
		assert.False(t, s.HoldsCalendarSpace(), "%s should free calendar space", s)
	}
}

func TestNormalizeAppointmentType_CanonicalAndSynonyms(t *testing.T) {
	cases := map[string]AppointmentType{
		"INITIAL_CONSULTATION": TypeInitialConsultation,
		"emergency":            TypeEmergencyConsultation,
		"Follow-Up":            TypeFollowUpConsultation,
		"rx_renewal":           TypePrescriptionRenewal,
		"checkup":              TypeTelehealthCheckIn,
		"Group Session":        TypeGroupSession,
	}
	for raw, want := range cases {
		got, err := NormalizeAppointmentType(raw)
		require.NoError(t, err, "raw=%q", raw)
		assert.Equal(t, want, got, "raw=%q", raw)
	}
}

func TestNormalizeAppointmentType_RejectsUnknown(t *testing.T) {
	_, err := NormalizeAppointmentType("massage therapy")
	assert.Error(t, err)
}
