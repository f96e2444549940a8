package eventsink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"telehealth-scheduling-core/models"
)

func setupEventTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.LifecycleEvent{}))
	return db
}

func TestGormEventSink_Emit_AssignsEventIDAndPersists(t *testing.T) {
	db := setupEventTestDB(t)
	sink := NewGormEventSink(db)

	appointmentID := uint(42)
	event := models.LifecycleEvent{
		Type:          models.EventAppointmentCreated,
		AppointmentID: &appointmentID,
		Success:       true,
		Payload:       `{"clinician_id":7}`,
	}
	require.NoError(t, sink.Emit(context.Background(), event))

	var stored models.LifecycleEvent
	require.NoError(t, db.First(&stored).Error)
	assert.NotEmpty(t, stored.EventID)
	assert.Equal(t, models.EventAppointmentCreated, stored.Type)
	assert.True(t, stored.Success)
}

func TestGormEventSink_Emit_KeepsProvidedEventID(t *testing.T) {
	db := setupEventTestDB(t)
	sink := NewGormEventSink(db)

	event := models.LifecycleEvent{EventID: "fixed-id", Type: models.EventBookingJobFailed, Success: false}
	require.NoError(t, sink.Emit(context.Background(), event))

	var stored models.LifecycleEvent
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "fixed-id", stored.EventID)
}
