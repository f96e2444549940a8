package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixed_Now_ReturnsConstructedInstantInUTC(t *testing.T) {
	est, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	local := time.Date(2026, 8, 3, 9, 0, 0, 0, est)

	f := NewFixed(local)
	assert.Equal(t, time.UTC, f.Now().Location())
	assert.True(t, f.Now().Equal(local))
}

func TestFixed_Today_MidnightInGivenLocation(t *testing.T) {
	f := NewFixed(time.Date(2026, 8, 3, 23, 30, 0, 0, time.UTC))
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	today := f.Today(tokyo)
	assert.Equal(t, 0, today.Hour())
	assert.Equal(t, tokyo, today.Location())
	// 23:30 UTC on Aug 3 is already Aug 4 in Tokyo (UTC+9)
	assert.Equal(t, 4, today.Day())
}

func TestFixed_Combine_BuildsInstantFromWallClock(t *testing.T) {
	f := NewFixed(time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC))
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	combined, err := f.Combine(date, "14:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 14, combined.Hour())
	assert.Equal(t, 30, combined.Minute())
	assert.Equal(t, 3, combined.Day())
}

func TestFixed_Combine_RejectsMalformedWallClock(t *testing.T) {
	f := NewFixed(time.Now())
	_, err := f.Combine(time.Now(), "not-a-time", time.UTC)
	assert.Error(t, err)
}
