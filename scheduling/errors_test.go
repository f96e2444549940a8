package scheduling

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telehealth-scheduling-core/models"
)

func TestError_WithAlternatives_DoesNotMutateSentinel(t *testing.T) {
	before := len(ErrSlotConflict.Alternatives)
	withAlts := ErrSlotConflict.WithAlternatives([]models.Slot{{ClinicianID: 1}})

	assert.Len(t, withAlts.Alternatives, 1)
	assert.Equal(t, before, len(ErrSlotConflict.Alternatives))
	assert.NotSame(t, ErrSlotConflict, withAlts)
}

func TestIsKind_MatchesWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("booking failed: %w", ErrSlotConflict)
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(wrapped, KindTimeout))
}

func TestError_Unwrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUpstream, "video_provision_failed", "could not reach video provider", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsKind_NonSchedulingErrorReturnsFalse(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain error"), KindConflict))
}

func TestIsRetryable_TrueForStoreUnavailableLockTimeoutAndTransientRemote(t *testing.T) {
	assert.True(t, IsRetryable(New(KindStoreUnavailable, "store_unavailable", "store unreachable")))
	assert.True(t, IsRetryable(New(KindLockTimeout, "lock_timeout", "lock timed out")))
	assert.True(t, IsRetryable(New(KindTransientRemote, "transient_remote", "upstream hiccup")))
}

func TestIsRetryable_FalseForPermanentKinds(t *testing.T) {
	assert.False(t, IsRetryable(New(KindInvalidInput, "invalid_input", "bad request")))
	assert.False(t, IsRetryable(ErrNoClinicianAvailable))
}

func TestIsRetryable_NonSchedulingErrorReturnsFalse(t *testing.T) {
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestErrorAs_RecoversConcreteType(t *testing.T) {
	var err error = ErrNoTemplate
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "no_template", se.Code)
}
