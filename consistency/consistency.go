// Package consistency implements the scheduling core's atomic
// conflict-detect-and-insert guarantee: a booking is only ever accepted if
// no other appointment holds an overlapping (buffer-expanded) slot for the
// same clinician, even under concurrent booking attempts from different
// processes.
package consistency

import (
	"context"
	"fmt"
	"time"

	"telehealth-scheduling-core/lock"
	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/scheduling"
	"telehealth-scheduling-core/slotengine"
)

// Layer implements with-clinician-lock + insert-if-no-conflict, grounded on
// the teacher's BookTimeSlot (in-transaction conflict check before create)
// and generalized with a cross-process lock around both steps so two
// scheduling processes can't race the same clinician's calendar.
type Layer struct {
	locks       lock.Service
	appts       repository.AppointmentStore
	engine      *slotengine.Engine
	lockTimeout time.Duration
}

// New constructs a consistency Layer.
func New(locks lock.Service, appts repository.AppointmentStore, engine *slotengine.Engine, lockTimeout time.Duration) *Layer {
	return &Layer{locks: locks, appts: appts, engine: engine, lockTimeout: lockTimeout}
}

// WithClinicianLock acquires the named clinician's lock for the duration of
// fn, releasing it unconditionally afterward. Returns scheduling.KindLockTimeout
// if the lock could not be acquired in time.
func (l *Layer) WithClinicianLock(ctx context.Context, clinicianID uint, fn func(ctx context.Context) error) error {
	key := lock.ClinicianLockKey(clinicianID)
	handle, err := l.locks.Acquire(ctx, key, l.lockTimeout)
	if err != nil {
		if err == lock.ErrLockTimeout {
			return scheduling.Wrap(scheduling.KindLockTimeout, "lock_timeout", "timed out acquiring clinician lock", err)
		}
		return scheduling.Wrap(scheduling.KindStoreUnavailable, "lock_acquire_failed", "failed to acquire clinician lock", err)
	}
	defer l.locks.Release(ctx, handle)

	return fn(ctx)
}

// InsertIfNoConflict re-checks appt's clinician calendar for overlap inside
// the caller's clinician lock and, if clear, inserts it. On conflict it
// returns scheduling.ErrSlotConflict with up to three alternative slots
// attached: same-day first, then the next seven days, capped at three,
// mirroring the teacher's SuggestAlternativeSlots fallback order.
func (l *Layer) InsertIfNoConflict(ctx context.Context, appt *models.Appointment, bufferMin int) error {
	var outcome error

	err := l.WithClinicianLock(ctx, appt.ClinicianID, func(ctx context.Context) error {
		overlapping, err := l.appts.FindOverlapping(ctx, appt.ClinicianID, appt.AppointmentTime, appt.EndTime, bufferMin)
		if err != nil {
			return scheduling.Wrap(scheduling.KindStoreUnavailable, "conflict_check_failed", "failed to check for conflicts", err)
		}
		if len(overlapping) > 0 {
			alternatives, altErr := l.alternatives(ctx, *appt, bufferMin)
			if altErr != nil {
				outcome = scheduling.ErrSlotConflict
				return nil
			}
			outcome = scheduling.ErrSlotConflict.WithAlternatives(alternatives)
			return nil
		}

		if err := l.appts.Insert(ctx, appt); err != nil {
			return scheduling.Wrap(scheduling.KindStoreUnavailable, "insert_failed", "failed to insert appointment", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return outcome
}

// alternatives returns up to three open slots for the same clinician and
// type: remaining slots the same day first, then slots over the following
// seven days.
func (l *Layer) alternatives(ctx context.Context, appt models.Appointment, _ int) ([]models.Slot, error) {
	const maxAlternatives = 3

	dayStart := time.Date(appt.AppointmentTime.Year(), appt.AppointmentTime.Month(), appt.AppointmentTime.Day(), 0, 0, 0, 0, appt.AppointmentTime.Location())
	sameDayEnd := dayStart.AddDate(0, 0, 1)

	sameDay, err := l.engine.Slots(ctx, appt.ClinicianID, appt.Type, dayStart, sameDayEnd)
	if err != nil && !isNoAvailability(err) {
		return nil, fmt.Errorf("failed to compute same-day alternatives: %w", err)
	}
	alternatives := filterFuture(sameDay, appt.AppointmentTime, maxAlternatives)
	if len(alternatives) >= maxAlternatives {
		return alternatives[:maxAlternatives], nil
	}

	weekEnd := sameDayEnd.AddDate(0, 0, 7)
	week, err := l.engine.Slots(ctx, appt.ClinicianID, appt.Type, sameDayEnd, weekEnd)
	if err != nil && !isNoAvailability(err) {
		return nil, fmt.Errorf("failed to compute weekly alternatives: %w", err)
	}
	alternatives = append(alternatives, week...)
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}
	return alternatives, nil
}

func filterFuture(slots []models.Slot, after time.Time, limit int) []models.Slot {
	var out []models.Slot
	for _, s := range slots {
		if s.Start.After(after) {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func isNoAvailability(err error) bool {
	return scheduling.IsKind(err, scheduling.KindNoAvailability)
}
