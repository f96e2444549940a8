// Package slotengine generates candidate booking slots for a clinician
// from their weekly availability template, applying date overrides,
// minimum-notice and advance-booking bounds, and buffer-aware conflict
// filtering against existing appointments.
package slotengine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"telehealth-scheduling-core/clock"
	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/scheduling"
)

// Engine computes availability for a clinician, grounded on the teacher's
// GenerateTimeSlots/GetAvailableSlots (weekday-switch, string-time parsing,
// step-by-duration loop) and on the buffer-expanded overlap filtering and
// priority classification demonstrated by the pack's free-slot generator.
type Engine struct {
	clinicians repository.ClinicianStore
	appts      repository.AppointmentStore
	clock      clock.Clock

	minNotice             time.Duration
	maxAdvanceBookingDays int
}

// New constructs a slot Engine.
func New(clinicians repository.ClinicianStore, appts repository.AppointmentStore, c clock.Clock, minNotice time.Duration, maxAdvanceBookingDays int) *Engine {
	return &Engine{
		clinicians:            clinicians,
		appts:                 appts,
		clock:                 c,
		minNotice:             minNotice,
		maxAdvanceBookingDays: maxAdvanceBookingDays,
	}
}

// window is the slot sequence generated for one (day, template) pair before
// conflict filtering, carrying its own bounds so priority classification can
// test a slot's position against its own window rather than a flattened,
// cross-window sequence.
type window struct {
	start, end time.Time
	tmpl       models.AvailabilityTemplate
	slots      []models.Slot
}

// Slots returns every bookable slot for clinicianID, of the given
// appointment type (slot length comes from the matching template), between start and end (both dates,
// inclusive of start, exclusive of end). Implements the spec's seven-step
// algorithm: load template(s), walk each day in range, generate the day's
// raw windows, apply overrides, apply min-notice/advance-booking bounds,
// classify priority from the unfiltered per-window sequence, filter against
// existing appointments with buffer expansion, then sort.
func (e *Engine) Slots(ctx context.Context, clinicianID uint, apptType models.AppointmentType, start, end time.Time) ([]models.Slot, error) {
	windows, err := e.rawWindows(ctx, clinicianID, apptType, start, end)
	if err != nil {
		return nil, err
	}

	existing, err := e.appts.ListByClinicianRange(ctx, clinicianID, start, end)
	if err != nil {
		return nil, scheduling.Wrap(scheduling.KindStoreUnavailable, "appointment_lookup_failed", "failed to load existing appointments", err)
	}

	var bookable []models.Slot
	for _, w := range windows {
		bookable = append(bookable, classifyWindow(w, existing)...)
	}

	sortByDatePriorityStart(bookable)
	return bookable, nil
}

// TheoreticalSlotCount returns how many slots the clinician's template would
// yield in [start, end) if no appointment already held any of them — the
// denominator of the matcher's availability-density score.
func (e *Engine) TheoreticalSlotCount(ctx context.Context, clinicianID uint, apptType models.AppointmentType, start, end time.Time) (int, error) {
	windows, err := e.rawWindows(ctx, clinicianID, apptType, start, end)
	if err != nil {
		if scheduling.IsKind(err, scheduling.KindNoAvailability) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, w := range windows {
		count += len(w.slots)
	}
	return count, nil
}

// rawWindows loads templates and overrides, then generates each day's
// per-template slot sequence, bounded by minNotice/maxAdvanceBookingDays but
// not yet filtered against existing appointments.
func (e *Engine) rawWindows(ctx context.Context, clinicianID uint, apptType models.AppointmentType, start, end time.Time) ([]window, error) {
	clinician, err := e.clinicians.FindByID(ctx, clinicianID)
	if err != nil {
		return nil, scheduling.Wrap(scheduling.KindNotFound, "clinician_not_found", "clinician not found", err)
	}

	templates, err := e.clinicians.ActiveTemplates(ctx, clinicianID, apptType)
	if err != nil {
		return nil, scheduling.Wrap(scheduling.KindStoreUnavailable, "template_lookup_failed", "failed to load availability templates", err)
	}
	if len(templates) == 0 {
		return nil, scheduling.ErrNoTemplate
	}

	loc := clinician.Location()
	overrides, err := e.clinicians.Overrides(ctx, clinicianID, start, end)
	if err != nil {
		return nil, scheduling.Wrap(scheduling.KindStoreUnavailable, "override_lookup_failed", "failed to load availability overrides", err)
	}
	overrideByDate := make(map[string]models.AvailabilityOverride, len(overrides))
	for _, o := range overrides {
		overrideByDate[o.Date.Format("2006-01-02")] = o
	}

	now := e.clock.Now()
	earliest := now.Add(e.minNotice)
	latest := now.AddDate(0, 0, e.maxAdvanceBookingDays)

	var windows []window
	for day := dateOnly(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		if ov, ok := overrideByDate[day.Format("2006-01-02")]; ok && !ov.IsAvailable {
			continue
		}
		for _, tmpl := range templates {
			wh := tmpl.WindowFor(models.DayOfWeekFor(day.Weekday()))
			if wh.IsZero() {
				continue
			}
			wStart, wEnd, slots, err := e.generateDaySlots(day, wh, tmpl, loc)
			if err != nil {
				return nil, scheduling.Wrap(scheduling.KindInternal, "slot_generation_failed", "failed to generate day slots", err)
			}
			slots = boundByNoticeWindow(slots, earliest, latest)
			if len(slots) == 0 {
				continue
			}
			windows = append(windows, window{start: wStart, end: wEnd, tmpl: tmpl, slots: slots})
		}
	}
	return windows, nil
}

func boundByNoticeWindow(slots []models.Slot, earliest, latest time.Time) []models.Slot {
	var out []models.Slot
	for _, s := range slots {
		if s.Start.Before(earliest) || s.Start.After(latest) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (e *Engine) generateDaySlots(day time.Time, window models.WorkingHours, tmpl models.AvailabilityTemplate, loc *time.Location) (time.Time, time.Time, []models.Slot, error) {
	start, err := e.clock.Combine(day, window.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid start time %q: %w", window.StartTime, err)
	}
	end, err := e.clock.Combine(day, window.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid end time %q: %w", window.EndTime, err)
	}

	duration := time.Duration(tmpl.SlotDurationMin) * time.Minute
	buffer := time.Duration(tmpl.BufferMin) * time.Minute
	step := duration + buffer

	var slots []models.Slot
	for cursor := start; !cursor.Add(duration).After(end); cursor = cursor.Add(step) {
		slots = append(slots, models.Slot{
			ClinicianID:     tmpl.ClinicianID,
			AppointmentType: tmpl.AppointmentType,
			Start:           cursor,
			End:             cursor.Add(duration),
		})
	}
	return start, end, slots, nil
}

// conflictsWithExisting reports whether slot, expanded by bufferMin on both
// sides, overlaps at least maxConcurrent appointments that still hold
// calendar space. A clinician with MaxConcurrent > 1 (staggered group
// sessions) tolerates up to maxConcurrent-1 overlapping holds in the same
// slot before it counts as a conflict; MaxConcurrent of 1 reproduces plain
// one-at-a-time exclusivity.
func conflictsWithExisting(slot models.Slot, existing []models.Appointment, bufferMin, maxConcurrent int) bool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	buffer := time.Duration(bufferMin) * time.Minute
	slotStart, slotEnd := slot.Start.Add(-buffer), slot.End.Add(buffer)

	overlap := 0
	for _, appt := range existing {
		if !appt.Status.HoldsCalendarSpace() {
			continue
		}
		if slotStart.Before(appt.EndTime) && slotEnd.After(appt.AppointmentTime) {
			overlap++
		}
	}
	return overlap >= maxConcurrent
}

// classifyWindow assigns each slot in w a priority and drops the ones that
// conflict with an existing appointment. Priority is computed from w's full
// generated sequence before conflicts are removed, so a slot's Limited
// classification reflects whether its immediate neighbours within the same
// template window are occupied, not whether they happen to survive
// filtering.
func classifyWindow(w window, existing []models.Appointment) []models.Slot {
	occupied := make([]bool, len(w.slots))
	for i, s := range w.slots {
		occupied[i] = conflictsWithExisting(s, existing, w.tmpl.BufferMin, w.tmpl.MaxConcurrent)
	}

	quarter := w.start.Add(w.end.Sub(w.start) / 4)

	var out []models.Slot
	for i, s := range w.slots {
		if occupied[i] {
			continue
		}
		switch {
		case s.AppointmentType == models.TypeEmergencyConsultation:
			s.Priority = models.PriorityEmergency
		case i > 0 && i < len(w.slots)-1 && occupied[i-1] && occupied[i+1]:
			s.Priority = models.PriorityLimited
		case s.Start.Before(quarter):
			s.Priority = models.PriorityPreferred
		default:
			s.Priority = models.PriorityAvailable
		}
		out = append(out, s)
	}
	return out
}

var priorityRank = map[models.SlotPriority]int{
	models.PriorityEmergency: 0,
	models.PriorityPreferred: 1,
	models.PriorityAvailable: 2,
	models.PriorityLimited:   3,
}

// sortByDatePriorityStart orders slots by date ascending, then priority
// (Emergency > Preferred > Available > Limited), then start ascending.
func sortByDatePriorityStart(slots []models.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		di, dj := dateOnly(slots[i].Start), dateOnly(slots[j].Start)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if priorityRank[slots[i].Priority] != priorityRank[slots[j].Priority] {
			return priorityRank[slots[i].Priority] < priorityRank[slots[j].Priority]
		}
		return slots[i].Start.Before(slots[j].Start)
	})
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
