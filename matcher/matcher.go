// Package matcher ranks candidate clinicians for a requested appointment
// type and window, combining prior-relationship history, specialty fit,
// availability density and quality rating into a single score.
package matcher

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/scheduling"
	"telehealth-scheduling-core/slotengine"
)

const (
	weightPriorRelationship = 0.50
	weightSpecialtyFit      = 0.25
	weightAvailability      = 0.15
	weightQualityRating     = 0.10

	// priorRelationshipCap is the prior-visit count at which the
	// prior-relationship factor saturates at its full weight.
	priorRelationshipCap = 3.0

	specialtyExactScore     = 1.0
	specialtySubstringScore = 0.6 // weightSpecialtyFit*0.6 = 0.15
)

// Candidate is one scored clinician match.
type Candidate struct {
	Clinician models.Clinician
	Score     float64
	Reasons   []string
	Slots     []models.Slot
}

// Matcher implements the Doctor Matcher component.
type Matcher struct {
	clinicians      repository.ClinicianStore
	appts           repository.AppointmentStore
	engine          *slotengine.Engine
	requireVerified bool
	maxAdvanceDays  int
}

// New constructs a Matcher.
func New(clinicians repository.ClinicianStore, appts repository.AppointmentStore, engine *slotengine.Engine, requireVerified bool, maxAdvanceDays int) *Matcher {
	return &Matcher{
		clinicians:      clinicians,
		appts:           appts,
		engine:          engine,
		requireVerified: requireVerified,
		maxAdvanceDays:  maxAdvanceDays,
	}
}

// Match returns candidates whose specialty matches specialtyName (exactly or
// by substring) able to perform apptType within [start, end), ranked highest
// score first and tie-broken by (a) higher quality rating, (b) lexicographic
// clinician ID. allowHistoryPrioritization gates the prior-relationship
// factor off when the caller's booking request set
// allow-history-prioritization to false. Returns
// scheduling.ErrNoClinicianAvailable (with the loosest window that did yield
// a candidate, if any, as context) when nothing qualifies.
func (m *Matcher) Match(ctx context.Context, patientID uint, specialtyName string, apptType models.AppointmentType, start, end time.Time, allowHistoryPrioritization bool) ([]Candidate, error) {
	clinicians, err := m.clinicians.ListAll(ctx)
	if err != nil {
		return nil, scheduling.Wrap(scheduling.KindStoreUnavailable, "clinician_lookup_failed", "failed to list clinicians", err)
	}

	var candidates []Candidate
	for _, c := range clinicians {
		if !c.IsAvailable {
			continue
		}
		if m.requireVerified && !c.IsVerified {
			continue
		}
		fitScore := specialtyFitScore(specialtyName, c.Specialty.Name)
		if fitScore == 0 {
			continue
		}

		slots, err := m.engine.Slots(ctx, c.ID, apptType, start, end)
		if err != nil {
			if scheduling.IsKind(err, scheduling.KindNoAvailability) {
				continue
			}
			return nil, err
		}
		if len(slots) == 0 {
			continue
		}

		theoretical, err := m.engine.TheoreticalSlotCount(ctx, c.ID, apptType, start, end)
		if err != nil {
			return nil, err
		}

		var priorCount int
		if allowHistoryPrioritization {
			priorCount, err = m.appts.CountPriorAppointments(ctx, patientID, c.ID)
			if err != nil {
				return nil, scheduling.Wrap(scheduling.KindStoreUnavailable, "history_lookup_failed", "failed to count prior appointments", err)
			}
		}

		score, reasons := m.score(c, priorCount, fitScore, len(slots), theoretical)
		candidates = append(candidates, Candidate{Clinician: c, Score: score, Reasons: reasons, Slots: slots})
	}

	if len(candidates) == 0 {
		widened, widenErr := m.widestWindowTried(ctx, specialtyName, apptType, start, end)
		base := scheduling.ErrNoClinicianAvailable
		if widenErr == nil && widened != "" {
			return nil, scheduling.Wrap(base.Kind, base.Code, fmt.Sprintf("no availability through %s", widened), base)
		}
		return nil, base
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Clinician.QualityRating != candidates[j].Clinician.QualityRating {
			return candidates[i].Clinician.QualityRating > candidates[j].Clinician.QualityRating
		}
		return candidates[i].Clinician.ID < candidates[j].Clinician.ID
	})
	return candidates, nil
}

// score computes the 0.50/0.25/0.15/0.10-weighted total and the
// human-readable reasons behind its non-zero contributions.
func (m *Matcher) score(c models.Clinician, priorCount int, specialtyScore float64, freeSlots, theoreticalSlots int) (float64, []string) {
	var reasons []string

	priorScore := math.Min(float64(priorCount), priorRelationshipCap) / priorRelationshipCap
	if priorScore > 0 {
		reasons = append(reasons, fmt.Sprintf("previous patient — %d prior visit(s)", priorCount))
	}

	if specialtyScore > 0 {
		reasons = append(reasons, fmt.Sprintf("specializes in %s", c.Specialty.Name))
	}

	availabilityScore := densityScore(freeSlots, theoreticalSlots)
	if availabilityScore > 0 {
		reasons = append(reasons, fmt.Sprintf("%d open slot(s) in window", freeSlots))
	}

	qualityScore := c.QualityRating / 5.0
	if qualityScore > 1 {
		qualityScore = 1
	}
	if qualityScore > 0 {
		reasons = append(reasons, fmt.Sprintf("highly rated %.1f/5", c.QualityRating))
	}

	total := weightPriorRelationship*priorScore +
		weightSpecialtyFit*specialtyScore +
		weightAvailability*availabilityScore +
		weightQualityRating*qualityScore

	return total, reasons
}

// specialtyFitScore grades how well a clinician's primary specialty matches
// the requested one: exact case-folded match scores full weight, a
// substring match in either direction scores partial weight, anything else
// scores zero and excludes the clinician from candidacy entirely.
func specialtyFitScore(requested, actual string) float64 {
	req := strings.ToLower(strings.TrimSpace(requested))
	act := strings.ToLower(strings.TrimSpace(actual))
	if req == "" || act == "" {
		return 0
	}
	switch {
	case req == act:
		return specialtyExactScore
	case strings.Contains(act, req) || strings.Contains(req, act):
		return specialtySubstringScore
	default:
		return 0
	}
}

// densityScore is the fraction of the window's theoretical slots that
// remain free, clipped to [0,1]. A window with no theoretical slots scores
// zero rather than dividing by zero.
func densityScore(freeSlots, theoreticalSlots int) float64 {
	if theoreticalSlots <= 0 {
		return 0
	}
	ratio := float64(freeSlots) / float64(theoreticalSlots)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// widestWindowTried widens [start, end) by a day at a time up to
// maxAdvanceDays looking for the first clinician with any slot, returning a
// human-readable date for the error message.
func (m *Matcher) widestWindowTried(ctx context.Context, specialtyName string, apptType models.AppointmentType, start, end time.Time) (string, error) {
	clinicians, err := m.clinicians.ListAll(ctx)
	if err != nil {
		return "", err
	}
	widenedEnd := end
	for day := 0; day <= m.maxAdvanceDays; day++ {
		for _, c := range clinicians {
			if !c.IsAvailable || (m.requireVerified && !c.IsVerified) || specialtyFitScore(specialtyName, c.Specialty.Name) == 0 {
				continue
			}
			slots, err := m.engine.Slots(ctx, c.ID, apptType, start, widenedEnd)
			if err == nil && len(slots) > 0 {
				return widenedEnd.Format("2006-01-02"), nil
			}
		}
		widenedEnd = widenedEnd.AddDate(0, 0, 1)
	}
	return "", nil
}
