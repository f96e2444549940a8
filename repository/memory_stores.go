package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"telehealth-scheduling-core/models"
)

// MemoryAppointmentStore is an in-process AppointmentStore fake for unit
// tests that don't need a real database, following the design notes'
// requirement that every storage port have an in-memory substitute.
type MemoryAppointmentStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.Appointment
}

// NewMemoryAppointmentStore returns an empty fake store.
func NewMemoryAppointmentStore() *MemoryAppointmentStore {
	return &MemoryAppointmentStore{rows: make(map[uint]models.Appointment)}
}

func (m *MemoryAppointmentStore) FindByID(_ context.Context, id uint) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("appointment %d not found", id)
	}
	copied := appt
	return &copied, nil
}

func (m *MemoryAppointmentStore) FindOverlapping(_ context.Context, clinicianID uint, start, end time.Time, bufferMin int) ([]models.Appointment, error) {
	buffer := time.Duration(bufferMin) * time.Minute
	expandedStart, expandedEnd := start.Add(-buffer), end.Add(buffer)

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, appt := range m.rows {
		if appt.ClinicianID != clinicianID || !appt.Status.HoldsCalendarSpace() {
			continue
		}
		if appt.AppointmentTime.Before(expandedEnd) && appt.EndTime.After(expandedStart) {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentTime.Before(out[j].AppointmentTime) })
	return out, nil
}

func (m *MemoryAppointmentStore) Insert(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	appt.ID = m.nextID
	now := time.Now().UTC()
	appt.CreatedAt, appt.UpdatedAt = now, now
	m.rows[appt.ID] = *appt
	return nil
}

func (m *MemoryAppointmentStore) Update(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[appt.ID]; !ok {
		return fmt.Errorf("appointment %d not found", appt.ID)
	}
	appt.UpdatedAt = time.Now().UTC()
	m.rows[appt.ID] = *appt
	return nil
}

func (m *MemoryAppointmentStore) ListByPatient(_ context.Context, patientID uint, limit int) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, appt := range m.rows {
		if appt.PatientID == patientID {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentTime.After(out[j].AppointmentTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryAppointmentStore) ListByClinicianRange(_ context.Context, clinicianID uint, start, end time.Time) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, appt := range m.rows {
		if appt.ClinicianID == clinicianID && !appt.AppointmentTime.Before(start) && appt.AppointmentTime.Before(end) {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentTime.Before(out[j].AppointmentTime) })
	return out, nil
}

func (m *MemoryAppointmentStore) CountPriorAppointments(_ context.Context, patientID, clinicianID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, appt := range m.rows {
		if appt.PatientID == patientID && appt.ClinicianID == clinicianID && appt.Status == models.StatusCompleted {
			count++
		}
	}
	return count, nil
}

// MemoryClinicianStore is an in-process ClinicianStore fake.
type MemoryClinicianStore struct {
	mu        sync.Mutex
	Clinician map[uint]models.Clinician
	Templates map[uint][]models.AvailabilityTemplate
	Overrides map[uint][]models.AvailabilityOverride
}

// NewMemoryClinicianStore returns an empty fake store.
func NewMemoryClinicianStore() *MemoryClinicianStore {
	return &MemoryClinicianStore{
		Clinician: make(map[uint]models.Clinician),
		Templates: make(map[uint][]models.AvailabilityTemplate),
		Overrides: make(map[uint][]models.AvailabilityOverride),
	}
}

func (m *MemoryClinicianStore) Create(_ context.Context, clinician *models.Clinician) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if clinician.ID == 0 {
		clinician.ID = uint(len(m.Clinician) + 1)
	}
	now := time.Now().UTC()
	clinician.CreatedAt, clinician.UpdatedAt = now, now
	m.Clinician[clinician.ID] = *clinician
	return nil
}

func (m *MemoryClinicianStore) ListAll(_ context.Context) ([]models.Clinician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Clinician, 0, len(m.Clinician))
	for _, c := range m.Clinician {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryClinicianStore) FindByID(_ context.Context, id uint) (*models.Clinician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Clinician[id]
	if !ok {
		return nil, fmt.Errorf("clinician %d not found", id)
	}
	return &c, nil
}

func (m *MemoryClinicianStore) ListBySpecialty(_ context.Context, specialtyID uint) ([]models.Clinician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Clinician
	for _, c := range m.Clinician {
		if c.SpecialtyID == specialtyID && c.IsAvailable {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryClinicianStore) ListBySpecialtyName(_ context.Context, specialtyName string) ([]models.Clinician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Clinician
	for _, c := range m.Clinician {
		if c.Specialty.Name == specialtyName && c.IsAvailable {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryClinicianStore) ActiveTemplates(_ context.Context, clinicianID uint, apptType models.AppointmentType) ([]models.AvailabilityTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AvailabilityTemplate
	for _, t := range m.Templates[clinicianID] {
		if t.AppointmentType == apptType && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryClinicianStore) Overrides(_ context.Context, clinicianID uint, start, end time.Time) ([]models.AvailabilityOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AvailabilityOverride
	for _, o := range m.Overrides[clinicianID] {
		if !o.Date.Before(start) && o.Date.Before(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

// MemoryEventSink is an in-process EventSink fake that just records events,
// for tests asserting lifecycle-event emission.
type MemoryEventSink struct {
	mu     sync.Mutex
	Events []models.LifecycleEvent
}

func NewMemoryEventSink() *MemoryEventSink {
	return &MemoryEventSink{}
}

func (s *MemoryEventSink) Emit(_ context.Context, event models.LifecycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.CreatedAt = time.Now().UTC()
	s.Events = append(s.Events, event)
	return nil
}
