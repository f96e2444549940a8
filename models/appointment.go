package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus is a node in the appointment lifecycle state machine.
type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "PENDING"
	StatusConfirmed   AppointmentStatus = "CONFIRMED"
	StatusInProgress  AppointmentStatus = "IN_PROGRESS"
	StatusCompleted   AppointmentStatus = "COMPLETED"
	StatusCancelled   AppointmentStatus = "CANCELLED"
	StatusNoShow      AppointmentStatus = "NO_SHOW"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
)

// validTransitions enumerates the allowed edges of the appointment state
// machine. Any transition not listed here is rejected.
var validTransitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	StatusPending: {
		StatusConfirmed:   true,
		StatusCancelled:   true,
		StatusRescheduled: true,
	},
	StatusConfirmed: {
		StatusInProgress:  true,
		StatusCancelled:   true,
		StatusNoShow:      true,
		StatusRescheduled: true,
	},
	StatusInProgress: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusNoShow:      {},
	StatusRescheduled: {},
}

// IsTerminal reports whether no further transitions are possible.
func (s AppointmentStatus) IsTerminal() bool {
	edges, ok := validTransitions[s]
	return ok && len(edges) == 0
}

// HoldsCalendarSpace reports whether an appointment in this status still
// occupies its slot for conflict-detection purposes. Rescheduled releases
// its original interval immediately, matching the teacher's
// RescheduleAppointment freeing the original TimeSlot in the same
// transaction that books the replacement.
func (s AppointmentStatus) HoldsCalendarSpace() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return true
	default:
		return false
	}
}

// AppointmentType is the canonical, de-duplicated set of appointment kinds.
// Ingestion paths accept case-insensitive synonyms and normalize to one of
// these via NormalizeAppointmentType.
type AppointmentType string

const (
	TypeInitialConsultation   AppointmentType = "INITIAL_CONSULTATION"
	TypeFollowUpConsultation  AppointmentType = "FOLLOW_UP_CONSULTATION"
	TypeEmergencyConsultation AppointmentType = "EMERGENCY_CONSULTATION"
	TypePrescriptionRenewal   AppointmentType = "PRESCRIPTION_RENEWAL"
	TypeSpecialtyConsultation AppointmentType = "SPECIALTY_CONSULTATION"
	TypeGroupSession          AppointmentType = "GROUP_SESSION"
	TypeTelehealthCheckIn     AppointmentType = "TELEHEALTH_CHECK_IN"
)

// appointmentTypeSynonyms maps loosely-formatted inbound strings (seen in
// older clients and the source systems this was distilled from) onto the
// canonical set.
var appointmentTypeSynonyms = map[string]AppointmentType{
	"initial_consultation":   TypeInitialConsultation,
	"initial consultation":   TypeInitialConsultation,
	"consultation":           TypeInitialConsultation,
	"new_patient":            TypeInitialConsultation,
	"follow_up_consultation": TypeFollowUpConsultation,
	"follow_up":              TypeFollowUpConsultation,
	"followup":               TypeFollowUpConsultation,
	"emergency_consultation": TypeEmergencyConsultation,
	"emergency":              TypeEmergencyConsultation,
	"urgent":                 TypeEmergencyConsultation,
	"prescription_renewal":   TypePrescriptionRenewal,
	"rx_renewal":             TypePrescriptionRenewal,
	"refill":                 TypePrescriptionRenewal,
	"specialty_consultation": TypeSpecialtyConsultation,
	"specialist":             TypeSpecialtyConsultation,
	"group_session":          TypeGroupSession,
	"group":                  TypeGroupSession,
	"telehealth_check_in":    TypeTelehealthCheckIn,
	"telehealth":             TypeTelehealthCheckIn,
	"check_in":               TypeTelehealthCheckIn,
	"checkup":                TypeTelehealthCheckIn,
}

// NormalizeAppointmentType case/punctuation-folds an inbound string onto the
// canonical AppointmentType set. Returns an error for anything unrecognized
// rather than silently defaulting, since mis-typed bookings change billing
// and provider-matching behavior downstream.
func NormalizeAppointmentType(raw string) (AppointmentType, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	if canonical := AppointmentType(strings.ToUpper(key)); isCanonicalType(canonical) {
		return canonical, nil
	}
	if mapped, ok := appointmentTypeSynonyms[key]; ok {
		return mapped, nil
	}
	key = strings.ReplaceAll(key, "_", " ")
	if mapped, ok := appointmentTypeSynonyms[key]; ok {
		return mapped, nil
	}
	return "", fmt.Errorf("unrecognized appointment type %q", raw)
}

func isCanonicalType(t AppointmentType) bool {
	switch t {
	case TypeInitialConsultation, TypeFollowUpConsultation, TypeEmergencyConsultation,
		TypePrescriptionRenewal, TypeSpecialtyConsultation, TypeGroupSession, TypeTelehealthCheckIn:
		return true
	default:
		return false
	}
}

// ReminderType mirrors the teacher's notification channel enum.
type ReminderType string

const (
	ReminderSMS   ReminderType = "SMS"
	ReminderEmail ReminderType = "EMAIL"
	ReminderPush  ReminderType = "PUSH"
)

// Appointment is the booked (or attempted) occupancy of a clinician's time.
type Appointment struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	PatientID       uint              `json:"patient_id" gorm:"not null;index" validate:"required,min=1"`
	ClinicianID     uint              `json:"clinician_id" gorm:"not null;index" validate:"required,min=1"`
	AppointmentTime time.Time         `json:"appointment_time" gorm:"not null;index" validate:"required"`
	EndTime         time.Time         `json:"end_time" gorm:"not null" validate:"required"`
	Status          AppointmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'" validate:"required"`
	Type            AppointmentType   `json:"type" gorm:"type:varchar(32);not null" validate:"required"`
	PatientNotes    string            `json:"patient_notes" gorm:"type:text"`
	ClinicianNotes  string            `json:"clinician_notes" gorm:"type:text"`

	RescheduledFrom *uint `json:"rescheduled_from" gorm:"index"`
	RescheduledTo   *uint `json:"rescheduled_to" gorm:"index"`
	RescheduleCount int   `json:"reschedule_count" gorm:"default:0"`

	ReminderEnabled bool         `json:"reminder_enabled" gorm:"default:true"`
	ReminderType    ReminderType `json:"reminder_type" gorm:"type:varchar(10);default:'EMAIL'"`
	ReminderSent    bool         `json:"reminder_sent" gorm:"default:false"`

	ConfirmedAt *time.Time `json:"confirmed_at"`

	CancelledAt        *time.Time `json:"cancelled_at"`
	CancelledBy        string     `json:"cancelled_by" gorm:"type:varchar(20)"`
	CancellationReason string     `json:"cancellation_reason" gorm:"type:text"`

	VideoSessionID string `json:"video_session_id,omitempty" gorm:"type:varchar(128)"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Clinician                  Clinician    `json:"clinician,omitempty" gorm:"foreignKey:ClinicianID"`
	RescheduledFromAppointment *Appointment `json:"rescheduled_from_appointment,omitempty" gorm:"foreignKey:RescheduledFrom"`
	RescheduledToAppointment   *Appointment `json:"rescheduled_to_appointment,omitempty" gorm:"foreignKey:RescheduledTo"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Transition validates and applies a status change, stamping the relevant
// timestamp fields. It does not persist the change; callers wrap this in
// whatever store transaction is appropriate.
func (a *Appointment) Transition(to AppointmentStatus, now time.Time) error {
	edges, ok := validTransitions[a.Status]
	if !ok || !edges[to] {
		return fmt.Errorf("invalid appointment transition %s -> %s", a.Status, to)
	}
	a.Status = to
	switch to {
	case StatusConfirmed:
		a.ConfirmedAt = &now
	case StatusCancelled:
		a.CancelledAt = &now
	}
	return nil
}
