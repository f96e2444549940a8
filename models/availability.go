package models

import (
	"time"

	"gorm.io/gorm"
)

// DayOfWeek mirrors time.Weekday but keeps the teacher's string-enum style
// for readability in stored templates and logs.
type DayOfWeek string

const (
	Sunday    DayOfWeek = "SUNDAY"
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

var weekdayToDayOfWeek = [...]DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayOfWeekFor converts a time.Weekday to the stored enum.
func DayOfWeekFor(w time.Weekday) DayOfWeek {
	return weekdayToDayOfWeek[w]
}

// WorkingHours defines a start/end wall-clock window, stored as "15:04".
type WorkingHours struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// IsZero reports whether the window was never configured (clinician not
// working that day).
func (w WorkingHours) IsZero() bool {
	return w.StartTime == "" || w.EndTime == ""
}

// AvailabilityTemplate is a clinician's recurring weekly availability for
// one appointment type. A clinician may have several templates, one per
// type, each with its own slot duration and buffer.
type AvailabilityTemplate struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	ClinicianID     uint            `json:"clinician_id" gorm:"not null;index" validate:"required,min=1"`
	AppointmentType AppointmentType `json:"appointment_type" gorm:"type:varchar(32);not null;index" validate:"required"`
	SlotDurationMin int             `json:"slot_duration_minutes" gorm:"not null" validate:"required,min=5,max=480"`
	BufferMin       int             `json:"buffer_minutes" gorm:"default:0" validate:"min=0,max=120"`
	MaxConcurrent   int             `json:"max_concurrent" gorm:"default:1" validate:"min=1"`
	Sunday          WorkingHours    `json:"sunday" gorm:"embedded;embeddedPrefix:sun_"`
	Monday          WorkingHours    `json:"monday" gorm:"embedded;embeddedPrefix:mon_"`
	Tuesday         WorkingHours    `json:"tuesday" gorm:"embedded;embeddedPrefix:tue_"`
	Wednesday       WorkingHours    `json:"wednesday" gorm:"embedded;embeddedPrefix:wed_"`
	Thursday        WorkingHours    `json:"thursday" gorm:"embedded;embeddedPrefix:thu_"`
	Friday          WorkingHours    `json:"friday" gorm:"embedded;embeddedPrefix:fri_"`
	Saturday        WorkingHours    `json:"saturday" gorm:"embedded;embeddedPrefix:sat_"`
	IsActive        bool            `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`

	Clinician Clinician `json:"clinician,omitempty" gorm:"foreignKey:ClinicianID"`
}

func (AvailabilityTemplate) TableName() string {
	return "availability_templates"
}

// WindowFor returns the configured working-hours window for the given
// weekday, or the zero WorkingHours if the clinician does not work that day.
func (t AvailabilityTemplate) WindowFor(day DayOfWeek) WorkingHours {
	switch day {
	case Sunday:
		return t.Sunday
	case Monday:
		return t.Monday
	case Tuesday:
		return t.Tuesday
	case Wednesday:
		return t.Wednesday
	case Thursday:
		return t.Thursday
	case Friday:
		return t.Friday
	case Saturday:
		return t.Saturday
	default:
		return WorkingHours{}
	}
}

// AvailabilityOverride marks a single calendar date as unavailable (or,
// less commonly, specially available) for a clinician, taking precedence
// over the weekly template. Unlike the teacher's DoctorBreak, an override
// is a whole-date boolean rather than a sub-range block — multi-range
// exceptions are expressed as several overrides.
type AvailabilityOverride struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	ClinicianID uint           `json:"clinician_id" gorm:"not null;index" validate:"required,min=1"`
	Date        time.Time      `json:"date" gorm:"type:date;not null;index" validate:"required"`
	IsAvailable bool           `json:"is_available" gorm:"default:false"`
	Reason      string         `json:"reason" gorm:"type:varchar(255)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Clinician Clinician `json:"clinician,omitempty" gorm:"foreignKey:ClinicianID"`
}

func (AvailabilityOverride) TableName() string {
	return "availability_overrides"
}

// SlotPriority classifies how desirable a generated slot is, used by the
// matcher and by client-facing availability responses.
type SlotPriority string

const (
	PriorityEmergency SlotPriority = "EMERGENCY"
	PriorityPreferred SlotPriority = "PREFERRED"
	PriorityAvailable SlotPriority = "AVAILABLE"
	PriorityLimited   SlotPriority = "LIMITED"
)

// Slot is a derived, non-persisted candidate booking window.
type Slot struct {
	ClinicianID     uint            `json:"clinician_id"`
	AppointmentType AppointmentType `json:"appointment_type"`
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	Priority        SlotPriority    `json:"priority"`
}

// Overlaps reports whether s, expanded by bufferMin on both sides,
// intersects other's unexpanded window.
func (s Slot) Overlaps(other Slot, bufferMin int) bool {
	buffer := time.Duration(bufferMin) * time.Minute
	aStart, aEnd := s.Start.Add(-buffer), s.End.Add(buffer)
	return aStart.Before(other.End) && aEnd.After(other.Start)
}
