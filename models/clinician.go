package models

import (
	"time"

	"gorm.io/gorm"
)

// Clinician represents a care provider who can be matched and booked.
type Clinician struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"not null;size:255" validate:"required,min=2,max=255"`
	SpecialtyID    uint           `json:"specialty_id" gorm:"not null;index" validate:"required,min=1"`
	HomeTimezone   string         `json:"home_timezone" gorm:"not null;size:64;default:'UTC'" validate:"required"`
	IsAvailable    bool           `json:"is_available" gorm:"default:true"`
	IsVerified     bool           `json:"is_verified" gorm:"default:false"`
	QualityRating  float64        `json:"quality_rating" gorm:"default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	Specialty Specialty `json:"specialty,omitempty" gorm:"foreignKey:SpecialtyID"`
}

func (Clinician) TableName() string {
	return "clinicians"
}

// Location loads the clinician's home timezone, falling back to UTC if the
// stored zone name can't be resolved.
func (c Clinician) Location() *time.Location {
	loc, err := time.LoadLocation(c.HomeTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
