package models

import (
	"time"

	"gorm.io/gorm"
)

// Patient is a thin record kept by the core only to the extent scheduling
// needs it (identity, timezone, prior-relationship history). Profile and
// medical-record ownership stay outside this system.
type Patient struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null;size:255" validate:"required,min=2,max=255"`
	Timezone  string         `json:"timezone" gorm:"not null;size:64;default:'UTC'" validate:"required"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p Patient) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
