package models

import "time"

// Setting holds platform-wide toggles. A single row is expected.
type Setting struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;default:'Loomio'" json:"name"`
	ClosedRegister bool      `gorm:"not null;default:false" json:"closed_register"`
	Maintenance    bool      `gorm:"not null;default:false" json:"maintenance"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

func (Setting) TableName() string {
	return "settings"
}
