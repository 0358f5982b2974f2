package models

import "time"

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	Email          string     `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"size:255;not null" json:"-"`
	Points         int64      `gorm:"not null;default:0" json:"points"`
	CurrentStreak  int        `gorm:"not null;default:0" json:"current_streak"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	Status         string     `gorm:"size:20;default:'Active'" json:"status"`
	Profile        *string    `gorm:"type:varchar(255);null" json:"profile,omitempty"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Summary is the nested shape embedded in task/assignment responses.
func (u *User) Summary() map[string]interface{} {
	return map[string]interface{}{
		"id":      u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"points":  u.Points,
		"profile": u.Profile,
	}
}
