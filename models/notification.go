package models

import "time"

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:30;not null" json:"type"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	TaskID    *uint     `json:"task_id,omitempty"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
