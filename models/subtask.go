package models

import "time"

type Subtask struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TaskID      uint       `gorm:"not null;index" json:"task_id"`
	Title       string     `gorm:"size:150;not null" json:"title"`
	Status      string     `gorm:"size:20;not null;default:'not_started'" json:"status"`
	Position    int        `gorm:"not null;default:0" json:"position"`
	AssignedTo  *uint      `json:"assigned_to,omitempty"`
	CompletedBy *uint      `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"-"`
}

func (Subtask) TableName() string {
	return "subtasks"
}
