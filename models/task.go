package models

import "time"

type Task struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:150;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Status       string     `gorm:"size:20;not null;default:'not_started';index" json:"status"`
	Priority     string     `gorm:"size:20;not null;default:'medium'" json:"priority"`
	TaskType     string     `gorm:"size:20;not null;default:'individual'" json:"task_type"`
	MaxAssignees int        `gorm:"not null;default:1" json:"max_assignees"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CommunityID  uint       `gorm:"not null;index" json:"community_id"`
	AssignedBy   uint       `gorm:"not null" json:"assigned_by"`
	ReviewedBy   *uint      `json:"reviewed_by,omitempty"`
	ReviewNotes  *string    `gorm:"type:text" json:"review_notes,omitempty"`

	CompletionDate *time.Time `json:"completion_date,omitempty"`

	// Denormalized counters, kept consistent with live subtask rows by the
	// lifecycle engine (recomputed inside the same transaction as every
	// subtask mutation).
	SubtaskCount          int `gorm:"not null;default:0" json:"subtask_count"`
	CompletedSubtaskCount int `gorm:"not null;default:0" json:"completed_subtask_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tags        []Tag            `gorm:"many2many:task_tags" json:"tags,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}
