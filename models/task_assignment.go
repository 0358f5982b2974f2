package models

import "time"

type TaskAssignment struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TaskID uint `gorm:"not null;uniqueIndex:idx_assignment_pair" json:"task_id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_assignment_pair" json:"user_id"`

	Status string `gorm:"size:20;not null;default:'assigned';index" json:"status"`

	AssignedAt  time.Time  `json:"assigned_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`

	SubmissionLink  *string `gorm:"type:varchar(500)" json:"submission_link,omitempty"`
	SubmissionNotes *string `gorm:"type:text" json:"submission_notes,omitempty"`
	ReviewNotes     *string `gorm:"type:text" json:"review_notes,omitempty"`
	ReviewedBy      *uint   `json:"reviewed_by,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (TaskAssignment) TableName() string {
	return "task_assignments"
}
