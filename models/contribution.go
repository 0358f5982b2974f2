package models

import "time"

// Contribution is an append-only ledger entry. Rows are created when an
// assignment is approved and are never updated or deleted; the sum of a user's
// contribution points is the audit trail behind the cached User.Points field.
type Contribution struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TaskID    *uint     `gorm:"index" json:"task_id,omitempty"`
	Points    int64     `gorm:"not null" json:"points"`
	Type      string    `gorm:"size:30;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (Contribution) TableName() string {
	return "contributions"
}
