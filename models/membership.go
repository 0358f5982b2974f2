package models

import "time"

// Membership roles within a community. Platform admins (models.Admin) are a
// separate account type and bypass community role checks.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Membership struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"not null;uniqueIndex:idx_membership_pair" json:"community_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_membership_pair" json:"user_id"`
	Role        string    `gorm:"size:20;not null;default:'member'" json:"role"`
	Status      string    `gorm:"size:20;not null;default:'Active'" json:"status"`
	JoinedAt    time.Time `json:"joined_at"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

func (Membership) TableName() string {
	return "memberships"
}
