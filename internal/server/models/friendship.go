package models

import "time"

// Friend is a row of the friends list joined with the friend's profile.
type Friend struct {
	UserID      string
	Nickname    string
	AvatarIndex int
	Status      string
	Since       time.Time
}

// InviteCode is a single-use, expiring friend invitation.
type InviteCode struct {
	Code      string
	UserID    string
	ExpiresAt time.Time
	UsedBy    string
	UsedAt    *time.Time
}
