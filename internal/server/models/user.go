package models

import "time"

// Provider identifies an external identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// Column returns the users table column holding the provider subject.
// The second value is false for unknown providers; callers must not feed the
// result into SQL without checking it.
func (p Provider) Column() (string, bool) {
	switch p {
	case ProviderGoogle:
		return "google_sub", true
	case ProviderApple:
		return "apple_sub", true
	default:
		return "", false
	}
}

// User is the durable identity record. Optional columns (Email, GoogleSub,
// AppleSub, PasswordHash) are empty strings when unset and stored as NULL.
type User struct {
	ID           string
	Email        string
	GoogleSub    string
	AppleSub     string
	PasswordHash string
	Nickname     string
	AvatarIndex  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExternalIdentity is a verified identity assertion from a provider,
// the input to identity resolution.
type ExternalIdentity struct {
	Provider Provider
	Sub      string
	Email    string
	Name     string
}
