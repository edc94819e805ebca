package model

import "time"

// User represents a registered account.
//
// Two sign-in paths lead here: email/password registration (PasswordHash set)
// and Google federated sign-in (GoogleID set). An account can have both — a
// password user who later signs in with Google gets their GoogleID linked to
// the same row, matched by email.
//
// WHY PasswordHash string (not *string)?
// An empty string means "no password set" (federated-only account). The zero
// value is simpler to work with than a nullable pointer, and the hash is never
// serialized to JSON anyway (note the json:"-" tag).
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // bcrypt hash; empty for federated-only accounts
	GoogleID     string       `json:"-"` // Google's stable subject ID; empty if never linked
	DisplayName  string       `json:"displayName"`
	AvatarURL    string       `json:"avatarUrl,omitempty"`
	Settings     UserSettings `json:"settings"`
	LastLogin    time.Time    `json:"lastLogin"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// UserSettings holds per-user preferences. Stored as an embedded document on
// the user row; mutated only through PATCH /api/auth/settings.
type UserSettings struct {
	Theme              string `json:"theme"`
	EmailNotifications bool   `json:"emailNotifications"`
	DailyReminders     bool   `json:"dailyReminders"`
	WeeklyReports      bool   `json:"weeklyReports"`
}

// DefaultUserSettings are applied at registration.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Theme:              "light",
		EmailNotifications: true,
		DailyReminders:     true,
		WeeklyReports:      true,
	}
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
