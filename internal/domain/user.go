// Package domain contains core domain types for the symptom checker gateway.
package domain

import (
	"time"
)

// DefaultUsername is shown when the backend does not know the caller.
const DefaultUsername = "User"

// User is a gateway-local anonymous user and their UI preferences.
type User struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	DarkMode   bool      `json:"dark_mode"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Theme returns the name of the user's colour scheme.
func (u *User) Theme() string {
	if u.DarkMode {
		return "dark"
	}
	return "light"
}

// IdleFor reports how long the user has been inactive.
func (u *User) IdleFor(now time.Time) time.Duration {
	if u.LastSeenAt.IsZero() || now.Before(u.LastSeenAt) {
		return 0
	}
	return now.Sub(u.LastSeenAt)
}
