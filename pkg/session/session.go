package session

import (
	"time"
)

// User is the authenticated identity attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the credential state. It is owned by the Manager and mutated
// only by login, refresh, and logout.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Usable reports whether the access token is present and will remain
// valid for at least leadTime.
func (s *Session) Usable(leadTime time.Duration) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return time.Now().Add(leadTime).Before(s.ExpiresAt)
}

// Credentials are the inputs to Login and Register.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// State is published on the state channel whenever the authentication
// status changes.
type State struct {
	// Authenticated is true while a usable session is held.
	Authenticated bool

	// User is set when Authenticated is true.
	User *User
}
