// Package models defines server-side data models persisted in the database.
package models

import "time"

// Principal is a stored account that may sign in to the admin portal.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Identity returns the public view of the principal.
func (p *Principal) Identity() *Identity {
	return &Identity{ID: p.ID, Email: p.Email, IsAdmin: p.IsAdmin}
}

// Identity is what an authenticated session knows about its principal.
// It never carries the password hash.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
