package domain

import "time"

// Principal is a registered account and the identity an authenticated request
// acts as. PasswordSecret is the encoded password derivation and is never
// serialised outward.
type Principal struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Role           Role      `json:"role"`
	PasswordSecret []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Credential is the transient username/password pair submitted at login.
type Credential struct {
	Username string
	Password string
}
