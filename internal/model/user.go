// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered identity. Users are only ever created by a verified
// OTP challenge, so every row here has a confirmed email address.
//
// PasswordHash never leaves the server: the `json:"-"` tag drops it from
// every encoded response.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the public listing shape of a user.
type UserSummary struct {
	ID       string `json:"id"       db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email"    db:"email"`
}
