package model

import "time"

// RefreshToken is an opaque, single-use credential exchanged for a new
// token pair. The token string itself is the primary key.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenPair is what a successful login, registration or refresh returns.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
