package model

import "time"

// OTPChallenge is a one-time code issued to an email address during
// registration. A challenge moves from unverified to verified exactly once;
// it is never reverted.
type OTPChallenge struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Code       string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// Expired reports whether now is past the challenge's expiry.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Registration is the pending account data that accompanies a code request.
// It is held only in the caller's hands until VerifyOTP is called with it.
type Registration struct {
	Username string
	Email    string
	Password string
}
